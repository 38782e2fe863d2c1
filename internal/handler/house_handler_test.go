package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rentora/internal/domain"
	"rentora/internal/models"
	"rentora/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHouseFixture(t *testing.T) (*gin.Engine, *gorm.DB, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.House{}, &models.Viewing{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u := &models.User{FullName: "Tari Agent", Email: "tari@x.com", Role: domain.RoleAgent}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := NewHouseHandler(
		repository.NewHouseRepository(db),
		repository.NewViewingRepository(db),
		repository.NewUserRepository(db),
	)
	r := gin.New()
	r.POST("/houses", func(c *gin.Context) { c.Set("user_id", u.ID) }, h.Create)
	return r, db, u
}

func postListing(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/houses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateListing(t *testing.T) {
	r, db, _ := newHouseFixture(t)
	w := postListing(r, `{"title":"2 bed flat, Yaba","price_kobo":50000000,"viewing_fee_kobo":2000000}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var n int64
	db.Model(&models.House{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one house, got %d", n)
	}
}

func TestSuspendedAgentCannotCreateListing(t *testing.T) {
	r, db, u := newHouseFixture(t)
	if err := db.Model(&models.User{}).Where("id = ?", u.ID).Update("suspended", true).Error; err != nil {
		t.Fatalf("suspend: %v", err)
	}

	w := postListing(r, `{"title":"2 bed flat, Yaba","price_kobo":50000000}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for suspended agent, got %d", w.Code)
	}
	var n int64
	db.Model(&models.House{}).Count(&n)
	if n != 0 {
		t.Fatalf("no listing should be created, got %d", n)
	}
}
