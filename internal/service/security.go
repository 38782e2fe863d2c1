package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"rentora/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	pinMaxFailures  = 3
	pinLockDuration = 30 * time.Minute
	pinResetTTL     = 15 * time.Minute
	// The withdrawal OTP gates one imminent transfer, not account recovery,
	// so it lives well under two minutes.
	withdrawOtpTTL = 110 * time.Second
)

var (
	ErrPinFormat   = errors.New("transaction pin must be exactly 6 digits")
	ErrPinNotSet   = errors.New("transaction pin not set")
	ErrPinInvalid  = errors.New("incorrect transaction pin")
	ErrPinLocked   = errors.New("transaction pin locked, try again later")
	ErrOtpInvalid  = errors.New("incorrect withdrawal code")
	ErrOtpExpired  = errors.New("withdrawal code has expired, request a new one")
	ErrOtpNotFound = errors.New("no withdrawal code requested")
	ErrResetCode   = errors.New("invalid or expired reset code")
)

var pinPattern = regexp.MustCompile(`^\d{6}$`)

// SecurityService owns the transaction PIN and the withdrawal OTP: the PIN
// proves long-term authorization, the OTP proves freshness for one transfer.
type SecurityService struct {
	users    *repository.UserRepository
	notifier *Notifier
	now      func() time.Time
}

func NewSecurityService(users *repository.UserRepository, notifier *Notifier) *SecurityService {
	return &SecurityService{users: users, notifier: notifier, now: time.Now}
}

// SetPin stores a salted hash of a 6-digit PIN for the user.
func (s *SecurityService) SetPin(userID uint, pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrPinFormat
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(userID, map[string]interface{}{
		"transaction_pin_hash": string(hash),
		"pin_fail_count":       0,
		"pin_locked_until":     nil,
	})
}

// VerifyPin checks the candidate against the stored hash. Three consecutive
// failures lock verification for 30 minutes; the lock error is distinct from
// a plain mismatch and further attempts do not grow the counter while locked.
func (s *SecurityService) VerifyPin(userID uint, pin string) error {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if u.TransactionPinHash == "" {
		return ErrPinNotSet
	}
	now := s.now()
	failCount := u.PinFailCount
	if u.PinLockedUntil != nil {
		if now.Before(*u.PinLockedUntil) {
			return ErrPinLocked
		}
		// Lock has lapsed: the user gets three fresh attempts.
		failCount = 0
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.TransactionPinHash), []byte(pin)); err != nil {
		failures := failCount + 1
		fields := map[string]interface{}{"pin_fail_count": failures, "pin_locked_until": nil}
		if failures >= pinMaxFailures {
			lockedUntil := now.Add(pinLockDuration)
			fields["pin_locked_until"] = &lockedUntil
			if uerr := s.users.UpdateFields(userID, fields); uerr != nil {
				return uerr
			}
			return ErrPinLocked
		}
		if uerr := s.users.UpdateFields(userID, fields); uerr != nil {
			return uerr
		}
		return fmt.Errorf("%w (%d attempts left)", ErrPinInvalid, pinMaxFailures-failures)
	}
	if u.PinFailCount != 0 || u.PinLockedUntil != nil {
		if uerr := s.users.UpdateFields(userID, map[string]interface{}{
			"pin_fail_count":   0,
			"pin_locked_until": nil,
		}); uerr != nil {
			return uerr
		}
	}
	return nil
}

// RequestPinReset emails a 6-digit reset code valid for 15 minutes.
func (s *SecurityService) RequestPinReset(userID uint) error {
	code, err := numericCode(6)
	if err != nil {
		return err
	}
	expires := s.now().Add(pinResetTTL)
	if err := s.users.UpdateFields(userID, map[string]interface{}{
		"pin_reset_hash":       hashCode(code),
		"pin_reset_expires_at": &expires,
	}); err != nil {
		return err
	}
	s.notifier.EmailOnly(userID, "Your PIN reset code",
		fmt.Sprintf("Your transaction PIN reset code is %s. It expires in 15 minutes.", code))
	return nil
}

// ResetPin consumes a reset code and stores a new PIN. The code is single
// use: it is cleared whether verification succeeds or the code has expired.
func (s *SecurityService) ResetPin(userID uint, code, newPin string) error {
	if !pinPattern.MatchString(newPin) {
		return ErrPinFormat
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if u.PinResetHash == "" || u.PinResetExpiresAt == nil {
		return ErrResetCode
	}
	if s.now().After(*u.PinResetExpiresAt) {
		s.clearResetCode(userID)
		return ErrResetCode
	}
	if !codeMatches(u.PinResetHash, code) {
		return ErrResetCode
	}
	s.clearResetCode(userID)
	return s.SetPin(userID, newPin)
}

func (s *SecurityService) clearResetCode(userID uint) {
	_ = s.users.UpdateFields(userID, map[string]interface{}{
		"pin_reset_hash":       "",
		"pin_reset_expires_at": nil,
	})
}

// GenerateWithdrawOtp issues a fresh 6-character alphanumeric code for one
// withdrawal attempt and emails it to the agent.
func (s *SecurityService) GenerateWithdrawOtp(userID uint) error {
	code, err := alphanumericCode(6)
	if err != nil {
		return err
	}
	expires := s.now().Add(withdrawOtpTTL)
	if err := s.users.UpdateFields(userID, map[string]interface{}{
		"withdraw_otp_hash":       hashCode(code),
		"withdraw_otp_expires_at": &expires,
	}); err != nil {
		return err
	}
	s.notifier.EmailOnly(userID, "Your withdrawal code",
		fmt.Sprintf("Your one-time withdrawal code is %s. It expires in %d seconds.", code, int(withdrawOtpTTL.Seconds())))
	return nil
}

// VerifyWithdrawOtp checks and consumes the stored OTP. The code is cleared
// on success and on expiry detection; a stale code is always rejected.
func (s *SecurityService) VerifyWithdrawOtp(userID uint, code string) error {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if u.WithdrawOtpHash == "" || u.WithdrawOtpExpiresAt == nil {
		return ErrOtpNotFound
	}
	if s.now().After(*u.WithdrawOtpExpiresAt) {
		s.clearOtp(userID)
		return ErrOtpExpired
	}
	if !codeMatches(u.WithdrawOtpHash, code) {
		return ErrOtpInvalid
	}
	s.clearOtp(userID)
	return nil
}

func (s *SecurityService) clearOtp(userID uint) {
	_ = s.users.UpdateFields(userID, map[string]interface{}{
		"withdraw_otp_hash":       "",
		"withdraw_otp_expires_at": nil,
	})
}

// hashCode hashes short-lived one-time codes. sha256 with constant-time
// comparison is enough here: the codes are single-use and expire in minutes,
// and bcrypt's cost would tax every withdrawal for no gain.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func codeMatches(storedHash, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashCode(candidate))) == 1
}

func numericCode(n int) (string, error) {
	const digits = "0123456789"
	return randomCode(digits, n)
}

func alphanumericCode(n int) (string, error) {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	return randomCode(charset, n)
}

func randomCode(charset string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[idx.Int64()]
	}
	return string(out), nil
}
