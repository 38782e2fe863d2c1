package service

import (
	"fmt"
	"log"

	"rentora/internal/models"
	"rentora/internal/repository"
)

// Notifier records in-app notifications and emails the user. The email is
// dispatched on a goroutine after the notification row commits; a send
// failure is logged and never propagates into the caller's result.
type Notifier struct {
	repo     *repository.NotificationRepository
	userRepo *repository.UserRepository
	mailer   Mailer
}

func NewNotifier(repo *repository.NotificationRepository, userRepo *repository.UserRepository, mailer Mailer) *Notifier {
	return &Notifier{repo: repo, userRepo: userRepo, mailer: mailer}
}

func (n *Notifier) Notify(userID uint, notifType, title, body string) {
	if err := n.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}); err != nil {
		log.Printf("[Notify] persist %s for user %d failed: %v", notifType, userID, err)
	}
	n.email(userID, title, body)
}

// EmailOnly sends without an in-app row; used for secrets (OTP, reset codes)
// that must not sit in the notifications table.
func (n *Notifier) EmailOnly(userID uint, subject, body string) {
	n.email(userID, subject, body)
}

func (n *Notifier) email(userID uint, subject, body string) {
	if n.mailer == nil {
		return
	}
	u, err := n.userRepo.GetByID(userID)
	if err != nil || u.Email == "" {
		return
	}
	go func(to string) {
		_ = n.mailer.Send(to, subject, body)
	}(u.Email)
}

func (n *Notifier) NotifyEarning(userID uint, netKobo int64, source, reference string) {
	n.Notify(userID, "EARNING_RECEIVED", "You have a new earning",
		fmt.Sprintf("₦%s has been credited to your wallet (%s, ref %s).", formatNaira(netKobo), source, reference))
}

func (n *Notifier) NotifyWithdrawalProcessing(userID uint, amountKobo int64, reference string) {
	n.Notify(userID, "WITHDRAWAL_PROCESSING", "Withdrawal in progress",
		fmt.Sprintf("Your withdrawal of ₦%s (ref %s) is being processed.", formatNaira(amountKobo), reference))
}

func (n *Notifier) NotifyWithdrawalQueued(userID uint, amountKobo int64, reference string) {
	n.Notify(userID, "WITHDRAWAL_QUEUED", "Withdrawal queued",
		fmt.Sprintf("Your withdrawal of ₦%s (ref %s) has been received and will be disbursed manually within 24 hours.", formatNaira(amountKobo), reference))
}

func (n *Notifier) NotifyWithdrawalSuccessful(userID uint, amountKobo int64, reference string) {
	n.Notify(userID, "WITHDRAWAL_SUCCESSFUL", "Withdrawal successful",
		fmt.Sprintf("Your withdrawal of ₦%s (ref %s) has been paid out to your bank account.", formatNaira(amountKobo), reference))
}

func (n *Notifier) NotifyWithdrawalFailed(userID uint, amountKobo int64, reference, reason string) {
	n.Notify(userID, "WITHDRAWAL_FAILED", "Withdrawal failed",
		fmt.Sprintf("Your withdrawal of ₦%s (ref %s) failed: %s. The amount has been refunded to your wallet.", formatNaira(amountKobo), reference, reason))
}

// formatNaira renders kobo as a naira string with two decimals.
func formatNaira(kobo int64) string {
	return fmt.Sprintf("%d.%02d", kobo/100, kobo%100)
}
