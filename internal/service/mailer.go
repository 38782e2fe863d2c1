package service

import (
	"log"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email. Implementations must be safe for
// concurrent use; callers treat sends as best-effort.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail over SMTP via gomail.
type SMTPMailer struct {
	host   string
	port   int
	user   string
	pass   string
	sender string
}

func NewSMTPMailer(host string, port int, user, pass, sender string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, sender: sender}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		log.Printf("[Mail] send to %s failed: %v", to, err)
		return err
	}
	return nil
}
