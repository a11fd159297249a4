// mailer/mailer.go - Outgoing email transport
package mailer

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer sends one message to a set of recipients. Send propagates transport
// failures; SendSilently logs and swallows them.
type Mailer interface {
	Send(to []string, subject, textBody, htmlBody string) error
	SendSilently(to []string, subject, textBody, htmlBody string)
}

// SMTPMailer delivers over SMTP via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewFromEnv builds the transport from SMTP_* environment variables. Without
// SMTP_HOST it degrades to a logging mailer so local development needs no
// mail server.
func NewFromEnv() Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set, emails will be logged instead of sent")
		return &LogMailer{}
	}

	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "no-reply@project-tracker.local"
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD")),
		from:   from,
	}
}

func (m *SMTPMailer) Send(to []string, subject, textBody, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}

	return m.dialer.DialAndSend(msg)
}

func (m *SMTPMailer) SendSilently(to []string, subject, textBody, htmlBody string) {
	if err := m.Send(to, subject, textBody, htmlBody); err != nil {
		log.Printf("email to %v failed (ignored): %v", to, err)
	}
}

// LogMailer is the dev-mode transport: every message is a log line.
type LogMailer struct{}

func (m *LogMailer) Send(to []string, subject, textBody, htmlBody string) error {
	log.Printf("📧 [dev mail] to=%v subject=%q\n%s", to, subject, textBody)
	return nil
}

func (m *LogMailer) SendSilently(to []string, subject, textBody, htmlBody string) {
	_ = m.Send(to, subject, textBody, htmlBody)
}
