package email

import (
	"alcyxob/bmi-coach/internal/config"
	"log"

	gomail "gopkg.in/gomail.v2"
)

// smtpMailer implements the Mailer interface over SMTP.
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a Mailer from configuration. When SMTP is not configured
// it returns the console fallback so callers never have to care.
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.Host == "" || cfg.Username == "" {
		log.Println("SMTP not configured, using console mailer")
		return NewConsoleMailer()
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	log.Printf("SMTP mailer initialized for host %s:%d", cfg.Host, cfg.Port)
	return &smtpMailer{dialer: dialer, from: from}
}

// Send delivers a plain-text message.
func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
