package email

import "log"

// Mailer defines the interface for sending outbound application mail.
type Mailer interface {
	Send(to, subject, body string) error
}

// consoleMailer prints mail to the server log instead of delivering it.
// Used when SMTP is not configured so local setups still show reset links.
type consoleMailer struct{}

// NewConsoleMailer creates a Mailer that logs instead of sending.
func NewConsoleMailer() Mailer {
	return consoleMailer{}
}

func (consoleMailer) Send(to, subject, body string) error {
	log.Printf("=== EMAIL NOT SENT (SMTP not configured) ===")
	log.Printf("To: %s", to)
	log.Printf("Subject: %s", subject)
	log.Printf("%s", body)
	log.Printf("============================================")
	return nil
}
