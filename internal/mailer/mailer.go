package mailer

import (
	"gopkg.in/gomail.v2" // SMTP mail construction and delivery
)

// Mailer sends a single HTML mail to a list of recipients
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

// SMTPMailer delivers mail through an SMTP server
type SMTPMailer struct {
	dialer *gomail.Dialer // Configured SMTP dialer
	from   string         // From address on outgoing mail
}

// NewSMTPMailer creates a mailer for the given SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password), // SMTP connection settings
		from:   from,                                             // From address
	}
}

// Send delivers one HTML mail to all recipients
func (m *SMTPMailer) Send(to []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()          // Build the message
	msg.SetHeader("From", m.from)       // From address
	msg.SetHeader("To", to...)          // All recipients on one mail
	msg.SetHeader("Subject", subject)   // Subject line
	msg.SetBody("text/html", htmlBody)  // HTML body
	return m.dialer.DialAndSend(msg)    // Connect and send
}
