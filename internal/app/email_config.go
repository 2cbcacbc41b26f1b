package app

import (
	"fmt"
	"strings"

	"github.com/campusfix/campusfix/pkg/mail"
)

// SMTPSettings maps the email section onto the mailer. A missing sender
// becomes a no-reply address on the relay host; a missing port follows the
// TLS setting (465 implicit TLS, 587 otherwise).
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	host := strings.TrimSpace(c.SMTP.Host)

	port := c.SMTP.Port
	if port <= 0 {
		port = 587
		if c.SMTP.UseTLS {
			port = 465
		}
	}

	from := strings.TrimSpace(c.SMTP.From)
	if from == "" && host != "" {
		from = fmt.Sprintf("CampusFix <no-reply@%s>", host)
	}

	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     host,
		Port:     port,
		Username: strings.TrimSpace(c.SMTP.Username),
		Password: c.SMTP.Password,
		From:     from,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}
