package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrSMTPDisabled signals that SMTP delivery is disabled via configuration.
var ErrSMTPDisabled = errors.New("smtp: delivery disabled")

// Message represents an outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer defines behaviour for sending email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationCodeMessage builds the email carrying a one-time verification code.
func VerificationCodeMessage(to, name, code string, ttl time.Duration) Message {
	greeting := "Hello"
	if name = strings.TrimSpace(name); name != "" {
		greeting = "Hello " + name
	}

	body := fmt.Sprintf(
		"%s,\r\n\r\nYour CampusFix verification code is %s.\r\nIt expires in %d minutes.\r\n\r\nIf you did not request this code you can ignore this email.\r\n",
		greeting, code, int(ttl.Round(time.Minute)/time.Minute),
	)

	return Message{
		To:      []string{to},
		Subject: "Your CampusFix verification code",
		Body:    body,
	}
}

// LogMailer writes messages to the logger instead of delivering them. It is
// used when SMTP is disabled so local setups can still read codes.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	log := m.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("mail delivery skipped; smtp disabled",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	var result []string
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, exists := seen[addr]; exists {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
