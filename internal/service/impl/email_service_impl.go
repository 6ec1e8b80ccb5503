package impl

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"ghonsi-proof/internal/observability/middleware"
)

// SMTPEmailService sends plain-text mail through an SMTP relay.
type SMTPEmailService struct {
	Addr     string // host:port
	From     string
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPEmailService(addr, from, user, password string) *SMTPEmailService {
	return &SMTPEmailService{Addr: addr, From: from, Username: user, Password: password, send: smtp.SendMail}
}

func (s *SMTPEmailService) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	body := fmt.Sprintf("Your Ghonsi Proof sign-in code is %s.\r\n\r\nIt expires in %d minutes. If you did not request it, ignore this email.\r\n", code, int(ttl.Minutes()))
	return s.deliver(to, "Your Ghonsi Proof sign-in code", body)
}

func (s *SMTPEmailService) SendVerificationRequest(ctx context.Context, to, requester, proofName, message string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s asked you to verify \"%s\" on Ghonsi Proof.\r\n", requester, proofName)
	if message != "" {
		fmt.Fprintf(&b, "\r\n%s\r\n", message)
	}
	b.WriteString("\r\nSign in with this email address to approve or reject the request.\r\n")
	return s.deliver(to, "Proof verification request", b.String())
}

func (s *SMTPEmailService) deliver(to, subject, body string) error {
	from, err := mail.ParseAddress(s.From)
	if err != nil {
		return fmt.Errorf("smtp from address: %w", err)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("%w: recipient address", ErrInvalidRequest)
	}
	var auth smtp.Auth
	if s.Username != "" {
		host, _, _ := net.SplitHostPort(s.Addr)
		auth = smtp.PlainAuth("", s.Username, s.Password, host)
	}
	msg := "From: " + from.String() + "\r\n" +
		"To: " + rcpt.String() + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" + body
	if err := s.send(s.Addr, auth, from.Address, []string{rcpt.Address}, []byte(msg)); err != nil {
		return fmt.Errorf("%w: smtp: %v", ErrUnavailable, err)
	}
	return nil
}

// LogEmailService writes mail to the log. Used when SMTP is not configured.
type LogEmailService struct{}

func (LogEmailService) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	slog.Info("email otp", append(middleware.LogAttrs(ctx), "to", to, "code", code, "ttl", ttl)...)
	return nil
}

func (LogEmailService) SendVerificationRequest(ctx context.Context, to, requester, proofName, message string) error {
	slog.Info("email verification request", append(middleware.LogAttrs(ctx), "to", to, "requester", requester, "proof", proofName)...)
	return nil
}
