// Package mailer delivers one-time codes by email.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/logging"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.html"))

const brand = "E-Library"

const (
	verificationSubject = "Verification Code (E-Library Management System)"
	resetSubject        = "Password Reset Code (E-Library Management System)"
)

// Sender delivers verification and password-reset codes.
type Sender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
	SendPasswordResetCode(ctx context.Context, to, code string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends HTML emails through an SMTP server.
type SMTPSender struct {
	dialer   dialer
	from     string
	lifetime time.Duration
	now      func() time.Time
}

// NewSMTPSender builds a sender. lifetime is only used in the email text.
func NewSMTPSender(host string, port int, username, password, from string, lifetime time.Duration) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     from,
		lifetime: lifetime,
		now:      time.Now,
	}
}

type otpData struct {
	Title    string
	Brand    string
	Heading  string
	Intro    string
	Code     string
	Lifetime string
	Year     int
}

func (s *SMTPSender) SendVerificationCode(ctx context.Context, to, code string) error {
	return s.send(ctx, to, verificationSubject, otpData{
		Title:   "Verify Your Email",
		Heading: "Verify Your Email Address",
		Intro:   "Use the code below to finish creating your account.",
		Code:    code,
	})
}

func (s *SMTPSender) SendPasswordResetCode(ctx context.Context, to, code string) error {
	return s.send(ctx, to, resetSubject, otpData{
		Title:   "Reset Your Password",
		Heading: "Password Reset Request",
		Intro:   "Use the code below to choose a new password.",
		Code:    code,
	})
}

func (s *SMTPSender) send(ctx context.Context, to, subject string, data otpData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data.Brand = brand
	data.Lifetime = formatLifetime(s.lifetime)
	data.Year = s.now().Year()

	body, err := render(data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func render(data otpData) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute otp template: %w", err)
	}
	return buf.String(), nil
}

func formatLifetime(d time.Duration) string {
	if d%time.Minute == 0 && d >= time.Minute {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	return d.String()
}

// LogSender writes codes to the log instead of sending mail. It is used
// when no SMTP host is configured.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "mailer")}
}

func (s *LogSender) SendVerificationCode(ctx context.Context, to, code string) error {
	s.logger.Warn(ctx, "smtp disabled, verification code not mailed", "to", to, "code", code)
	return nil
}

func (s *LogSender) SendPasswordResetCode(ctx context.Context, to, code string) error {
	s.logger.Warn(ctx, "smtp disabled, reset code not mailed", "to", to, "code", code)
	return nil
}
