package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/learnloop/engage-api/pkg/logger"
)

// Service sends the worker's outbound mail. Implementations must be safe
// for concurrent use.
type Service interface {
	SendReminder(ctx context.Context, to, courseID string) error
	SendDigest(ctx context.Context, to string, courses []string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

func NewService(cfg Config, l *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: l,
	}
}

func (s *smtpService) SendReminder(ctx context.Context, to, courseID string) error {
	subject := "Time to continue learning"
	body := fmt.Sprintf("You have unfinished progress in %s. Pick up where you left off!", courseID)
	return s.SendCustom(ctx, to, subject, body)
}

func (s *smtpService) SendDigest(ctx context.Context, to string, courses []string) error {
	subject := "Your weekly learning digest"
	var b strings.Builder
	b.WriteString("Here is what we picked for you this week:\n\n")
	for _, course := range courses {
		fmt.Fprintf(&b, "  - %s\n", course)
	}
	return s.SendCustom(ctx, to, subject, b.String())
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// Noop drops all mail; selected when SMTP is not configured.
type Noop struct{}

func (Noop) SendReminder(context.Context, string, string) error       { return nil }
func (Noop) SendDigest(context.Context, string, []string) error       { return nil }
func (Noop) SendCustom(context.Context, string, string, string) error { return nil }
