package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"kmzgen/internal/config"
	"kmzgen/internal/report"
)

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	RunFinished(ctx context.Context, rep *report.RunReport) error
	TestNotification(ctx context.Context) error
}

// Sender delivers a composed message. The default implementation dials the
// configured SMTP relay; tests inject their own.
type Sender func(ctx context.Context, msg *mail.Msg) error

// Option configures the service.
type Option func(*smtpService)

// WithSender injects a custom message sender (primarily for tests).
func WithSender(send Sender) Option {
	return func(s *smtpService) {
		if send != nil {
			s.send = send
		}
	}
}

// NewService builds a notification service backed by the configured SMTP
// relay. When no relay is configured, a noop implementation is returned.
func NewService(cfg *config.Config, opts ...Option) Service {
	if cfg == nil || !cfg.NotificationsEnabled() {
		return noopService{}
	}

	svc := &smtpService{settings: cfg.Notifications}
	svc.send = svc.dialAndSend
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type smtpService struct {
	settings config.Notifications
	send     Sender
}

func (s *smtpService) RunFinished(ctx context.Context, rep *report.RunReport) error {
	subject := s.subject("Success")
	if rep.Outcome() != report.OutcomeSuccess {
		subject = s.subject("Error")
	}
	return s.deliver(ctx, subject, rep.Summary())
}

func (s *smtpService) TestNotification(ctx context.Context) error {
	body := "This is a test notification from kmzgen. If you can read this, the relay configuration works.\n"
	return s.deliver(ctx, s.subject("Test"), body)
}

func (s *smtpService) subject(outcome string) string {
	prefix := strings.TrimSpace(s.settings.SubjectPrefix)
	if prefix == "" {
		return outcome
	}
	return prefix + " " + outcome
}

func (s *smtpService) deliver(ctx context.Context, subject, body string) error {
	msg, err := s.compose(subject, body)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

func (s *smtpService) compose(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.settings.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(s.settings.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	if len(s.settings.CC) > 0 {
		if err := msg.Cc(s.settings.CC...); err != nil {
			return nil, fmt.Errorf("set cc recipients: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *smtpService) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	timeout := time.Duration(s.settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := mail.NewClient(
		s.settings.SMTPHost,
		mail.WithPort(s.settings.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

type noopService struct{}

func (noopService) RunFinished(context.Context, *report.RunReport) error { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
