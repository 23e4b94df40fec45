// Package smtp sends newsletter emails over SMTP with retry logic. When no
// SMTP host is configured the sender runs in dry-run mode and only logs the
// messages it would have sent.
package smtp

import (
	"log/slog"
	"math"
	"time"

	"github.com/engsync/briefing/internal/config"
	"gopkg.in/gomail.v2"
)

// Sender delivers one email to one or more recipients.
type Sender interface {
	Send(receivers []string, subject, htmlBody string) error
}

// dialer abstracts gomail.Dialer for testing.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type sender struct {
	dialer         dialer
	logger         *slog.Logger
	senderAddress  string
	senderName     string
	retryCount     int
	retryBackoffMs int
	dryRun         bool

	sleep func(time.Duration)
}

var _ Sender = (*sender)(nil)

// NewSender creates an SMTP sender from configuration. An empty host enables
// dry-run mode.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "smtp_sender")

	retryCount := cfg.RetryCount
	if retryCount <= 0 {
		retryCount = 3
	}
	retryBackoffMs := cfg.RetryBackoffMs
	if retryBackoffMs <= 0 {
		retryBackoffMs = 100
	}

	s := &sender{
		logger:         log,
		senderAddress:  cfg.SenderAddressOrUsername(),
		senderName:     cfg.SenderName,
		retryCount:     retryCount,
		retryBackoffMs: retryBackoffMs,
		sleep:          time.Sleep,
	}

	if cfg.Host == "" {
		log.Warn("No SMTP host configured, sender running in dry-run mode")
		s.dryRun = true
		return s
	}

	s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return s
}

// Send delivers the message, retrying transient failures with capped
// exponential backoff. Recipients go on the Bcc header so they never see
// each other's addresses.
func (s *sender) Send(receivers []string, subject, htmlBody string) error {
	if len(receivers) == 0 {
		return nil
	}

	if s.dryRun {
		s.logger.Info("DRY RUN: would send email",
			"receivers", len(receivers),
			"subject", subject,
			"body_length", len(htmlBody))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.senderAddress, s.senderName)
	msg.SetHeader("Bcc", receivers...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	var lastErr error
	backoffMs := s.retryBackoffMs

	for attempt := 0; attempt <= s.retryCount; attempt++ {
		err := s.dialer.DialAndSend(msg)
		if err == nil {
			s.logger.Info("Mail sent",
				"receivers", len(receivers),
				"attempt", attempt+1)
			return nil
		}

		lastErr = err
		if attempt < s.retryCount {
			s.logger.Warn("Send attempt failed, retrying",
				"attempt", attempt+1,
				"error", err,
				"backoff_ms", backoffMs)
			s.sleep(time.Duration(backoffMs) * time.Millisecond)
			backoffMs = int(math.Min(float64(backoffMs)*2, 32000))
		} else {
			s.logger.Error("Failed to send mail",
				"attempts", s.retryCount+1,
				"error", err)
		}
	}

	return lastErr
}
