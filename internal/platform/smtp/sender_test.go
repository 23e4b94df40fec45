package smtp

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/engsync/briefing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	calls    int
	failures int
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func newTestSender(d dialer) *sender {
	return &sender{
		dialer:         d,
		logger:         slog.Default(),
		senderAddress:  "bulletin@example.com",
		senderName:     "Bulletin",
		retryCount:     3,
		retryBackoffMs: 1,
		sleep:          func(time.Duration) {},
	}
}

func TestSendRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{failures: 2}
	s := newTestSender(d)

	err := s.Send([]string{"a@example.com"}, "Subject", "<p>body</p>")
	require.NoError(t, err)
	assert.Equal(t, 3, d.calls)
}

func TestSendGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{failures: 10}
	s := newTestSender(d)

	err := s.Send([]string{"a@example.com"}, "Subject", "<p>body</p>")
	require.Error(t, err)
	assert.Equal(t, 4, d.calls, "initial attempt plus three retries")
}

func TestSendNoReceiversIsNoOp(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	s := newTestSender(d)

	require.NoError(t, s.Send(nil, "Subject", "body"))
	assert.Zero(t, d.calls)
}

func TestDryRunWithoutHost(t *testing.T) {
	t.Parallel()

	s := NewSender(config.SMTPConfig{}, slog.Default())
	err := s.Send([]string{"a@example.com"}, "Subject", "body")
	assert.NoError(t, err, "dry-run send must succeed without a dialer")
}

func TestNewSenderDefaults(t *testing.T) {
	t.Parallel()

	s := NewSender(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer@example.com",
		Password: "pw",
	}, nil).(*sender)

	assert.Equal(t, 3, s.retryCount)
	assert.Equal(t, 100, s.retryBackoffMs)
	assert.Equal(t, "mailer@example.com", s.senderAddress, "sender address falls back to username")
	assert.False(t, s.dryRun)
}
