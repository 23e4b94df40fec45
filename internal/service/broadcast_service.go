package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/service/auth"
)

// Newsletter subject prefixes. The manage-only subject is used when a
// recipient's personalized view has no categories at all.
const (
	bulletinSubjectFormat = "📰 My Bulletin – %s"
	manageSubjectFormat   = "📰 Manage Your Subscriptions – %s"
)

// RecipientDirectory defines the recipient operations needed for a broadcast.
// Aligned with store.RecipientStore.
type RecipientDirectory interface {
	// List returns all registered recipients with subscriptions loaded.
	List(ctx context.Context) ([]*domain.Recipient, error)

	// GetOrCreateByEmail auto-provisions configured broadcast recipients.
	GetOrCreateByEmail(ctx context.Context, email string) (*domain.Recipient, error)
}

// DeliveryRecorder writes the per-recipient audit trail of a broadcast.
// Aligned with store.DeliveryStore.
type DeliveryRecorder interface {
	Create(ctx context.Context, delivery *domain.Delivery) error
}

// MailSender sends one rendered newsletter. Aligned with smtp.Sender.
type MailSender interface {
	Send(receivers []string, subject, htmlBody string) error
}

// EmailRenderer renders the newsletter HTML body. Aligned with web.Renderer.
type EmailRenderer interface {
	Email(categories []domain.CategoryActivity, manageURL, dashboardURL string, now time.Time) (string, error)
}

// BroadcastOptions carries the static broadcast settings.
type BroadcastOptions struct {
	// Recipients are addresses always included in a broadcast, merged with
	// the registered recipients and auto-provisioned on first use.
	Recipients []string

	// SenderEmail is skipped as a recipient unless it equals HostEmail.
	SenderEmail string
	HostEmail   string

	// BaseURL is the externally reachable URL used to build manage and
	// dashboard links.
	BaseURL string
}

// BroadcastReport summarizes one broadcast run.
type BroadcastReport struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// BroadcastService sends the personalized newsletter to every recipient.
type BroadcastService interface {
	// Broadcast builds the enriched snapshot, assembles the recipient set
	// from configuration and the store, and sends one personalized email per
	// recipient. Individual send failures are recorded and do not abort the
	// run.
	Broadcast(ctx context.Context) (*BroadcastReport, error)
}

// broadcastServiceImpl implements the BroadcastService interface.
type broadcastServiceImpl struct {
	newsletter NewsletterService
	recipients RecipientDirectory
	deliveries DeliveryRecorder
	tokens     auth.LinkTokenService
	sender     MailSender
	renderer   EmailRenderer
	opts       BroadcastOptions
	logger     *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewBroadcastService creates a BroadcastService.
// It returns an error if any of the required dependencies are nil.
func NewBroadcastService(
	newsletter NewsletterService,
	recipients RecipientDirectory,
	deliveries DeliveryRecorder,
	tokens auth.LinkTokenService,
	sender MailSender,
	renderer EmailRenderer,
	opts BroadcastOptions,
	logger *slog.Logger,
) (BroadcastService, error) {
	if newsletter == nil {
		return nil, errors.New("newsletter service cannot be nil")
	}
	if recipients == nil {
		return nil, errors.New("recipient directory cannot be nil")
	}
	if deliveries == nil {
		return nil, errors.New("delivery recorder cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("link token service cannot be nil")
	}
	if sender == nil {
		return nil, errors.New("mail sender cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("email renderer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts.SenderEmail = domain.NormalizeEmail(opts.SenderEmail)
	opts.HostEmail = domain.NormalizeEmail(opts.HostEmail)

	return &broadcastServiceImpl{
		newsletter: newsletter,
		recipients: recipients,
		deliveries: deliveries,
		tokens:     tokens,
		sender:     sender,
		renderer:   renderer,
		opts:       opts,
		logger:     logger.With("component", "broadcast_service"),
		now:        time.Now,
	}, nil
}

func (s *broadcastServiceImpl) Broadcast(ctx context.Context) (*BroadcastReport, error) {
	snapshot, err := s.newsletter.EnrichedSnapshot(ctx)
	if err != nil {
		s.logger.Error("broadcast aborted, no snapshot available", "error", err)
		return nil, fmt.Errorf("failed to build snapshot for broadcast: %w", err)
	}
	if len(snapshot) == 0 {
		// An empty category list means the tracker returned nothing useful.
		// Better no newsletter than an empty one to every recipient.
		s.logger.Error("broadcast aborted, snapshot has no categories")
		return nil, fmt.Errorf("%w: snapshot has no categories", ErrSnapshotUnavailable)
	}

	recipients, err := s.assembleRecipients(ctx)
	if err != nil {
		return nil, err
	}

	report := &BroadcastReport{Total: len(recipients)}
	for _, recipient := range recipients {
		if s.shouldSkip(recipient.Email) {
			s.logger.Info("skipping sender account", "email", recipient.Email)
			report.Skipped++
			s.record(ctx, recipient, "", 0, 0, domain.DeliverySkipped, nil)
			continue
		}

		if err := s.sendTo(ctx, recipient, snapshot); err != nil {
			s.logger.Error("newsletter send failed",
				"error", err, "email", recipient.Email)
			report.Failed++
			continue
		}
		report.Sent++
	}

	s.logger.Info("broadcast complete",
		"total", report.Total,
		"sent", report.Sent,
		"failed", report.Failed,
		"skipped", report.Skipped)

	return report, nil
}

// assembleRecipients merges the configured addresses with every registered
// recipient, deduplicated by normalized email. Configured addresses are
// auto-provisioned so their subscriptions persist.
func (s *broadcastServiceImpl) assembleRecipients(ctx context.Context) ([]*domain.Recipient, error) {
	seen := make(map[string]struct{})
	var result []*domain.Recipient

	for _, email := range s.opts.Recipients {
		normalized := domain.NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}

		recipient, err := s.recipients.GetOrCreateByEmail(ctx, normalized)
		if err != nil {
			s.logger.Error("failed to provision configured recipient",
				"error", err, "email", normalized)
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, recipient)
	}

	registered, err := s.recipients.List(ctx)
	if err != nil {
		s.logger.Error("failed to list registered recipients", "error", err)
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	for _, recipient := range registered {
		normalized := domain.NormalizeEmail(recipient.Email)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, recipient)
	}

	return result, nil
}

func (s *broadcastServiceImpl) shouldSkip(email string) bool {
	normalized := domain.NormalizeEmail(email)
	return s.opts.SenderEmail != "" &&
		normalized == s.opts.SenderEmail &&
		normalized != s.opts.HostEmail
}

func (s *broadcastServiceImpl) sendTo(ctx context.Context, recipient *domain.Recipient, snapshot []domain.CategoryActivity) error {
	view := PersonalizeSnapshot(recipient, snapshot)

	token, err := s.tokens.GenerateManageToken(ctx, recipient.Email)
	if err != nil {
		s.record(ctx, recipient, "", 0, 0, domain.DeliveryFailed, err)
		return fmt.Errorf("failed to generate manage token: %w", err)
	}
	manageURL := fmt.Sprintf("%s/manage/%s", s.opts.BaseURL, token)
	dashboardURL := fmt.Sprintf("%s/dashboard", s.opts.BaseURL)

	now := s.now()
	subject := fmt.Sprintf(bulletinSubjectFormat, now.Format("2006-01-02"))
	if len(view) == 0 {
		// Nothing to report: still reach out so the recipient can pick
		// categories.
		subject = fmt.Sprintf(manageSubjectFormat, now.Format("2006-01-02"))
	}

	html, err := s.renderer.Email(view, manageURL, dashboardURL, now)
	if err != nil {
		s.record(ctx, recipient, subject, 0, 0, domain.DeliveryFailed, err)
		return fmt.Errorf("failed to render newsletter: %w", err)
	}

	taskCount := 0
	for _, c := range view {
		taskCount += len(c.Tasks)
	}

	if err := s.sender.Send([]string{recipient.Email}, subject, html); err != nil {
		s.record(ctx, recipient, subject, len(view), taskCount, domain.DeliveryFailed, err)
		return fmt.Errorf("failed to send newsletter: %w", err)
	}

	s.record(ctx, recipient, subject, len(view), taskCount, domain.DeliverySent, nil)
	s.logger.Info("newsletter sent",
		"email", recipient.Email,
		"categories", len(view),
		"tasks", taskCount)
	return nil
}

// record writes the delivery audit row. Audit failures are logged, never
// propagated: the send outcome already happened.
func (s *broadcastServiceImpl) record(ctx context.Context, recipient *domain.Recipient, subject string, categoryCount, taskCount int, status domain.DeliveryStatus, sendErr error) {
	if subject == "" {
		subject = fmt.Sprintf(bulletinSubjectFormat, s.now().Format("2006-01-02"))
	}

	delivery, err := domain.NewDelivery(recipient.ID, subject, categoryCount, taskCount, status, sendErr)
	if err != nil {
		s.logger.Error("failed to build delivery record",
			"error", err, "recipient_id", recipient.ID)
		return
	}
	if err := s.deliveries.Create(ctx, delivery); err != nil {
		s.logger.Error("failed to record delivery",
			"error", err, "recipient_id", recipient.ID)
	}
}

// PersonalizeSnapshot selects the snapshot sections for one recipient. A
// recipient without subscriptions is in discovery mode and receives every
// category; otherwise subscriptions match by tracker ID or normalized name,
// and subscribed categories missing from the snapshot appear as placeholder
// sections.
func PersonalizeSnapshot(recipient *domain.Recipient, snapshot []domain.CategoryActivity) []domain.CategoryActivity {
	if recipient.InDiscoveryMode() {
		return snapshot
	}

	var view []domain.CategoryActivity
	matched := make(map[int]struct{})
	for _, activity := range snapshot {
		if recipient.IsSubscribedTo(activity) {
			view = append(view, activity)
			matched[activity.CategoryID] = struct{}{}
		}
	}

	for _, sub := range recipient.Subscriptions {
		if _, ok := matched[sub.ID]; ok {
			continue
		}
		if nameMatched(sub, snapshot, matched) {
			continue
		}
		view = append(view, domain.NewPlaceholderActivity(sub))
	}

	return view
}

// nameMatched reports whether the subscription already matched a snapshot
// section by normalized name rather than ID.
func nameMatched(sub domain.Category, snapshot []domain.CategoryActivity, matched map[int]struct{}) bool {
	name := sub.NormalizedName()
	for _, activity := range snapshot {
		if _, ok := matched[activity.CategoryID]; !ok {
			continue
		}
		if activity.NormalizedName() == name {
			return true
		}
	}
	return false
}

var _ BroadcastService = (*broadcastServiceImpl)(nil)
