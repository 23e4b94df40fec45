package api

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/events"
	"github.com/engsync/briefing/internal/service"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/store"
	"github.com/engsync/briefing/internal/web"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRenderer(t *testing.T) *web.Renderer {
	t.Helper()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	return renderer
}

func testSnapshot() []domain.CategoryActivity {
	return []domain.CategoryActivity{
		{
			CategoryID:   7,
			CategoryName: "Bug Fixes",
			Digest:       "Two regressions closed in review.",
			Tasks: []domain.TrackedTask{
				{ID: 101, Subject: "Fix login redirect", Status: "In Progress", Priority: domain.PriorityHigh},
			},
		},
		{
			CategoryID:   12,
			CategoryName: "Features",
			Tasks: []domain.TrackedTask{
				{ID: 201, Subject: "Export to CSV", Status: "Open", Priority: domain.PriorityMedium},
			},
		},
	}
}

func testCategory(id int, name string) domain.Category {
	return domain.Category{ID: id, Name: name, UpdatedAt: time.Now().UTC()}
}

// fakeNewsletter implements service.NewsletterService.
type fakeNewsletter struct {
	snapshot []domain.CategoryActivity
	enriched bool
	err      error
}

func (f *fakeNewsletter) Refresh(ctx context.Context) ([]domain.CategoryActivity, error) {
	return f.snapshot, f.err
}

func (f *fakeNewsletter) Snapshot(ctx context.Context) ([]domain.CategoryActivity, bool, error) {
	return f.snapshot, f.enriched, f.err
}

func (f *fakeNewsletter) EnrichedSnapshot(ctx context.Context) ([]domain.CategoryActivity, error) {
	return f.snapshot, f.err
}

// fakeSubscriptions implements service.SubscriptionService with canned
// results per method.
type fakeSubscriptions struct {
	manageView *service.ManageView
	manageErr  error

	savedRecipient *domain.Recipient
	savedIDs       []int
	savedToken     string
	saveErr        error

	change    *service.SubscriptionChange
	changeErr error
}

func (f *fakeSubscriptions) ResolveManage(ctx context.Context, token string) (*service.ManageView, error) {
	if f.manageErr != nil {
		return nil, f.manageErr
	}
	return f.manageView, nil
}

func (f *fakeSubscriptions) SaveSubscriptions(ctx context.Context, token string, categoryIDs []int) (*domain.Recipient, error) {
	f.savedToken = token
	f.savedIDs = categoryIDs
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.savedRecipient, nil
}

func (f *fakeSubscriptions) Subscribe(ctx context.Context, token string) (*service.SubscriptionChange, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return f.change, nil
}

func (f *fakeSubscriptions) Unsubscribe(ctx context.Context, token string) (*service.SubscriptionChange, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	return f.change, nil
}

// fakeTokens implements auth.LinkTokenService. Tokens are "tok:"-prefixed
// emails so tests can mint them without signing.
type fakeTokens struct {
	claims      map[string]*auth.LinkClaims
	validateErr error
	generateErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{claims: make(map[string]*auth.LinkClaims)}
}

func (f *fakeTokens) accept(token, email string, action auth.LinkAction) {
	f.claims[token] = &auth.LinkClaims{Email: email, Action: action}
}

func (f *fakeTokens) GenerateSubscriptionToken(ctx context.Context, email string, categoryID int, action auth.LinkAction) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return fmt.Sprintf("tok:%s:%d", email, categoryID), nil
}

func (f *fakeTokens) GenerateManageToken(ctx context.Context, email string) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return "tok:" + email, nil
}

func (f *fakeTokens) ValidateToken(ctx context.Context, token string) (*auth.LinkClaims, error) {
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	claims, ok := f.claims[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// fakeRecipientStore implements store.RecipientStore over a map keyed by
// normalized email.
type fakeRecipientStore struct {
	byEmail map[string]*domain.Recipient

	createErr error
	listErr   error
	deleteErr error
	deleted   []uuid.UUID
}

func newFakeRecipientStore() *fakeRecipientStore {
	return &fakeRecipientStore{byEmail: make(map[string]*domain.Recipient)}
}

func (f *fakeRecipientStore) add(email string, subs ...domain.Category) *domain.Recipient {
	r := &domain.Recipient{
		ID:            uuid.New(),
		Email:         domain.NormalizeEmail(email),
		Subscriptions: subs,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	f.byEmail[r.Email] = r
	return r
}

func (f *fakeRecipientStore) Create(ctx context.Context, recipient *domain.Recipient) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[recipient.Email]; exists {
		return store.ErrEmailExists
	}
	f.byEmail[recipient.Email] = recipient
	return nil
}

func (f *fakeRecipientStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	for _, r := range f.byEmail {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrRecipientNotFound
}

func (f *fakeRecipientStore) GetByEmail(ctx context.Context, email string) (*domain.Recipient, error) {
	r, ok := f.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrRecipientNotFound
	}
	return r, nil
}

func (f *fakeRecipientStore) GetOrCreateByEmail(ctx context.Context, email string) (*domain.Recipient, error) {
	if r, ok := f.byEmail[domain.NormalizeEmail(email)]; ok {
		return r, nil
	}
	return f.add(email), nil
}

func (f *fakeRecipientStore) List(ctx context.Context) ([]*domain.Recipient, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	recipients := make([]*domain.Recipient, 0, len(f.byEmail))
	for _, r := range f.byEmail {
		recipients = append(recipients, r)
	}
	return recipients, nil
}

func (f *fakeRecipientStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for email, r := range f.byEmail {
		if r.ID == id {
			delete(f.byEmail, email)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return store.ErrRecipientNotFound
}

func (f *fakeRecipientStore) WithTx(tx *sql.Tx) store.RecipientStore {
	return f
}

// fakeDeliveryStore implements store.DeliveryStore.
type fakeDeliveryStore struct {
	deliveries []domain.Delivery
	listErr    error
}

func (f *fakeDeliveryStore) Create(ctx context.Context, delivery *domain.Delivery) error {
	f.deliveries = append(f.deliveries, *delivery)
	return nil
}

func (f *fakeDeliveryStore) ListRecent(ctx context.Context, limit int) ([]domain.Delivery, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > len(f.deliveries) {
		limit = len(f.deliveries)
	}
	return f.deliveries[:limit], nil
}

func (f *fakeDeliveryStore) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Delivery, error) {
	return nil, nil
}

func (f *fakeDeliveryStore) WithTx(tx *sql.Tx) store.DeliveryStore {
	return f
}

// fakeEmitter implements events.EventEmitter and records emitted events.
type fakeEmitter struct {
	events []*events.TaskRequestEvent
	err    error
}

func (f *fakeEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}
