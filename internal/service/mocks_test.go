package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/generation"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/store"
	"github.com/google/uuid"
)

// fakeSnapshotSource implements SnapshotSource with canned data.
type fakeSnapshotSource struct {
	mu          sync.Mutex
	snapshot    []domain.CategoryActivity
	fetchErr    error
	fetchCalls  int
	comments    map[int][]string
	commentErrs map[int]error
}

func (f *fakeSnapshotSource) FetchSnapshot(_ context.Context) ([]domain.CategoryActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeSnapshotSource) GetTaskComments(_ context.Context, taskID int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.commentErrs[taskID]; ok {
		return nil, err
	}
	return f.comments[taskID], nil
}

// fakeCategorySyncer implements CategorySyncer, recording synced batches.
type fakeCategorySyncer struct {
	mu       sync.Mutex
	synced   [][]domain.Category
	inserted int
	err      error
}

func (f *fakeCategorySyncer) Sync(_ context.Context, categories []domain.Category) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.synced = append(f.synced, categories)
	return f.inserted, nil
}

// fakeSummarizer implements generation.Summarizer with deterministic output.
type fakeSummarizer struct {
	mu         sync.Mutex
	recapErr   error
	digestErr  error
	recapCalls int
}

func (f *fakeSummarizer) SummarizeComments(_ context.Context, taskSubject string, comments []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recapCalls++
	if f.recapErr != nil {
		return "", f.recapErr
	}
	return fmt.Sprintf("recap of %d comments on %s", len(comments), taskSubject), nil
}

func (f *fakeSummarizer) CategoryDigest(_ context.Context, categoryName string, tasks []domain.TrackedTask) (string, error) {
	if f.digestErr != nil {
		return "", f.digestErr
	}
	return fmt.Sprintf("digest of %s covering %d tasks", categoryName, len(tasks)), nil
}

func (f *fakeSummarizer) RenderBulletin(_ context.Context, categoryName string, tasks []domain.TrackedTask) (*generation.Bulletin, error) {
	return &generation.Bulletin{
		Content:    fmt.Sprintf("bulletin for %s", categoryName),
		TotalTasks: len(tasks),
	}, nil
}

// fakeRecipientRepo implements RecipientRepository and RecipientDirectory
// over an in-memory map keyed by normalized email.
type fakeRecipientRepo struct {
	mu         sync.Mutex
	recipients map[string]*domain.Recipient
	listErr    error
}

func newFakeRecipientRepo(existing ...*domain.Recipient) *fakeRecipientRepo {
	repo := &fakeRecipientRepo{recipients: make(map[string]*domain.Recipient)}
	for _, r := range existing {
		repo.recipients[domain.NormalizeEmail(r.Email)] = r
	}
	return repo
}

func (f *fakeRecipientRepo) GetByEmail(_ context.Context, email string) (*domain.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recipient, ok := f.recipients[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrRecipientNotFound
	}
	return recipient, nil
}

func (f *fakeRecipientRepo) GetOrCreateByEmail(_ context.Context, email string) (*domain.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	if recipient, ok := f.recipients[normalized]; ok {
		return recipient, nil
	}
	recipient, err := domain.NewRecipient(normalized)
	if err != nil {
		return nil, err
	}
	f.recipients[normalized] = recipient
	return recipient, nil
}

func (f *fakeRecipientRepo) List(_ context.Context) ([]*domain.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := make([]*domain.Recipient, 0, len(f.recipients))
	for _, r := range f.recipients {
		result = append(result, r)
	}
	return result, nil
}

// fakeSubscriptionRepo implements SubscriptionRepository, recording calls.
type fakeSubscriptionRepo struct {
	mu       sync.Mutex
	replaced map[uuid.UUID][]int
	added    []int
	removed  []int
	err      error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{replaced: make(map[uuid.UUID][]int)}
}

func (f *fakeSubscriptionRepo) Replace(_ context.Context, recipientID uuid.UUID, categoryIDs []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.replaced[recipientID] = categoryIDs
	return nil
}

func (f *fakeSubscriptionRepo) Add(_ context.Context, _ uuid.UUID, categoryID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, categoryID)
	return nil
}

func (f *fakeSubscriptionRepo) Remove(_ context.Context, _ uuid.UUID, categoryID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, categoryID)
	return nil
}

// fakeCategoryRepo implements CategoryRepository over a fixed category set.
type fakeCategoryRepo struct {
	categories []domain.Category
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id int) (*domain.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			cat := c
			return &cat, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (f *fakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

// fakeDeliveryRecorder implements DeliveryRecorder, collecting records.
type fakeDeliveryRecorder struct {
	mu         sync.Mutex
	deliveries []*domain.Delivery
}

func (f *fakeDeliveryRecorder) Create(_ context.Context, delivery *domain.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery)
	return nil
}

func (f *fakeDeliveryRecorder) byStatus(status domain.DeliveryStatus) []*domain.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*domain.Delivery
	for _, d := range f.deliveries {
		if d.Status == status {
			result = append(result, d)
		}
	}
	return result
}

// sentMail is one captured MailSender.Send call.
type sentMail struct {
	receivers []string
	subject   string
	body      string
}

// fakeMailSender implements MailSender, capturing sends and failing for
// addresses listed in failFor.
type fakeMailSender struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func (f *fakeMailSender) Send(receivers []string, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range receivers {
		if err, ok := f.failFor[r]; ok {
			return err
		}
	}
	f.sent = append(f.sent, sentMail{receivers: receivers, subject: subject, body: htmlBody})
	return nil
}

// fakeEmailRenderer implements EmailRenderer with a compact summary string.
type fakeEmailRenderer struct{}

func (fakeEmailRenderer) Email(categories []domain.CategoryActivity, manageURL, _ string, _ time.Time) (string, error) {
	names := ""
	for _, c := range categories {
		names += c.CategoryName + ";"
	}
	return fmt.Sprintf("categories=%s manage=%s", names, manageURL), nil
}

// fakeTokenService implements auth.LinkTokenService without signing. Tokens
// are generated as "tok:<email>" and validated from the claims map.
type fakeTokenService struct {
	claims map[string]*auth.LinkClaims
	errs   map[string]error
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{
		claims: make(map[string]*auth.LinkClaims),
		errs:   make(map[string]error),
	}
}

func (f *fakeTokenService) accept(token string, claims *auth.LinkClaims) {
	f.claims[token] = claims
}

func (f *fakeTokenService) GenerateSubscriptionToken(_ context.Context, email string, categoryID int, action auth.LinkAction) (string, error) {
	token := fmt.Sprintf("tok:%s:%d:%s", email, categoryID, action)
	f.claims[token] = &auth.LinkClaims{Email: email, CategoryID: categoryID, Action: action}
	return token, nil
}

func (f *fakeTokenService) GenerateManageToken(_ context.Context, email string) (string, error) {
	token := "tok:" + email
	f.claims[token] = &auth.LinkClaims{Email: email, Action: auth.ActionManage}
	return token, nil
}

func (f *fakeTokenService) ValidateToken(_ context.Context, token string) (*auth.LinkClaims, error) {
	if err, ok := f.errs[token]; ok {
		return nil, err
	}
	claims, ok := f.claims[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// fakeNewsletter implements NewsletterService for broadcast tests.
type fakeNewsletter struct {
	snapshot []domain.CategoryActivity
	err      error
}

func (f *fakeNewsletter) Refresh(_ context.Context) ([]domain.CategoryActivity, error) {
	return f.snapshot, f.err
}

func (f *fakeNewsletter) Snapshot(_ context.Context) ([]domain.CategoryActivity, bool, error) {
	return f.snapshot, true, f.err
}

func (f *fakeNewsletter) EnrichedSnapshot(_ context.Context) ([]domain.CategoryActivity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}
