package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/store"
	"github.com/google/uuid"
)

// RecipientRepository defines the recipient persistence needed by the
// subscription service. Aligned with store.RecipientStore.
type RecipientRepository interface {
	// GetByEmail retrieves a recipient by normalized email address, with
	// subscriptions loaded.
	GetByEmail(ctx context.Context, email string) (*domain.Recipient, error)

	// GetOrCreateByEmail retrieves the recipient, creating them first if
	// necessary.
	GetOrCreateByEmail(ctx context.Context, email string) (*domain.Recipient, error)
}

// SubscriptionRepository defines the subscription mapping operations needed
// by the subscription service. Aligned with store.SubscriptionStore.
type SubscriptionRepository interface {
	Replace(ctx context.Context, recipientID uuid.UUID, categoryIDs []int) error
	Add(ctx context.Context, recipientID uuid.UUID, categoryID int) error
	Remove(ctx context.Context, recipientID uuid.UUID, categoryID int) error
}

// CategoryRepository defines the category lookups needed by the subscription
// service. Aligned with store.CategoryStore.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// CategoryOption is one selectable category on the management page.
type CategoryOption struct {
	Category   domain.Category
	Subscribed bool
}

// ManageView is the resolved state behind the subscription management page:
// the authenticated recipient plus every known category with its current
// subscription state.
type ManageView struct {
	Recipient  *domain.Recipient
	Categories []CategoryOption
}

// SubscriptionChange reports the outcome of a one-click subscribe or
// unsubscribe link.
type SubscriptionChange struct {
	Email        string
	CategoryName string
}

// SubscriptionService handles the token-authenticated subscription flows
// reached from newsletter email links.
type SubscriptionService interface {
	// ResolveManage validates a link token of any action and returns the
	// management view for its recipient, auto-provisioning the recipient if
	// they are not registered yet.
	ResolveManage(ctx context.Context, token string) (*ManageView, error)

	// SaveSubscriptions validates the token and replaces the recipient's
	// subscriptions with the given category IDs.
	SaveSubscriptions(ctx context.Context, token string, categoryIDs []int) (*domain.Recipient, error)

	// Subscribe processes a one-click subscribe link. The token must carry
	// the subscribe action and reference an existing category.
	Subscribe(ctx context.Context, token string) (*SubscriptionChange, error)

	// Unsubscribe processes a one-click unsubscribe link. The recipient must
	// already be registered.
	Unsubscribe(ctx context.Context, token string) (*SubscriptionChange, error)
}

// subscriptionServiceImpl implements the SubscriptionService interface.
type subscriptionServiceImpl struct {
	recipients    RecipientRepository
	subscriptions SubscriptionRepository
	categories    CategoryRepository
	tokens        auth.LinkTokenService
	logger        *slog.Logger

	// senderEmail is the normalized SMTP sender address. The sender account
	// must not manage subscriptions unless it is also the host email.
	senderEmail string
	hostEmail   string
}

// NewSubscriptionService creates a SubscriptionService.
// It returns an error if any of the required dependencies are nil.
func NewSubscriptionService(
	recipients RecipientRepository,
	subscriptions SubscriptionRepository,
	categories CategoryRepository,
	tokens auth.LinkTokenService,
	senderEmail, hostEmail string,
	logger *slog.Logger,
) (SubscriptionService, error) {
	if recipients == nil {
		return nil, errors.New("recipient repository cannot be nil")
	}
	if subscriptions == nil {
		return nil, errors.New("subscription repository cannot be nil")
	}
	if categories == nil {
		return nil, errors.New("category repository cannot be nil")
	}
	if tokens == nil {
		return nil, errors.New("link token service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &subscriptionServiceImpl{
		recipients:    recipients,
		subscriptions: subscriptions,
		categories:    categories,
		tokens:        tokens,
		senderEmail:   domain.NormalizeEmail(senderEmail),
		hostEmail:     domain.NormalizeEmail(hostEmail),
		logger:        logger.With("component", "subscription_service"),
	}, nil
}

// ResolveManage accepts tokens of every action: a subscribe or unsubscribe
// link doubles as a way into the management page.
func (s *subscriptionServiceImpl) ResolveManage(ctx context.Context, token string) (*ManageView, error) {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}

	recipient, err := s.recipients.GetOrCreateByEmail(ctx, claims.Email)
	if err != nil {
		s.logger.Error("failed to resolve recipient for manage page",
			"error", err, "email", claims.Email)
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	all, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Error("failed to list categories for manage page", "error", err)
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	options := make([]CategoryOption, len(all))
	for i, cat := range all {
		options[i] = CategoryOption{
			Category:   cat,
			Subscribed: recipient.IsSubscribedTo(domain.CategoryActivity{CategoryID: cat.ID, CategoryName: cat.Name}),
		}
	}

	return &ManageView{Recipient: recipient, Categories: options}, nil
}

// SaveSubscriptions rebuilds the recipient's subscription set. Unknown
// category IDs are dropped by the store rather than rejected.
func (s *subscriptionServiceImpl) SaveSubscriptions(ctx context.Context, token string, categoryIDs []int) (*domain.Recipient, error) {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}

	recipient, err := s.recipients.GetOrCreateByEmail(ctx, claims.Email)
	if err != nil {
		s.logger.Error("failed to resolve recipient for save",
			"error", err, "email", claims.Email)
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	if err := s.subscriptions.Replace(ctx, recipient.ID, categoryIDs); err != nil {
		s.logger.Error("failed to replace subscriptions",
			"error", err, "recipient_id", recipient.ID)
		return nil, fmt.Errorf("failed to save subscriptions: %w", err)
	}

	s.logger.Info("subscriptions saved",
		"recipient_id", recipient.ID,
		"email", recipient.Email,
		"category_count", len(categoryIDs))

	return recipient, nil
}

func (s *subscriptionServiceImpl) Subscribe(ctx context.Context, token string) (*SubscriptionChange, error) {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Action != auth.ActionSubscribe {
		return nil, auth.ErrWrongAction
	}

	category, err := s.categories.GetByID(ctx, claims.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		s.logger.Error("failed to look up category for subscribe",
			"error", err, "category_id", claims.CategoryID)
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	recipient, err := s.recipients.GetOrCreateByEmail(ctx, claims.Email)
	if err != nil {
		s.logger.Error("failed to resolve recipient for subscribe",
			"error", err, "email", claims.Email)
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	if err := s.subscriptions.Add(ctx, recipient.ID, category.ID); err != nil {
		s.logger.Error("failed to add subscription",
			"error", err, "recipient_id", recipient.ID, "category_id", category.ID)
		return nil, fmt.Errorf("failed to add subscription: %w", err)
	}

	s.logger.Info("subscription added",
		"email", recipient.Email, "category", category.Name)

	return &SubscriptionChange{Email: recipient.Email, CategoryName: category.Name}, nil
}

func (s *subscriptionServiceImpl) Unsubscribe(ctx context.Context, token string) (*SubscriptionChange, error) {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Action != auth.ActionUnsubscribe {
		return nil, auth.ErrWrongAction
	}

	// Unlike subscribe, an unknown recipient is an error: there is nothing
	// to remove for an address that never registered.
	recipient, err := s.recipients.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrRecipientNotFound) {
			return nil, ErrRecipientNotFound
		}
		s.logger.Error("failed to look up recipient for unsubscribe",
			"error", err, "email", claims.Email)
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}

	// The category may have been removed from the tracker since the link was
	// issued; the unsubscribe still succeeds with a generic name.
	categoryName := "the category"
	if category, err := s.categories.GetByID(ctx, claims.CategoryID); err == nil {
		categoryName = category.Name
	}

	if err := s.subscriptions.Remove(ctx, recipient.ID, claims.CategoryID); err != nil {
		s.logger.Error("failed to remove subscription",
			"error", err, "recipient_id", recipient.ID, "category_id", claims.CategoryID)
		return nil, fmt.Errorf("failed to remove subscription: %w", err)
	}

	s.logger.Info("subscription removed",
		"email", recipient.Email, "category", categoryName)

	return &SubscriptionChange{Email: recipient.Email, CategoryName: categoryName}, nil
}

// validate checks the link token and enforces the sender-account guard.
func (s *subscriptionServiceImpl) validate(ctx context.Context, token string) (*auth.LinkClaims, error) {
	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(claims.Email)
	if s.senderEmail != "" && email == s.senderEmail && email != s.hostEmail {
		s.logger.Warn("sender account attempted subscription management", "email", email)
		return nil, ErrAccessDenied
	}

	return claims, nil
}

var _ SubscriptionService = (*subscriptionServiceImpl)(nil)
