package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyRecipientID = errors.New("recipient ID cannot be empty")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
)

// Recipient is a registered newsletter recipient. Subscriptions hold the
// categories the recipient opted into; an empty slice means the recipient is
// in discovery mode and receives every category.
type Recipient struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	Subscriptions []Category `json:"subscriptions,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewRecipient creates a Recipient with a fresh UUID and normalized email.
// Returns an error if validation fails.
func NewRecipient(email string) (*Recipient, error) {
	r := &Recipient{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks that the recipient has valid data.
func (r *Recipient) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecipientID
	}

	if r.Email == "" {
		return ErrEmptyEmail
	}

	if !validEmailFormat(r.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// IsSubscribedTo reports whether the recipient is subscribed to the snapshot
// category, matching by tracker ID or by normalized name. Name matching covers
// categories whose tracker IDs changed between syncs.
func (r *Recipient) IsSubscribedTo(activity CategoryActivity) bool {
	name := activity.NormalizedName()
	for _, sub := range r.Subscriptions {
		if sub.ID == activity.CategoryID || sub.NormalizedName() == name {
			return true
		}
	}
	return false
}

// InDiscoveryMode reports whether the recipient has no subscriptions and
// therefore receives the full bulletin.
func (r *Recipient) InDiscoveryMode() bool {
	return len(r.Subscriptions) == 0
}

// NormalizeEmail lowercases and trims an email address. All store lookups and
// broadcast comparisons use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmailFormat performs basic structural validation of an email address:
// a local part, a single @, and a domain containing a dot that is neither the
// first nor the last character of the domain.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	if strings.ContainsRune(domain, '@') {
		return false
	}

	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
