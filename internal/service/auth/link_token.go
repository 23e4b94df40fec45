package auth

import "context"

// LinkAction is the operation a signed email link authorizes.
type LinkAction string

// Link actions embedded in newsletter emails.
const (
	ActionManage      LinkAction = "manage"
	ActionSubscribe   LinkAction = "subscribe"
	ActionUnsubscribe LinkAction = "unsubscribe"
)

// Valid reports whether the action is one of the known link actions.
func (a LinkAction) Valid() bool {
	switch a {
	case ActionManage, ActionSubscribe, ActionUnsubscribe:
		return true
	default:
		return false
	}
}

// LinkClaims is the validated payload of a link token. CategoryID is zero for
// manage tokens, which cover every subscription of the recipient.
type LinkClaims struct {
	Email      string
	CategoryID int
	Action     LinkAction
}

// LinkTokenService signs and validates the tokens embedded in newsletter
// links. Tokens are self-contained: holding a valid token proves control of
// the email address it was sent to.
type LinkTokenService interface {
	// GenerateSubscriptionToken creates a token authorizing a single
	// subscribe or unsubscribe action for one category.
	GenerateSubscriptionToken(ctx context.Context, email string, categoryID int, action LinkAction) (string, error)

	// GenerateManageToken creates a token for the unified management page.
	GenerateManageToken(ctx context.Context, email string) (string, error)

	// ValidateToken validates a token and returns its claims. Returns
	// ErrExpiredToken, ErrTokenNotYetValid, or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, token string) (*LinkClaims, error)
}
