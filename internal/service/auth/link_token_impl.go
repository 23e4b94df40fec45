package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/engsync/briefing/internal/config"
	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
)

// hmacLinkTokenService is an implementation of LinkTokenService using
// HMAC-SHA signing.
type hmacLinkTokenService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time // Injectable for testing
	clockSkew     time.Duration    // Allowed time difference to handle clock drift
}

// linkCustomClaims defines the structure of the JWT claims carried by
// newsletter links.
type linkCustomClaims struct {
	Email      string `json:"email"`
	CategoryID int    `json:"category_id,omitempty"`
	Action     string `json:"action"`
	jwt.RegisteredClaims
}

// Ensure hmacLinkTokenService implements LinkTokenService interface
var _ LinkTokenService = (*hmacLinkTokenService)(nil)

// NewLinkTokenService creates a new link token service using HMAC-SHA256
// signing. Link tokens are long-lived (weeks, not minutes) because they ride
// in emails that recipients open at their own pace.
func NewLinkTokenService(cfg config.AuthConfig) (LinkTokenService, error) {
	if len(cfg.TokenSecret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 characters")
	}

	lifetimeDays := cfg.LinkLifetimeDays
	if lifetimeDays <= 0 {
		lifetimeDays = 30
	}

	return &hmacLinkTokenService{
		signingKey:    []byte(cfg.TokenSecret),
		tokenLifetime: time.Duration(lifetimeDays) * 24 * time.Hour,
		timeFunc:      time.Now,
		clockSkew:     2 * time.Minute,
	}, nil
}

// GenerateSubscriptionToken implements LinkTokenService.
func (s *hmacLinkTokenService) GenerateSubscriptionToken(ctx context.Context, email string, categoryID int, action LinkAction) (string, error) {
	if action != ActionSubscribe && action != ActionUnsubscribe {
		return "", fmt.Errorf("%w: %q is not a subscription action", ErrWrongAction, action)
	}
	return s.sign(ctx, email, categoryID, action)
}

// GenerateManageToken implements LinkTokenService.
func (s *hmacLinkTokenService) GenerateManageToken(ctx context.Context, email string) (string, error) {
	return s.sign(ctx, email, 0, ActionManage)
}

func (s *hmacLinkTokenService) sign(ctx context.Context, email string, categoryID int, action LinkAction) (string, error) {
	log := logger.FromContext(ctx)

	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}
	now := s.timeFunc()

	claims := linkCustomClaims{
		Email:      domain.NormalizeEmail(email),
		CategoryID: categoryID,
		Action:     string(action),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign link token",
			"error", err,
			"action", action,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign link token with HMAC-SHA256: %w", err)
	}

	return signedToken, nil
}

// ValidateToken implements LinkTokenService.
func (s *hmacLinkTokenService) ValidateToken(ctx context.Context, tokenString string) (*LinkClaims, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return nil, ErrMissingToken
	}
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&linkCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("link token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("link token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("link token validation failed", "error", err)
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*linkCustomClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	action := LinkAction(claims.Action)
	if !action.Valid() || claims.Email == "" {
		log.Debug("link token validation failed: malformed claims",
			"action", claims.Action)
		return nil, ErrInvalidToken
	}

	return &LinkClaims{
		Email:      claims.Email,
		CategoryID: claims.CategoryID,
		Action:     action,
	}, nil
}
