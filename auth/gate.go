package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/cache"
	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/utils"
)

// Session is an issued credential.
type Session struct {
	Token  string
	Claims *utils.SessionClaims
}

type Gate struct {
	signer      *utils.SessionSigner
	revocations cache.Revocations
	users       store.Users
	logger      *slog.Logger
}

func NewGate(signer *utils.SessionSigner, revocations cache.Revocations, users store.Users, logger *slog.Logger) *Gate {
	if revocations == nil {
		revocations = cache.NewMemoryRevocations()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{signer: signer, revocations: revocations, users: users, logger: logger}
}

func (g *Gate) SessionTTL() int {
	return int(g.signer.TTL().Seconds())
}

func (g *Gate) Issue(user *models.User) (*Session, error) {
	token, claims, err := g.signer.GenerateJWT(user.ID)
	if err != nil {
		return nil, apperr.Unexpected(fmt.Errorf("signing session token: %w", err))
	}
	return &Session{Token: token, Claims: claims}, nil
}

// Resolve maps a credential to the current user. Every failure other than a
// store outage is Unauthenticated.
func (g *Gate) Resolve(ctx context.Context, token string) (*models.User, *utils.SessionClaims, error) {
	if token == "" {
		return nil, nil, apperr.Unauthenticated("Not authenticated")
	}
	claims, err := g.signer.ValidateJWT(token)
	if err != nil {
		g.logger.Debug("rejected session token", "error", err)
		return nil, nil, apperr.Unauthenticated("Invalid token")
	}

	revoked, err := g.revocations.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, nil, apperr.Unexpected(fmt.Errorf("checking session revocation: %w", err))
	}
	if revoked {
		return nil, nil, apperr.Unauthenticated("Session has been signed out")
	}

	user, err := g.users.GetUser(ctx, claims.UserID())
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.Unauthenticated("User not found")
	}
	if err != nil {
		return nil, nil, apperr.Unexpected(fmt.Errorf("loading session user: %w", err))
	}
	return user, claims, nil
}

// Revoke signs a session out until it would have expired anyway.
func (g *Gate) Revoke(ctx context.Context, claims *utils.SessionClaims) error {
	if claims == nil {
		return nil
	}
	if err := g.revocations.Revoke(ctx, claims.Id, claims.Expiry()); err != nil {
		return apperr.Unexpected(fmt.Errorf("revoking session: %w", err))
	}
	return nil
}

// RevokeToken revokes a raw credential if it is still valid. Invalid or
// expired tokens need no revocation.
func (g *Gate) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := g.signer.ValidateJWT(token)
	if err != nil {
		return nil
	}
	return g.Revoke(ctx, claims)
}
