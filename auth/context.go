package auth

import (
	"context"

	"github.com/deep-dholariya/backend/models"
	"github.com/deep-dholariya/backend/utils"
)

type contextKey string

const (
	userKey    = contextKey("user")
	sessionKey = contextKey("session")
)

func WithCaller(ctx context.Context, user *models.User, claims *utils.SessionClaims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, claims)
}

// Caller returns the authenticated user, or nil outside the auth middleware.
func Caller(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

func SessionClaims(ctx context.Context) *utils.SessionClaims {
	claims, _ := ctx.Value(sessionKey).(*utils.SessionClaims)
	return claims
}
