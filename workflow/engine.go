// Package workflow implements the marketplace operations: accounts, listing
// moderation and contact requests, with their status machines and cascades.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deep-dholariya/backend/apperr"
	"github.com/deep-dholariya/backend/cache"
	"github.com/deep-dholariya/backend/store"
)

type Engine struct {
	store         store.Store
	listings      cache.Listings
	logger        *slog.Logger
	passwordReset bool
}

type Option func(*Engine)

func WithListingCache(listings cache.Listings) Option {
	return func(e *Engine) {
		if listings != nil {
			e.listings = listings
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPasswordReset toggles the identifier-only password reset.
func WithPasswordReset(enabled bool) Option {
	return func(e *Engine) {
		e.passwordReset = enabled
	}
}

func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		listings:      cache.NoopListings{},
		logger:        slog.Default(),
		passwordReset: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() store.Store {
	return e.store
}

// fail passes domain errors through and wraps everything else as unexpected.
func fail(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Unexpected(fmt.Errorf("%s: %w", op, err))
}

// notFound maps store.ErrNotFound to a NotFound error with message.
func notFound(op, message string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(message)
	}
	return fail(op, err)
}

func (e *Engine) invalidateListings(ctx context.Context) {
	e.listings.Invalidate(ctx)
}
