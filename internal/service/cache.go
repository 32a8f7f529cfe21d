package service

import (
	"context"

	"github.com/roguepikachu/snipsnap/internal/domain"
)

// SnippetCache is a read-through cache for snippet reads scoped per user.
type SnippetCache interface {
	GetSnippet(ctx context.Context, userID, id int64, load func(context.Context) (domain.Snippet, error)) (domain.Snippet, domain.CacheStatus, error)
	ListSnippets(ctx context.Context, userID int64, f domain.SnippetFilter, load func(context.Context) (domain.SnippetPage, error)) (domain.SnippetPage, domain.CacheStatus, error)
	InvalidateUser(ctx context.Context, userID int64) error
	InvalidateTags(ctx context.Context) error
}

// NoopCache always loads from the store.
type NoopCache struct{}

func (NoopCache) GetSnippet(ctx context.Context, _, _ int64, load func(context.Context) (domain.Snippet, error)) (domain.Snippet, domain.CacheStatus, error) {
	s, err := load(ctx)
	return s, domain.CacheDisabled, err
}

func (NoopCache) ListSnippets(ctx context.Context, _ int64, _ domain.SnippetFilter, load func(context.Context) (domain.SnippetPage, error)) (domain.SnippetPage, domain.CacheStatus, error) {
	p, err := load(ctx)
	return p, domain.CacheDisabled, err
}

func (NoopCache) InvalidateUser(context.Context, int64) error { return nil }

func (NoopCache) InvalidateTags(context.Context) error { return nil }
