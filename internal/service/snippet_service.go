// Package service contains business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

// Error variables
var (
	ErrSnippetNotFound = errors.New("snippet not found")
	ErrInvalidSnippet  = errors.New("invalid snippet")
)

// SnippetMeta holds metadata about a snippet fetch.
type SnippetMeta struct {
	CacheStatus domain.CacheStatus
}

// Service provides snippet-related business logic. Every method takes the
// requesting user explicitly.
type Service struct {
	store repository.Store
	clock Clock
	cache SnippetCache
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the read cache used for list and get.
func WithCache(c SnippetCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewService creates a new Service with the given Store and Clock.
func NewService(store repository.Store, clock Clock) *Service {
	return NewServiceWithOptions(store, clock)
}

// NewServiceWithOptions creates a Service and applies opts.
func NewServiceWithOptions(store repository.Store, clock Clock, opts ...Option) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	s := &Service{store: store, clock: clock, cache: NoopCache{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListSnippets returns one page of the user's snippets matching f.
func (s *Service) ListSnippets(ctx context.Context, userID int64, f domain.SnippetFilter) (domain.SnippetPage, SnippetMeta, error) {
	f = f.Normalize()
	page, status, err := s.cache.ListSnippets(ctx, userID, f, func(ctx context.Context) (domain.SnippetPage, error) {
		var p domain.SnippetPage
		err := s.store.WithinReadTx(ctx, func(tx repository.Store) error {
			var err error
			p, err = tx.Snippets().List(ctx, userID, f)
			return err
		})
		return p, err
	})
	meta := SnippetMeta{CacheStatus: status}
	if err != nil {
		return domain.SnippetPage{}, meta, fmt.Errorf("list snippets: %w", err)
	}
	return page, meta, nil
}

// GetSnippet returns the user's snippet with its tags.
func (s *Service) GetSnippet(ctx context.Context, userID, id int64) (domain.Snippet, SnippetMeta, error) {
	snippet, status, err := s.cache.GetSnippet(ctx, userID, id, func(ctx context.Context) (domain.Snippet, error) {
		var out domain.Snippet
		err := s.store.WithinReadTx(ctx, func(tx repository.Store) error {
			var err error
			out, err = tx.Snippets().FindByID(ctx, userID, id)
			return err
		})
		return out, err
	})
	meta := SnippetMeta{CacheStatus: status}
	if err != nil {
		// Only translate not found at the service boundary
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, meta, ErrSnippetNotFound
		}
		return domain.Snippet{}, meta, fmt.Errorf("find by id: %w", err)
	}
	return snippet, meta, nil
}

// CreateOrUpdate saves the snippet and, when tags are given, replaces its tag
// set, all in one transaction. An id the user does not own creates a new
// snippet. created reports whether a new snippet was stored.
func (s *Service) CreateOrUpdate(ctx context.Context, userID int64, id *int64, in domain.SnippetInput) (domain.Snippet, bool, error) {
	names := domain.NormalizeTagNames(in.Tags)
	// Fixed lock order so concurrent saves of overlapping tag sets cannot deadlock.
	slices.Sort(names)
	now := s.clock.Now()

	var (
		out      domain.Snippet
		created  bool
		newNames bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		saved, c, err := tx.Snippets().CreateOrUpdate(ctx, userID, id, in.Patch, now)
		if err != nil {
			return err
		}
		created = c
		if len(names) > 0 {
			ids := make([]int64, 0, len(names))
			for _, n := range names {
				tag, isNew, err := tx.Tags().FindOrCreateByName(ctx, n, now)
				if err != nil {
					return fmt.Errorf("find or create tag: %w", err)
				}
				newNames = newNames || isNew
				ids = append(ids, tag.ID)
			}
			if err := tx.Tags().SyncSnippetTags(ctx, saved.ID, ids); err != nil {
				return fmt.Errorf("sync tags: %w", err)
			}
		}
		out, err = tx.Snippets().FindByID(ctx, userID, saved.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrIncompleteSnippet) {
			return domain.Snippet{}, false, fmt.Errorf("%w: %w", ErrInvalidSnippet, err)
		}
		return domain.Snippet{}, false, fmt.Errorf("create or update snippet: %w", err)
	}

	s.invalidateUser(ctx, userID)
	if newNames {
		s.invalidateTags(ctx)
	}
	logger.With(ctx, map[string]any{"snippet_id": out.ID, "created": created, "tags": len(out.Tags)}).Info("snippet saved")
	return out, created, nil
}

// ToggleFavorite flips the favorite flag of the user's snippet.
func (s *Service) ToggleFavorite(ctx context.Context, userID, id int64) (domain.Snippet, error) {
	var out domain.Snippet
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		out, err = tx.Snippets().ToggleFavorite(ctx, userID, id, s.clock.Now())
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, ErrSnippetNotFound
		}
		return domain.Snippet{}, fmt.Errorf("toggle favorite: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return out, nil
}

// DeleteSnippet removes the user's snippet and its tag links.
func (s *Service) DeleteSnippet(ctx context.Context, userID, id int64) error {
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Snippets().Delete(ctx, userID, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSnippetNotFound
		}
		return fmt.Errorf("delete snippet: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *Service) invalidateUser(ctx context.Context, userID int64) {
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		logger.Warn(ctx, "cache invalidation for user %d failed: %v", userID, err)
	}
}

func (s *Service) invalidateTags(ctx context.Context) {
	if err := s.cache.InvalidateTags(ctx); err != nil {
		logger.Warn(ctx, "tag cache invalidation failed: %v", err)
	}
}
