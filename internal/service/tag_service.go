package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

var (
	ErrTagNotFound  = errors.New("tag not found")
	ErrTagForbidden = errors.New("tag is not used by any of your snippets")
	ErrTagNameTaken = errors.New("tag name already taken")
	ErrTagShared    = errors.New("cannot delete tag used by other users; removed from your snippets")
	ErrInvalidTag   = errors.New("invalid tag name")
)

// TagService manages the shared tag vocabulary on behalf of a user. A user
// may only see or rename tags attached to at least one of their snippets.
type TagService struct {
	store         repository.Store
	clock         Clock
	cache         SnippetCache
	hideForbidden bool
}

// TagOption configures a TagService.
type TagOption func(*TagService)

// WithHideForbiddenTags reports unattached tags as not found instead of forbidden.
func WithHideForbiddenTags(hide bool) TagOption {
	return func(s *TagService) { s.hideForbidden = hide }
}

// WithTagCache sets the cache whose tag generation is bumped on tag changes.
func WithTagCache(c SnippetCache) TagOption {
	return func(s *TagService) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewTagService creates a TagService over store.
func NewTagService(store repository.Store, clock Clock, opts ...TagOption) *TagService {
	if clock == nil {
		clock = RealClock{}
	}
	s := &TagService{store: store, clock: clock, cache: NoopCache{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TagService) mapErr(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTagNotFound
	case errors.Is(err, repository.ErrNotAttached):
		if s.hideForbidden {
			return ErrTagNotFound
		}
		return ErrTagForbidden
	case errors.Is(err, repository.ErrTagNameTaken):
		return ErrTagNameTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ListTags returns the tags on the user's snippets with per-user counts.
func (s *TagService) ListTags(ctx context.Context, userID int64, f domain.TagFilter) ([]domain.Tag, error) {
	var out []domain.Tag
	err := s.store.WithinReadTx(ctx, func(tx repository.Store) error {
		var err error
		out, err = tx.Tags().List(ctx, userID, f.Normalize())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

// GetTag returns one tag visible to the user.
func (s *TagService) GetTag(ctx context.Context, userID, id int64) (domain.Tag, error) {
	var out domain.Tag
	err := s.store.WithinReadTx(ctx, func(tx repository.Store) error {
		var err error
		out, err = tx.Tags().FindByID(ctx, userID, id)
		return err
	})
	if err != nil {
		return domain.Tag{}, s.mapErr(err, "get tag")
	}
	return out, nil
}

// CreateTag returns the tag called name, creating it when it does not exist.
func (s *TagService) CreateTag(ctx context.Context, name string) (domain.Tag, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, false, ErrInvalidTag
	}
	var (
		out     domain.Tag
		created bool
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		out, created, err = tx.Tags().FindOrCreateByName(ctx, name, s.clock.Now())
		return err
	})
	if err != nil {
		return domain.Tag{}, false, fmt.Errorf("create tag: %w", err)
	}
	return out, created, nil
}

// RenameTag renames the tag for every user.
func (s *TagService) RenameTag(ctx context.Context, userID, id int64, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, ErrInvalidTag
	}
	var out domain.Tag
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		out, err = tx.Tags().Rename(ctx, userID, id, name, s.clock.Now())
		return err
	})
	if err != nil {
		return domain.Tag{}, s.mapErr(err, "rename tag")
	}
	s.invalidateTags(ctx)
	return out, nil
}

// DeleteTag detaches the tag from the user's snippets and deletes it when no
// other user still uses it. A shared tag yields TagShared with ErrTagShared;
// the user's own links are removed in that case too.
func (s *TagService) DeleteTag(ctx context.Context, userID, id int64) (domain.TagRemoval, error) {
	var removal domain.TagRemoval
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		removal, err = tx.Tags().Delete(ctx, userID, id)
		return err
	})
	if err != nil {
		return "", s.mapErr(err, "delete tag")
	}
	s.invalidateTags(ctx)
	logger.With(ctx, map[string]any{"tag_id": id, "removal": removal}).Info("tag removed")
	if removal == domain.TagShared {
		return removal, ErrTagShared
	}
	return removal, nil
}

func (s *TagService) invalidateTags(ctx context.Context) {
	if err := s.cache.InvalidateTags(ctx); err != nil {
		logger.Warn(ctx, "tag cache invalidation failed: %v", err)
	}
}
