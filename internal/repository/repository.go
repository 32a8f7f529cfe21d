// Package repository defines the storage contracts used by the service layer.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/roguepikachu/snipsnap/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the requester.
	ErrNotFound = errors.New("not found")
	// ErrNotAttached is returned when a tag exists but is not on any of the requester's snippets.
	ErrNotAttached = errors.New("tag not attached to any of your snippets")
	// ErrTagNameTaken is returned when a rename collides with an existing tag name.
	ErrTagNameTaken = errors.New("tag name already taken")
	// ErrIncompleteSnippet is returned when a create lacks title, code or language.
	ErrIncompleteSnippet = errors.New("title, code and language are required")
)

// SnippetRepository is the owner-scoped snippet store. Every method filters on ownerID.
type SnippetRepository interface {
	List(ctx context.Context, ownerID int64, f domain.SnippetFilter) (domain.SnippetPage, error)
	FindByID(ctx context.Context, ownerID, id int64) (domain.Snippet, error)
	Create(ctx context.Context, ownerID int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error)
	Update(ctx context.Context, ownerID, id int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error)
	// CreateOrUpdate updates the snippet when id names one the owner has and
	// creates a new one otherwise. created reports which happened.
	CreateOrUpdate(ctx context.Context, ownerID int64, id *int64, p domain.SnippetPatch, now time.Time) (s domain.Snippet, created bool, err error)
	Delete(ctx context.Context, ownerID, id int64) error
	ToggleFavorite(ctx context.Context, ownerID, id int64, now time.Time) (domain.Snippet, error)
}

// TagRepository manages the global tag vocabulary and its links to snippets.
type TagRepository interface {
	List(ctx context.Context, ownerID int64, f domain.TagFilter) ([]domain.Tag, error)
	FindByID(ctx context.Context, ownerID, id int64) (domain.Tag, error)
	FindOrCreateByName(ctx context.Context, name string, now time.Time) (t domain.Tag, created bool, err error)
	// SyncSnippetTags replaces the snippet's associations with exactly tagIDs.
	SyncSnippetTags(ctx context.Context, snippetID int64, tagIDs []int64) error
	ForSnippets(ctx context.Context, snippetIDs []int64) (map[int64][]domain.Tag, error)
	Rename(ctx context.Context, ownerID, id int64, name string, now time.Time) (domain.Tag, error)
	Delete(ctx context.Context, ownerID, id int64) (domain.TagRemoval, error)
}

// Store hands out repositories and runs units of work against them.
type Store interface {
	Snippets() SnippetRepository
	Tags() TagRepository
	// WithinTx runs fn in a read-write transaction, committing when fn returns nil.
	WithinTx(ctx context.Context, fn func(Store) error) error
	// WithinReadTx runs fn in a repeatable-read, read-only transaction.
	WithinReadTx(ctx context.Context, fn func(Store) error) error
}
