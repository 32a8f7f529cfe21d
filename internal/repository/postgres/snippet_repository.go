package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
)

// SnippetRepository implements repository.SnippetRepository using Postgres.
type SnippetRepository struct {
	db   DBTX
	tags *TagRepository
}

// NewSnippetRepository creates a new Postgres-backed snippet repository.
func NewSnippetRepository(db DBTX) *SnippetRepository {
	return &SnippetRepository{db: db, tags: NewTagRepository(db)}
}

func scanSnippet(row pgx.Row) (domain.Snippet, error) {
	var s domain.Snippet
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Code, &s.Language, &s.IsFavorite, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snippet{}, repository.ErrNotFound
		}
		return domain.Snippet{}, err
	}
	s.Tags = []domain.Tag{}
	return s, nil
}

// List returns one page of ownerID's snippets matching f, with tags attached.
// Run it inside WithinReadTx so the count, page and tags see one snapshot.
func (r *SnippetRepository) List(ctx context.Context, ownerID int64, f domain.SnippetFilter) (domain.SnippetPage, error) {
	f = f.Normalize()

	sqlStr, args, err := snippetCountQuery(ownerID, f).ToSql()
	if err != nil {
		return domain.SnippetPage{}, fmt.Errorf("build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return domain.SnippetPage{}, fmt.Errorf("count snippets: %w", err)
	}

	sqlStr, args, err = snippetPageQuery(ownerID, f).ToSql()
	if err != nil {
		return domain.SnippetPage{}, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return domain.SnippetPage{}, fmt.Errorf("list snippets: %w", err)
	}
	defer rows.Close()
	items := make([]domain.Snippet, 0, f.PerPage)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return domain.SnippetPage{}, fmt.Errorf("scan snippet: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return domain.SnippetPage{}, fmt.Errorf("iterate snippets: %w", err)
	}
	rows.Close()

	if err := r.attachTags(ctx, items); err != nil {
		return domain.SnippetPage{}, err
	}
	return domain.NewSnippetPage(items, f.Page, f.PerPage, total), nil
}

func (r *SnippetRepository) attachTags(ctx context.Context, items []domain.Snippet) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	byID, err := r.tags.ForSnippets(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if ts, ok := byID[items[i].ID]; ok {
			items[i].Tags = ts
		}
	}
	return nil
}

// FindByID returns the snippet only when it exists and belongs to ownerID.
func (r *SnippetRepository) FindByID(ctx context.Context, ownerID, id int64) (domain.Snippet, error) {
	const q = `
SELECT s.id, s.user_id, s.title, s.description, s.code, s.language, s.is_favorite, s.created_at, s.updated_at
FROM snippets s
WHERE s.id = $1 AND s.user_id = $2
`
	s, err := scanSnippet(r.db.QueryRow(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, err
		}
		return domain.Snippet{}, fmt.Errorf("query snippet: %w", err)
	}
	one := []domain.Snippet{s}
	if err := r.attachTags(ctx, one); err != nil {
		return domain.Snippet{}, err
	}
	return one[0], nil
}

// Create inserts a new snippet owned by ownerID. The patch must be complete.
func (r *SnippetRepository) Create(ctx context.Context, ownerID int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	if !p.Complete() {
		return domain.Snippet{}, repository.ErrIncompleteSnippet
	}
	n := domain.NewSnippet(ownerID, p, now)
	const q = `
INSERT INTO snippets (user_id, title, description, code, language, is_favorite, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, title, description, code, language, is_favorite, created_at, updated_at
`
	s, err := scanSnippet(r.db.QueryRow(ctx, q, n.UserID, n.Title, n.Description, n.Code, n.Language, n.IsFavorite, n.CreatedAt, n.UpdatedAt))
	if err != nil {
		return domain.Snippet{}, fmt.Errorf("insert snippet: %w", err)
	}
	return s, nil
}

// Update applies the non-nil patch fields to an owned snippet.
func (r *SnippetRepository) Update(ctx context.Context, ownerID, id int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	sqlStr, args, err := snippetUpdateQuery(ownerID, id, p, now).ToSql()
	if err != nil {
		return domain.Snippet{}, fmt.Errorf("build update query: %w", err)
	}
	s, err := scanSnippet(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, err
		}
		return domain.Snippet{}, fmt.Errorf("update snippet: %w", err)
	}
	return s, nil
}

// CreateOrUpdate updates when id names an owned snippet and creates otherwise.
func (r *SnippetRepository) CreateOrUpdate(ctx context.Context, ownerID int64, id *int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, bool, error) {
	if id != nil {
		s, err := r.Update(ctx, ownerID, *id, p, now)
		if err == nil {
			return s, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, false, err
		}
	}
	s, err := r.Create(ctx, ownerID, p, now)
	if err != nil {
		return domain.Snippet{}, false, err
	}
	return s, true, nil
}

// Delete removes an owned snippet. Associations go with it via ON DELETE CASCADE.
func (r *SnippetRepository) Delete(ctx context.Context, ownerID, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM snippets WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ToggleFavorite flips is_favorite on an owned snippet in one statement.
func (r *SnippetRepository) ToggleFavorite(ctx context.Context, ownerID, id int64, now time.Time) (domain.Snippet, error) {
	const q = `
UPDATE snippets SET is_favorite = NOT is_favorite, updated_at = $3
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, title, description, code, language, is_favorite, created_at, updated_at
`
	s, err := scanSnippet(r.db.QueryRow(ctx, q, id, ownerID, now))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, err
		}
		return domain.Snippet{}, fmt.Errorf("toggle favorite: %w", err)
	}
	one := []domain.Snippet{s}
	if err := r.attachTags(ctx, one); err != nil {
		return domain.Snippet{}, err
	}
	return one[0], nil
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)
