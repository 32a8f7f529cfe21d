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

// findOrCreateAttempts bounds the insert/fetch loop when a concurrent delete
// removes the row between the two statements.
const findOrCreateAttempts = 3

// TagRepository implements repository.TagRepository using Postgres.
type TagRepository struct {
	db DBTX
}

// NewTagRepository creates a new Postgres-backed tag repository.
func NewTagRepository(db DBTX) *TagRepository {
	return &TagRepository{db: db}
}

// List returns the tags attached to at least one of ownerID's snippets.
func (r *TagRepository) List(ctx context.Context, ownerID int64, f domain.TagFilter) ([]domain.Tag, error) {
	f = f.Normalize()
	sqlStr, args, err := tagListQuery(ownerID, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tag list query: %w", err)
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	res := []domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.SnippetsCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return res, nil
}

func (r *TagRepository) findWithCount(ctx context.Context, ownerID, id int64, lock bool) (domain.Tag, error) {
	q := `
SELECT t.id, t.name, t.created_at, t.updated_at,
    (SELECT COUNT(*) FROM snippet_tags st JOIN snippets s ON s.id = st.snippet_id
     WHERE st.tag_id = t.id AND s.user_id = $2)
FROM tags t
WHERE t.id = $1
`
	if lock {
		q += "FOR UPDATE OF t"
	}
	var t domain.Tag
	err := r.db.QueryRow(ctx, q, id, ownerID).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &t.SnippetsCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, repository.ErrNotFound
		}
		return domain.Tag{}, fmt.Errorf("query tag: %w", err)
	}
	return t, nil
}

// FindByID returns the tag with ownerID's snippet count. A tag ownerID has no
// snippets with yields ErrNotAttached.
func (r *TagRepository) FindByID(ctx context.Context, ownerID, id int64) (domain.Tag, error) {
	t, err := r.findWithCount(ctx, ownerID, id, false)
	if err != nil {
		return domain.Tag{}, err
	}
	if t.SnippetsCount == 0 {
		return domain.Tag{}, repository.ErrNotAttached
	}
	return t, nil
}

// FindOrCreateByName returns the tag named name, inserting it first if needed.
func (r *TagRepository) FindOrCreateByName(ctx context.Context, name string, now time.Time) (domain.Tag, bool, error) {
	const insert = `
INSERT INTO tags (name, created_at, updated_at) VALUES ($1, $2, $2)
ON CONFLICT (name) DO NOTHING
RETURNING id, name, created_at, updated_at
`
	const fetch = `SELECT id, name, created_at, updated_at FROM tags WHERE name = $1`
	for i := 0; i < findOrCreateAttempts; i++ {
		var t domain.Tag
		err := r.db.QueryRow(ctx, insert, name, now).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
		if err == nil {
			return t, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, false, fmt.Errorf("insert tag: %w", err)
		}
		err = r.db.QueryRow(ctx, fetch, name).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
		if err == nil {
			return t, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Tag{}, false, fmt.Errorf("fetch tag: %w", err)
		}
	}
	return domain.Tag{}, false, fmt.Errorf("find or create tag %q: gave up after %d attempts", name, findOrCreateAttempts)
}

// SyncSnippetTags makes the snippet's associations exactly tagIDs.
func (r *TagRepository) SyncSnippetTags(ctx context.Context, snippetID int64, tagIDs []int64) error {
	ids := uniqueIDs(tagIDs)
	if _, err := r.db.Exec(ctx, `DELETE FROM snippet_tags WHERE snippet_id = $1 AND NOT (tag_id = ANY($2))`, snippetID, ids); err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	const attach = `
INSERT INTO snippet_tags (snippet_id, tag_id)
SELECT $1::bigint, unnest($2::bigint[])
ON CONFLICT DO NOTHING
`
	if _, err := r.db.Exec(ctx, attach, snippetID, ids); err != nil {
		return fmt.Errorf("attach tags: %w", err)
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ForSnippets loads the tags of every listed snippet, ordered by name.
func (r *TagRepository) ForSnippets(ctx context.Context, snippetIDs []int64) (map[int64][]domain.Tag, error) {
	res := make(map[int64][]domain.Tag, len(snippetIDs))
	if len(snippetIDs) == 0 {
		return res, nil
	}
	sqlStr, args, err := psql.Select("st.snippet_id", "t.id", "t.name", "t.created_at", "t.updated_at").
		From("snippet_tags st").
		Join("tags t ON t.id = st.tag_id").
		Where("st.snippet_id = ANY(?)", snippetIDs).
		OrderBy("t.name ASC", "t.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build snippet tags query: %w", err)
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("load snippet tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sid int64
		var t domain.Tag
		if err := rows.Scan(&sid, &t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan snippet tag: %w", err)
		}
		res[sid] = append(res[sid], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snippet tags: %w", err)
	}
	return res, nil
}

// Rename changes the tag's name for everyone. Only users with a snippet
// carrying the tag may rename it.
func (r *TagRepository) Rename(ctx context.Context, ownerID, id int64, name string, now time.Time) (domain.Tag, error) {
	t, err := r.findWithCount(ctx, ownerID, id, true)
	if err != nil {
		return domain.Tag{}, err
	}
	if t.SnippetsCount == 0 {
		return domain.Tag{}, repository.ErrNotAttached
	}
	err = r.db.QueryRow(ctx, `UPDATE tags SET name = $1, updated_at = $2 WHERE id = $3 RETURNING name, updated_at`, name, now, id).
		Scan(&t.Name, &t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Tag{}, repository.ErrTagNameTaken
		}
		return domain.Tag{}, fmt.Errorf("rename tag: %w", err)
	}
	return t, nil
}

// Delete detaches the tag from ownerID's snippets and removes the row when
// nobody else uses it. Must run inside a transaction for the row lock to hold.
func (r *TagRepository) Delete(ctx context.Context, ownerID, id int64) (domain.TagRemoval, error) {
	if _, err := r.findWithCount(ctx, ownerID, id, true); err != nil {
		return "", err
	}
	var shared bool
	const others = `
SELECT EXISTS (
    SELECT 1 FROM snippet_tags st JOIN snippets s ON s.id = st.snippet_id
    WHERE st.tag_id = $1 AND s.user_id <> $2
)
`
	if err := r.db.QueryRow(ctx, others, id, ownerID).Scan(&shared); err != nil {
		return "", fmt.Errorf("check tag usage: %w", err)
	}
	const detach = `
DELETE FROM snippet_tags st USING snippets s
WHERE st.snippet_id = s.id AND st.tag_id = $1 AND s.user_id = $2
`
	if _, err := r.db.Exec(ctx, detach, id, ownerID); err != nil {
		return "", fmt.Errorf("detach tag: %w", err)
	}
	if shared {
		return domain.TagShared, nil
	}
	// The row lock blocks new links (FK inserts take KEY SHARE), so no other
	// user can have attached it since the usage check.
	if _, err := r.db.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id); err != nil {
		return "", fmt.Errorf("delete tag: %w", err)
	}
	return domain.TagDeleted, nil
}

var _ repository.TagRepository = (*TagRepository)(nil)
