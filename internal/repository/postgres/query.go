package postgres

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/roguepikachu/snipsnap/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const snippetColumns = "s.id, s.user_id, s.title, s.description, s.code, s.language, s.is_favorite, s.created_at, s.updated_at"

// tagExists opens an EXISTS over the tags attached to the outer snippet s.
const tagExists = "EXISTS (SELECT 1 FROM snippet_tags st JOIN tags t ON t.id = st.tag_id WHERE st.snippet_id = s.id AND "

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns term into an ILIKE substring pattern with wildcards escaped.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// snippetConditions builds the WHERE clause for a normalized filter. The
// owner predicate is always the first conjunct.
func snippetConditions(ownerID int64, f domain.SnippetFilter) sq.And {
	conds := sq.And{sq.Eq{"s.user_id": ownerID}}
	if f.Search != "" {
		p := containsPattern(f.Search)
		conds = append(conds, sq.Or{
			sq.ILike{"s.title": p},
			sq.ILike{"s.description": p},
			sq.ILike{"s.code": p},
			sq.ILike{"s.language": p},
			sq.Expr(tagExists+"t.name ILIKE ?)", p),
		})
	}
	if f.Language != "" {
		conds = append(conds, sq.Eq{"s.language": f.Language})
	}
	if f.IsFavorite != nil {
		conds = append(conds, sq.Eq{"s.is_favorite": *f.IsFavorite})
	}
	if f.Tag != "" {
		if f.TagMatch == domain.TagMatchExact {
			conds = append(conds, sq.Expr(tagExists+"t.name = ?)", f.Tag))
		} else {
			conds = append(conds, sq.Expr(tagExists+"t.name ILIKE ?)", containsPattern(f.Tag)))
		}
	}
	return conds
}

func snippetPageQuery(ownerID int64, f domain.SnippetFilter) sq.SelectBuilder {
	dir := strings.ToUpper(f.Direction)
	return psql.Select(snippetColumns).
		From("snippets s").
		Where(snippetConditions(ownerID, f)).
		OrderBy("s."+f.Sort+" "+dir, "s.id "+dir).
		Limit(uint64(f.PerPage)).
		Offset(uint64(f.Offset()))
}

func snippetCountQuery(ownerID int64, f domain.SnippetFilter) sq.SelectBuilder {
	return psql.Select("COUNT(*)").
		From("snippets s").
		Where(snippetConditions(ownerID, f))
}

// snippetUpdateQuery sets the non-nil patch fields and always bumps updated_at.
func snippetUpdateQuery(ownerID, id int64, p domain.SnippetPatch, now time.Time) sq.UpdateBuilder {
	q := psql.Update("snippets").Set("updated_at", now)
	if p.Title != nil {
		q = q.Set("title", *p.Title)
	}
	if p.Description != nil {
		q = q.Set("description", *p.Description)
	}
	if p.Code != nil {
		q = q.Set("code", *p.Code)
	}
	if p.Language != nil {
		q = q.Set("language", *p.Language)
	}
	if p.IsFavorite != nil {
		q = q.Set("is_favorite", *p.IsFavorite)
	}
	return q.Where(sq.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING id, user_id, title, description, code, language, is_favorite, created_at, updated_at")
}

var tagOrderColumns = map[string]string{
	domain.SortTagName:          "t.name",
	domain.SortTagSnippetsCount: "snippets_count",
	domain.SortTagCreatedAt:     "t.created_at",
}

// tagListQuery selects the tags on ownerID's snippets with per-owner counts.
func tagListQuery(ownerID int64, f domain.TagFilter) sq.SelectBuilder {
	q := psql.Select("t.id", "t.name", "COUNT(st.snippet_id) AS snippets_count", "t.created_at", "t.updated_at").
		From("tags t").
		Join("snippet_tags st ON st.tag_id = t.id").
		Join("snippets s ON s.id = st.snippet_id").
		Where(sq.Eq{"s.user_id": ownerID})
	if f.Search != "" {
		q = q.Where(sq.ILike{"t.name": containsPattern(f.Search)})
	}
	col, ok := tagOrderColumns[f.Sort]
	if !ok {
		col = "t.name"
	}
	dir := strings.ToUpper(f.Direction)
	return q.GroupBy("t.id").OrderBy(col+" "+dir, "t.id "+dir)
}
