package domain

import "strings"

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Snippet sort fields.
const (
	SortCreatedAt  = "created_at"
	SortUpdatedAt  = "updated_at"
	SortTitle      = "title"
	SortLanguage   = "language"
	SortIsFavorite = "is_favorite"
)

// Tag sort fields.
const (
	SortTagName          = "name"
	SortTagSnippetsCount = "snippets_count"
	SortTagCreatedAt     = "created_at"
)

// TagMatch selects how SnippetFilter.Tag is compared against tag names.
type TagMatch string

const (
	TagMatchContains TagMatch = "contains"
	TagMatchExact    TagMatch = "exact"
)

// Pagination defaults and limits.
const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
)

var snippetSortFields = map[string]bool{
	SortCreatedAt:  true,
	SortUpdatedAt:  true,
	SortTitle:      true,
	SortLanguage:   true,
	SortIsFavorite: true,
}

var tagSortFields = map[string]bool{
	SortTagName:          true,
	SortTagSnippetsCount: true,
	SortTagCreatedAt:     true,
}

// SnippetFilter narrows and orders a listing of one user's snippets.
// Zero values mean "no constraint".
type SnippetFilter struct {
	Search     string
	Language   string
	IsFavorite *bool
	Tag        string
	TagMatch   TagMatch
	Sort       string
	Direction  string
	Page       int
	PerPage    int
}

// Normalize returns a copy with defaults applied and unknown values replaced.
func (f SnippetFilter) Normalize() SnippetFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Tag = strings.TrimSpace(f.Tag)
	if !snippetSortFields[f.Sort] {
		f.Sort = SortCreatedAt
	}
	f.Direction = normalizeDirection(f.Direction, SortDesc)
	if f.TagMatch != TagMatchExact {
		f.TagMatch = TagMatchContains
	}
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f SnippetFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// TagFilter narrows and orders a listing of one user's tags.
type TagFilter struct {
	Search    string
	Sort      string
	Direction string
}

// Normalize applies the tag listing defaults: name ascending when no sort is
// given, descending when a sort is given without a direction.
func (f TagFilter) Normalize() TagFilter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Sort == "" || !tagSortFields[f.Sort] {
		f.Sort = SortTagName
		f.Direction = normalizeDirection(f.Direction, SortAsc)
		return f
	}
	f.Direction = normalizeDirection(f.Direction, SortDesc)
	return f
}

func normalizeDirection(dir, fallback string) string {
	switch strings.ToLower(dir) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	}
	return fallback
}
