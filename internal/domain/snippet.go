// Package domain contains domain models for the application.
package domain

import "time"

// Snippet is a code fragment owned by exactly one user.
type Snippet struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	IsFavorite  bool      `json:"is_favorite"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnippetPatch lists the fields a write may set. A nil field is left unchanged.
type SnippetPatch struct {
	Title       *string
	Description *string
	Code        *string
	Language    *string
	IsFavorite  *bool
}

// Empty reports whether the patch changes nothing.
func (p SnippetPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Code == nil && p.Language == nil && p.IsFavorite == nil
}

// Complete reports whether the patch carries every field a new snippet needs.
func (p SnippetPatch) Complete() bool {
	return p.Title != nil && p.Code != nil && p.Language != nil
}

// Apply copies the non-nil fields of p onto s.
func (p SnippetPatch) Apply(s *Snippet) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		d := *p.Description
		s.Description = &d
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.IsFavorite != nil {
		s.IsFavorite = *p.IsFavorite
	}
}

// NewSnippet builds an unsaved snippet owned by userID from a complete patch.
func NewSnippet(userID int64, p SnippetPatch, now time.Time) Snippet {
	s := Snippet{UserID: userID, CreatedAt: now, UpdatedAt: now}
	p.Apply(&s)
	return s
}

// SnippetInput is a validated create-or-update request.
// Tags nil or empty leaves the existing associations untouched.
type SnippetInput struct {
	Patch SnippetPatch
	Tags  []string
}

// SnippetPage is one page of a filtered listing.
type SnippetPage struct {
	Items       []Snippet `json:"items"`
	CurrentPage int       `json:"current_page"`
	LastPage    int       `json:"last_page"`
	PerPage     int       `json:"per_page"`
	Total       int       `json:"total"`
}

// NewSnippetPage computes the page bookkeeping for total matching rows.
func NewSnippetPage(items []Snippet, page, perPage, total int) SnippetPage {
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	if items == nil {
		items = []Snippet{}
	}
	return SnippetPage{Items: items, CurrentPage: page, LastPage: last, PerPage: perPage, Total: total}
}

// CacheStatus is a typed cache status string.
type CacheStatus string

const (
	CacheMiss     CacheStatus = "MISS"
	CacheHit      CacheStatus = "HIT"
	CacheDisabled CacheStatus = "BYPASS"
)
