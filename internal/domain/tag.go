package domain

import (
	"strings"
	"time"
)

// Tag is a name in the vocabulary shared by all users.
type Tag struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SnippetsCount int       `json:"snippets_count,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TagRemoval reports what a tag delete request ended up doing.
type TagRemoval string

const (
	// TagDeleted means the tag row itself was removed.
	TagDeleted TagRemoval = "deleted"
	// TagShared means other users still use the tag; only the requester's associations were removed.
	TagShared TagRemoval = "shared"
)

// NormalizeTagNames trims names, drops empties and collapses duplicates keeping first-seen order.
func NormalizeTagNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
