package fake

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
)

// SnippetRepository is an in-memory fake implementing repository.SnippetRepository.
type SnippetRepository struct {
	sh *shared
}

func (d *state) tagsFor(snippetID int64) []domain.Tag {
	out := []domain.Tag{}
	for tid := range d.links[snippetID] {
		t := d.tags[tid]
		t.SnippetsCount = 0
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (d *state) withTags(s domain.Snippet) domain.Snippet {
	s.Tags = d.tagsFor(s.ID)
	return s
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (d *state) matches(ownerID int64, s domain.Snippet, f domain.SnippetFilter) bool {
	if s.UserID != ownerID {
		return false
	}
	if f.Search != "" {
		hit := containsFold(s.Title, f.Search) || containsFold(s.Code, f.Search) || containsFold(s.Language, f.Search)
		if !hit && s.Description != nil {
			hit = containsFold(*s.Description, f.Search)
		}
		if !hit {
			for _, t := range d.tagsFor(s.ID) {
				if containsFold(t.Name, f.Search) {
					hit = true
					break
				}
			}
		}
		if !hit {
			return false
		}
	}
	if f.Language != "" && s.Language != f.Language {
		return false
	}
	if f.IsFavorite != nil && s.IsFavorite != *f.IsFavorite {
		return false
	}
	if f.Tag != "" {
		found := false
		for _, t := range d.tagsFor(s.ID) {
			if (f.TagMatch == domain.TagMatchExact && t.Name == f.Tag) ||
				(f.TagMatch != domain.TagMatchExact && containsFold(t.Name, f.Tag)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// compareSnippets orders a before b on field, returning -1, 0 or 1.
func compareSnippets(a, b domain.Snippet, field string) int {
	switch field {
	case domain.SortTitle:
		return strings.Compare(a.Title, b.Title)
	case domain.SortLanguage:
		return strings.Compare(a.Language, b.Language)
	case domain.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case domain.SortIsFavorite:
		switch {
		case a.IsFavorite == b.IsFavorite:
			return 0
		case b.IsFavorite:
			return -1
		}
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func (r *SnippetRepository) List(_ context.Context, ownerID int64, f domain.SnippetFilter) (domain.SnippetPage, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Snippets.List"); err != nil {
		return domain.SnippetPage{}, err
	}
	f = f.Normalize()
	d := r.sh.data
	items := make([]domain.Snippet, 0)
	for _, s := range d.snippets {
		if d.matches(ownerID, s, f) {
			items = append(items, s)
		}
	}
	desc := f.Direction == domain.SortDesc
	sort.Slice(items, func(i, j int) bool {
		c := compareSnippets(items[i], items[j], f.Sort)
		if c == 0 {
			c = compareInt64(items[i].ID, items[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	total := len(items)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	page := make([]domain.Snippet, 0, end-start)
	for _, s := range items[start:end] {
		page = append(page, d.withTags(s))
	}
	return domain.NewSnippetPage(page, f.Page, f.PerPage, total), nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (r *SnippetRepository) FindByID(_ context.Context, ownerID, id int64) (domain.Snippet, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Snippets.FindByID"); err != nil {
		return domain.Snippet{}, err
	}
	s, ok := r.sh.data.snippets[id]
	if !ok || s.UserID != ownerID {
		return domain.Snippet{}, repository.ErrNotFound
	}
	return r.sh.data.withTags(s), nil
}

func (r *SnippetRepository) create(ownerID int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	if err := r.sh.fail("Snippets.Create"); err != nil {
		return domain.Snippet{}, err
	}
	if !p.Complete() {
		return domain.Snippet{}, repository.ErrIncompleteSnippet
	}
	d := r.sh.data
	d.nextSnippetID++
	s := domain.NewSnippet(ownerID, p, now)
	s.ID = d.nextSnippetID
	d.snippets[s.ID] = s
	s.Tags = []domain.Tag{}
	return s, nil
}

func (r *SnippetRepository) update(ownerID, id int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	if err := r.sh.fail("Snippets.Update"); err != nil {
		return domain.Snippet{}, err
	}
	s, ok := r.sh.data.snippets[id]
	if !ok || s.UserID != ownerID {
		return domain.Snippet{}, repository.ErrNotFound
	}
	p.Apply(&s)
	s.UpdatedAt = now
	r.sh.data.snippets[id] = s
	s.Tags = []domain.Tag{}
	return s, nil
}

func (r *SnippetRepository) Create(_ context.Context, ownerID int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	return r.create(ownerID, p, now)
}

func (r *SnippetRepository) Update(_ context.Context, ownerID, id int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	return r.update(ownerID, id, p, now)
}

func (r *SnippetRepository) CreateOrUpdate(_ context.Context, ownerID int64, id *int64, p domain.SnippetPatch, now time.Time) (domain.Snippet, bool, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if id != nil {
		s, err := r.update(ownerID, *id, p, now)
		if err == nil {
			return s, false, nil
		}
		if err != repository.ErrNotFound {
			return domain.Snippet{}, false, err
		}
	}
	s, err := r.create(ownerID, p, now)
	if err != nil {
		return domain.Snippet{}, false, err
	}
	return s, true, nil
}

func (r *SnippetRepository) Delete(_ context.Context, ownerID, id int64) error {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Snippets.Delete"); err != nil {
		return err
	}
	s, ok := r.sh.data.snippets[id]
	if !ok || s.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(r.sh.data.snippets, id)
	delete(r.sh.data.links, id)
	return nil
}

func (r *SnippetRepository) ToggleFavorite(_ context.Context, ownerID, id int64, now time.Time) (domain.Snippet, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Snippets.ToggleFavorite"); err != nil {
		return domain.Snippet{}, err
	}
	s, ok := r.sh.data.snippets[id]
	if !ok || s.UserID != ownerID {
		return domain.Snippet{}, repository.ErrNotFound
	}
	s.IsFavorite = !s.IsFavorite
	s.UpdatedAt = now
	r.sh.data.snippets[id] = s
	return r.sh.data.withTags(s), nil
}

var _ repository.SnippetRepository = (*SnippetRepository)(nil)
