package fake

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
)

// TagRepository is an in-memory fake implementing repository.TagRepository.
type TagRepository struct {
	sh *shared
}

func (d *state) findOrCreate(name string, now time.Time) (domain.Tag, bool) {
	for _, t := range d.tags {
		if t.Name == name {
			return t, false
		}
	}
	d.nextTagID++
	t := domain.Tag{ID: d.nextTagID, Name: name, CreatedAt: now, UpdatedAt: now}
	d.tags[t.ID] = t
	return t, true
}

func (d *state) attach(snippetID, tagID int64) {
	set, ok := d.links[snippetID]
	if !ok {
		set = make(map[int64]struct{})
		d.links[snippetID] = set
	}
	set[tagID] = struct{}{}
}

// usage counts snippets carrying tagID, split by whether ownerID owns them.
func (d *state) usage(ownerID, tagID int64) (mine, others int) {
	for sid, set := range d.links {
		if _, ok := set[tagID]; !ok {
			continue
		}
		if d.snippets[sid].UserID == ownerID {
			mine++
		} else {
			others++
		}
	}
	return mine, others
}

func (r *TagRepository) List(_ context.Context, ownerID int64, f domain.TagFilter) ([]domain.Tag, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.List"); err != nil {
		return nil, err
	}
	f = f.Normalize()
	d := r.sh.data
	res := []domain.Tag{}
	for _, t := range d.tags {
		mine, _ := d.usage(ownerID, t.ID)
		if mine == 0 {
			continue
		}
		if f.Search != "" && !containsFold(t.Name, f.Search) {
			continue
		}
		t.SnippetsCount = mine
		res = append(res, t)
	}
	desc := f.Direction == domain.SortDesc
	sort.Slice(res, func(i, j int) bool {
		var c int
		switch f.Sort {
		case domain.SortTagSnippetsCount:
			c = compareInt64(int64(res[i].SnippetsCount), int64(res[j].SnippetsCount))
		case domain.SortTagCreatedAt:
			c = res[i].CreatedAt.Compare(res[j].CreatedAt)
		default:
			c = strings.Compare(res[i].Name, res[j].Name)
		}
		if c == 0 {
			c = compareInt64(res[i].ID, res[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return res, nil
}

func (r *TagRepository) lookup(ownerID, id int64) (domain.Tag, error) {
	d := r.sh.data
	t, ok := d.tags[id]
	if !ok {
		return domain.Tag{}, repository.ErrNotFound
	}
	mine, _ := d.usage(ownerID, id)
	if mine == 0 {
		return domain.Tag{}, repository.ErrNotAttached
	}
	t.SnippetsCount = mine
	return t, nil
}

func (r *TagRepository) FindByID(_ context.Context, ownerID, id int64) (domain.Tag, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.FindByID"); err != nil {
		return domain.Tag{}, err
	}
	return r.lookup(ownerID, id)
}

func (r *TagRepository) FindOrCreateByName(_ context.Context, name string, now time.Time) (domain.Tag, bool, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.FindOrCreateByName"); err != nil {
		return domain.Tag{}, false, err
	}
	t, created := r.sh.data.findOrCreate(name, now)
	return t, created, nil
}

func (r *TagRepository) SyncSnippetTags(_ context.Context, snippetID int64, tagIDs []int64) error {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.SyncSnippetTags"); err != nil {
		return err
	}
	set := make(map[int64]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		set[id] = struct{}{}
	}
	r.sh.data.links[snippetID] = set
	return nil
}

func (r *TagRepository) ForSnippets(_ context.Context, snippetIDs []int64) (map[int64][]domain.Tag, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	res := make(map[int64][]domain.Tag, len(snippetIDs))
	for _, id := range snippetIDs {
		if ts := r.sh.data.tagsFor(id); len(ts) > 0 {
			res[id] = ts
		}
	}
	return res, nil
}

func (r *TagRepository) Rename(_ context.Context, ownerID, id int64, name string, now time.Time) (domain.Tag, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.Rename"); err != nil {
		return domain.Tag{}, err
	}
	t, err := r.lookup(ownerID, id)
	if err != nil {
		return domain.Tag{}, err
	}
	for _, other := range r.sh.data.tags {
		if other.ID != id && other.Name == name {
			return domain.Tag{}, repository.ErrTagNameTaken
		}
	}
	t.Name = name
	t.UpdatedAt = now
	stored := t
	stored.SnippetsCount = 0
	r.sh.data.tags[id] = stored
	return t, nil
}

func (r *TagRepository) Delete(_ context.Context, ownerID, id int64) (domain.TagRemoval, error) {
	r.sh.mu.Lock()
	defer r.sh.mu.Unlock()
	if err := r.sh.fail("Tags.Delete"); err != nil {
		return "", err
	}
	d := r.sh.data
	if _, ok := d.tags[id]; !ok {
		return "", repository.ErrNotFound
	}
	_, others := d.usage(ownerID, id)
	for sid, set := range d.links {
		if d.snippets[sid].UserID == ownerID {
			delete(set, id)
		}
	}
	if others > 0 {
		return domain.TagShared, nil
	}
	delete(d.tags, id)
	return domain.TagDeleted, nil
}

var _ repository.TagRepository = (*TagRepository)(nil)
