// Package fake provides in-memory fakes for repository interfaces for testing.
package fake

import (
	"context"
	"sync"

	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
)

type state struct {
	snippets      map[int64]domain.Snippet
	tags          map[int64]domain.Tag
	links         map[int64]map[int64]struct{} // snippet id -> tag ids
	nextSnippetID int64
	nextTagID     int64
}

func newState() *state {
	return &state{
		snippets: make(map[int64]domain.Snippet),
		tags:     make(map[int64]domain.Tag),
		links:    make(map[int64]map[int64]struct{}),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextSnippetID, c.nextTagID = s.nextSnippetID, s.nextTagID
	for k, v := range s.snippets {
		c.snippets[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for sid, set := range s.links {
		cs := make(map[int64]struct{}, len(set))
		for tid := range set {
			cs[tid] = struct{}{}
		}
		c.links[sid] = cs
	}
	return c
}

type shared struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *state
	errs map[string]error
	txs  int
}

// fail returns the injected error for op, if any. Callers hold mu.
func (sh *shared) fail(op string) error {
	return sh.errs[op]
}

// Store is an in-memory repository.Store. Transactions are serialized and
// roll back to a snapshot when fn fails.
type Store struct {
	sh   *shared
	inTx bool
}

// Option configures the fake store.
type Option func(*Store)

// WithSnippets seeds the store with the provided snippets. Tags listed on a
// snippet are created by name and attached.
func WithSnippets(items ...domain.Snippet) Option {
	return func(st *Store) {
		d := st.sh.data
		for _, s := range items {
			if s.ID == 0 {
				d.nextSnippetID++
				s.ID = d.nextSnippetID
			} else if s.ID > d.nextSnippetID {
				d.nextSnippetID = s.ID
			}
			tags := s.Tags
			s.Tags = nil
			d.snippets[s.ID] = s
			for _, t := range tags {
				tag, _ := d.findOrCreate(t.Name, s.CreatedAt)
				d.attach(s.ID, tag.ID)
			}
		}
	}
}

// WithError makes the named operation (for example "Tags.SyncSnippetTags")
// return err.
func WithError(op string, err error) Option {
	return func(st *Store) { st.sh.errs[op] = err }
}

// NewStore creates a new in-memory fake store.
func NewStore(opts ...Option) *Store {
	st := &Store{sh: &shared{data: newState(), errs: make(map[string]error)}}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Snippets returns the snippet repository view of the store.
func (st *Store) Snippets() repository.SnippetRepository { return &SnippetRepository{sh: st.sh} }

// Tags returns the tag repository view of the store.
func (st *Store) Tags() repository.TagRepository { return &TagRepository{sh: st.sh} }

// WithinTx runs fn and restores the previous state when it returns an error.
func (st *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if st.inTx {
		return fn(st)
	}
	st.sh.txMu.Lock()
	defer st.sh.txMu.Unlock()

	st.sh.mu.Lock()
	st.sh.txs++
	snap := st.sh.data.clone()
	st.sh.mu.Unlock()

	if err := fn(&Store{sh: st.sh, inTx: true}); err != nil {
		st.sh.mu.Lock()
		st.sh.data = snap
		st.sh.mu.Unlock()
		return err
	}
	return nil
}

// WithinReadTx runs fn under the same serialization as WithinTx.
func (st *Store) WithinReadTx(ctx context.Context, fn func(repository.Store) error) error {
	return st.WithinTx(ctx, fn)
}

// Transactions reports how many top-level transactions have been started.
func (st *Store) Transactions() int {
	st.sh.mu.Lock()
	defer st.sh.mu.Unlock()
	return st.sh.txs
}

// SnippetCount reports the number of stored snippets across all owners.
func (st *Store) SnippetCount() int {
	st.sh.mu.Lock()
	defer st.sh.mu.Unlock()
	return len(st.sh.data.snippets)
}

// TagCount reports the size of the tag vocabulary.
func (st *Store) TagCount() int {
	st.sh.mu.Lock()
	defer st.sh.mu.Unlock()
	return len(st.sh.data.tags)
}

var _ repository.Store = (*Store)(nil)
