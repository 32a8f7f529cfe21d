//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/repository"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres spins up a Postgres container using testcontainers.
func startPostgres(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	pg, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithUsername("snipsnap"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.WithDatabase("snipsnap"),
	)
	if err != nil {
		t.Skipf("skipping: cannot start postgres container (is Docker running?): %v", err)
		return nil, func() {}
	}
	host, _ := pg.Host(ctx)
	port, _ := pg.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://snipsnap:secret@%s:%s/snipsnap?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	// Wait until healthy
	wctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		if err := pool.Ping(wctx); err == nil {
			break
		}
		select {
		case <-wctx.Done():
			t.Fatalf("timeout waiting for db ready: %v", wctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(context.Background())
	}
	return pool, cleanup
}

func patch(title, code, lang string) domain.SnippetPatch {
	return domain.SnippetPatch{Title: &title, Code: &code, Language: &lang}
}

func tagNames(ts []domain.Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func createTagged(ctx context.Context, t *testing.T, st *Store, owner int64, title string, tags ...string) domain.Snippet {
	t.Helper()
	now := time.Now().UTC()
	s, err := st.Snippets().Create(ctx, owner, patch(title, "code of "+title, "go"), now)
	if err != nil {
		t.Fatalf("create %s: %v", title, err)
	}
	ids := make([]int64, 0, len(tags))
	for _, n := range tags {
		tag, _, err := st.Tags().FindOrCreateByName(ctx, n, now)
		if err != nil {
			t.Fatalf("tag %s: %v", n, err)
		}
		ids = append(ids, tag.ID)
	}
	if err := st.Tags().SyncSnippetTags(ctx, s.ID, ids); err != nil {
		t.Fatalf("sync: %v", err)
	}
	return s
}

func TestStore_SnippetLifecycle(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := startPostgres(ctx, t)
	defer cleanup()
	st := NewStore(pool)

	a := createTagged(ctx, t, st, 1, "alpha", "a", "b")
	got, err := st.Snippets().FindByID(ctx, 1, a.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if fmt.Sprint(tagNames(got.Tags)) != "[a b]" {
		t.Fatalf("unexpected tags %v", tagNames(got.Tags))
	}
	if _, err := st.Snippets().FindByID(ctx, 2, a.ID); err != repository.ErrNotFound {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}

	// resync to {b, c}
	now := time.Now().UTC()
	b, _, _ := st.Tags().FindOrCreateByName(ctx, "b", now)
	c, created, err := st.Tags().FindOrCreateByName(ctx, "c", now)
	if err != nil || !created {
		t.Fatalf("create c: created=%v err=%v", created, err)
	}
	if err := st.Tags().SyncSnippetTags(ctx, a.ID, []int64{b.ID, c.ID, c.ID}); err != nil {
		t.Fatalf("resync: %v", err)
	}
	got, _ = st.Snippets().FindByID(ctx, 1, a.ID)
	if fmt.Sprint(tagNames(got.Tags)) != "[b c]" {
		t.Fatalf("unexpected tags after resync %v", tagNames(got.Tags))
	}

	fav, err := st.Snippets().ToggleFavorite(ctx, 1, a.ID, now)
	if err != nil || !fav.IsFavorite {
		t.Fatalf("toggle: %+v %v", fav, err)
	}
	if _, err := st.Snippets().ToggleFavorite(ctx, 2, a.ID, now); err != repository.ErrNotFound {
		t.Fatalf("expected not found toggling foreign snippet, got %v", err)
	}

	// id owned by someone else degrades to create
	s, created, err := st.Snippets().CreateOrUpdate(ctx, 2, &a.ID, patch("mine", "x", "sql"), now)
	if err != nil || !created || s.ID == a.ID || s.UserID != 2 {
		t.Fatalf("expected new snippet for user 2, got %+v created=%v err=%v", s, created, err)
	}
	title := "alpha2"
	s, created, err = st.Snippets().CreateOrUpdate(ctx, 1, &a.ID, domain.SnippetPatch{Title: &title}, now)
	if err != nil || created || s.Title != "alpha2" || s.Code != "code of alpha" || !s.IsFavorite {
		t.Fatalf("partial update wrong: %+v created=%v err=%v", s, created, err)
	}

	if err := st.Snippets().Delete(ctx, 2, a.ID); err != repository.ErrNotFound {
		t.Fatalf("expected not found deleting foreign snippet, got %v", err)
	}
	if err := st.Snippets().Delete(ctx, 1, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var links int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM snippet_tags WHERE snippet_id = $1`, a.ID).Scan(&links); err != nil || links != 0 {
		t.Fatalf("expected cascade, links=%d err=%v", links, err)
	}
}

func TestStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := startPostgres(ctx, t)
	defer cleanup()
	st := NewStore(pool)

	for i := 0; i < 15; i++ {
		createTagged(ctx, t, st, 1, fmt.Sprintf("s%02d", i))
	}
	createTagged(ctx, t, st, 1, "100% pure", "web")
	createTagged(ctx, t, st, 2, "other user", "web")

	var page domain.SnippetPage
	err := st.WithinReadTx(ctx, func(tx repository.Store) error {
		var err error
		page, err = tx.Snippets().List(ctx, 1, domain.SnippetFilter{Search: "s", Page: 2, PerPage: 10, Sort: domain.SortTitle, Direction: "asc"})
		return err
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 15 || page.LastPage != 2 || len(page.Items) != 5 {
		t.Fatalf("unexpected page: total=%d last=%d items=%d", page.Total, page.LastPage, len(page.Items))
	}

	page, err = st.Snippets().List(ctx, 1, domain.SnippetFilter{Search: "%"})
	if err != nil || page.Total != 1 || page.Items[0].Title != "100% pure" {
		t.Fatalf("escaped search wrong: %+v %v", page, err)
	}

	page, err = st.Snippets().List(ctx, 1, domain.SnippetFilter{Search: "WEB"})
	if err != nil || page.Total != 1 {
		t.Fatalf("search by tag name wrong: %+v %v", page, err)
	}

	fav := true
	page, err = st.Snippets().List(ctx, 1, domain.SnippetFilter{IsFavorite: &fav})
	if err != nil || page.Total != 0 || len(page.Items) != 0 || page.LastPage != 1 {
		t.Fatalf("favorites page wrong: %+v %v", page, err)
	}

	page, err = st.Snippets().List(ctx, 1, domain.SnippetFilter{Tag: "we", TagMatch: domain.TagMatchExact})
	if err != nil || page.Total != 0 {
		t.Fatalf("exact tag should not match substring: %+v %v", page, err)
	}
}

func TestStore_TagAuthorizationAndDelete(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := startPostgres(ctx, t)
	defer cleanup()
	st := NewStore(pool)

	createTagged(ctx, t, st, 1, "one", "shared", "solo")
	createTagged(ctx, t, st, 2, "two", "shared")

	tags, err := st.Tags().List(ctx, 1, domain.TagFilter{Sort: domain.SortTagName, Direction: "asc"})
	if err != nil || fmt.Sprint(tagNames(tags)) != "[shared solo]" {
		t.Fatalf("list tags: %v %v", tagNames(tags), err)
	}
	solo := tags[1]
	if _, err := st.Tags().FindByID(ctx, 2, solo.ID); err != repository.ErrNotAttached {
		t.Fatalf("expected not attached, got %v", err)
	}
	if _, err := st.Tags().Rename(ctx, 2, solo.ID, "x", time.Now()); err != repository.ErrNotAttached {
		t.Fatalf("expected not attached on rename, got %v", err)
	}
	err = st.WithinTx(ctx, func(tx repository.Store) error {
		_, err := tx.Tags().Rename(ctx, 1, solo.ID, "shared", time.Now())
		return err
	})
	if err != repository.ErrTagNameTaken {
		t.Fatalf("expected name taken, got %v", err)
	}

	var removal domain.TagRemoval
	err = st.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		removal, err = tx.Tags().Delete(ctx, 1, tags[0].ID)
		return err
	})
	if err != nil || removal != domain.TagShared {
		t.Fatalf("expected shared, got %v %v", removal, err)
	}
	if _, err := st.Tags().FindByID(ctx, 1, tags[0].ID); err != repository.ErrNotAttached {
		t.Fatalf("expected requester detached from shared tag, got %v", err)
	}
	if _, err := st.Tags().FindByID(ctx, 2, tags[0].ID); err != nil {
		t.Fatalf("other user's association must survive: %v", err)
	}

	err = st.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		removal, err = tx.Tags().Delete(ctx, 1, solo.ID)
		return err
	})
	if err != nil || removal != domain.TagDeleted {
		t.Fatalf("expected deleted, got %v %v", removal, err)
	}
	if _, err := st.Tags().FindByID(ctx, 1, solo.ID); err != repository.ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
