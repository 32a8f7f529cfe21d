package domain

import (
	"reflect"
	"testing"
	"time"
)

func TestSnippetFilterNormalize(t *testing.T) {
	f := SnippetFilter{Search: "  go ", Sort: "bogus", Direction: "UP", Page: 0, PerPage: 500, TagMatch: "weird"}.Normalize()
	if f.Search != "go" || f.Sort != SortCreatedAt || f.Direction != SortDesc || f.Page != 1 || f.PerPage != MaxPerPage || f.TagMatch != TagMatchContains {
		t.Fatalf("unexpected normalized filter: %+v", f)
	}
	f = SnippetFilter{Sort: SortTitle, Direction: "ASC", PerPage: -1, TagMatch: TagMatchExact}.Normalize()
	if f.Sort != SortTitle || f.Direction != SortAsc || f.PerPage != DefaultPerPage || f.TagMatch != TagMatchExact {
		t.Fatalf("unexpected normalized filter: %+v", f)
	}
	if off := (SnippetFilter{Page: 3, PerPage: 10}).Offset(); off != 20 {
		t.Fatalf("offset want 20 got %d", off)
	}
}

func TestTagFilterNormalize(t *testing.T) {
	cases := []struct {
		in   TagFilter
		sort string
		dir  string
	}{
		{TagFilter{}, SortTagName, SortAsc},
		{TagFilter{Direction: "desc"}, SortTagName, SortDesc},
		{TagFilter{Sort: SortTagSnippetsCount}, SortTagSnippetsCount, SortDesc},
		{TagFilter{Sort: SortTagCreatedAt, Direction: "asc"}, SortTagCreatedAt, SortAsc},
		{TagFilter{Sort: "evil"}, SortTagName, SortAsc},
	}
	for _, c := range cases {
		got := c.in.Normalize()
		if got.Sort != c.sort || got.Direction != c.dir {
			t.Fatalf("%+v: want %s %s got %s %s", c.in, c.sort, c.dir, got.Sort, got.Direction)
		}
	}
}

func TestNewSnippetPage(t *testing.T) {
	cases := []struct {
		total, perPage, last int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{15, 10, 2},
		{21, 10, 3},
	}
	for _, c := range cases {
		p := NewSnippetPage(nil, 1, c.perPage, c.total)
		if p.LastPage != c.last {
			t.Fatalf("total=%d: want last %d got %d", c.total, c.last, p.LastPage)
		}
		if p.Items == nil {
			t.Fatalf("items must not be nil")
		}
	}
}

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{" a", "b", "", "a ", "  ", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected names %v", got)
	}
	if NormalizeTagNames(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestSnippetPatch(t *testing.T) {
	title, code, lang, fav := "t", "c", "l", true
	p := SnippetPatch{Title: &title, Code: &code, Language: &lang}
	if !p.Complete() || p.Empty() {
		t.Fatalf("expected complete, non-empty patch")
	}
	if (SnippetPatch{Title: &title}).Complete() {
		t.Fatalf("title alone is not complete")
	}
	if !(SnippetPatch{}).Empty() {
		t.Fatalf("zero patch is empty")
	}
	now := time.Now()
	s := NewSnippet(9, p, now)
	if s.UserID != 9 || s.Title != "t" || s.IsFavorite || !s.CreatedAt.Equal(now) {
		t.Fatalf("unexpected snippet %+v", s)
	}
	SnippetPatch{IsFavorite: &fav}.Apply(&s)
	if !s.IsFavorite || s.Title != "t" {
		t.Fatalf("apply changed the wrong fields: %+v", s)
	}
}

func TestCreateRequestInput(t *testing.T) {
	in := CreateSnippetRequestDTO{Title: "t", Code: "c", Language: "go", Tags: []string{"x"}}.Input()
	if !in.Patch.Complete() || in.Patch.IsFavorite == nil || *in.Patch.IsFavorite || len(in.Tags) != 1 {
		t.Fatalf("unexpected input %+v", in)
	}
	up := UpdateSnippetRequestDTO{}.Input()
	if !up.Patch.Empty() {
		t.Fatalf("empty update should yield empty patch")
	}
}
