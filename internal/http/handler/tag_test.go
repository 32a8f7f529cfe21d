package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/service"
)

type mockTagService struct {
	userID  int64
	filter  domain.TagFilter
	name    string
	tag     domain.Tag
	created bool
	removal domain.TagRemoval
	err     error
}

func (m *mockTagService) ListTags(_ context.Context, userID int64, f domain.TagFilter) ([]domain.Tag, error) {
	m.userID, m.filter = userID, f
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Tag{m.tag}, nil
}

func (m *mockTagService) GetTag(_ context.Context, userID, _ int64) (domain.Tag, error) {
	m.userID = userID
	return m.tag, m.err
}

func (m *mockTagService) CreateTag(_ context.Context, name string) (domain.Tag, bool, error) {
	m.name = name
	return m.tag, m.created, m.err
}

func (m *mockTagService) RenameTag(_ context.Context, userID, _ int64, name string) (domain.Tag, error) {
	m.userID, m.name = userID, name
	return m.tag, m.err
}

func (m *mockTagService) DeleteTag(_ context.Context, userID, _ int64) (domain.TagRemoval, error) {
	m.userID = userID
	return m.removal, m.err
}

func tagRouter(svc TagService, uid int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTagHandler(svc)
	r := gin.New()
	if uid > 0 {
		r.Use(asUser(uid))
	}
	r.GET("/v1/tags", h.List)
	r.POST("/v1/tags", h.Create)
	r.GET("/v1/tags/:id", h.Get)
	r.PUT("/v1/tags/:id", h.Update)
	r.DELETE("/v1/tags/:id", h.Delete)
	return r
}

func sampleTag() domain.Tag {
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.Tag{ID: 7, Name: "go", SnippetsCount: 2, CreatedAt: ts, UpdatedAt: ts}
}

func TestTagList_IncludesCounts(t *testing.T) {
	m := &mockTagService{tag: sampleTag()}
	w := do(tagRouter(m, 2), http.MethodGet, "/v1/tags?search=g&sort=snippets_count&direction=desc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if m.userID != 2 || m.filter.Search != "g" || m.filter.Sort != "snippets_count" || m.filter.Direction != "desc" {
		t.Fatalf("unexpected filter %+v", m.filter)
	}
	var resp []domain.TagResponseDTO
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0].SnippetsCount == nil || *resp[0].SnippetsCount != 2 {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if w := do(tagRouter(m, 2), http.MethodGet, "/v1/tags?sort=secret", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestTagCreate_StatusByOutcome(t *testing.T) {
	m := &mockTagService{tag: sampleTag(), created: true}
	r := tagRouter(m, 1)
	if w := do(r, http.MethodPost, "/v1/tags", `{"name":"go"}`); w.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", w.Code)
	}
	m.created = false
	w := do(r, http.MethodPost, "/v1/tags", `{"name":"go"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "snippets_count") {
		t.Fatalf("create response carries no count: %s", w.Body.String())
	}
	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"` + strings.Repeat("n", 51) + `"}`} {
		if w := do(r, http.MethodPost, "/v1/tags", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %.30s: want 400, got %d", body, w.Code)
		}
	}
}

func TestTagErrors(t *testing.T) {
	cases := []struct {
		name   string
		method string
		body   string
		err    error
		want   int
	}{
		{"get missing", http.MethodGet, "", service.ErrTagNotFound, http.StatusNotFound},
		{"get forbidden", http.MethodGet, "", service.ErrTagForbidden, http.StatusForbidden},
		{"rename taken", http.MethodPut, `{"name":"web"}`, service.ErrTagNameTaken, http.StatusConflict},
		{"rename invalid", http.MethodPut, `{"name":"web"}`, service.ErrInvalidTag, http.StatusBadRequest},
		{"rename missing", http.MethodPut, `{"name":"web"}`, service.ErrTagNotFound, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "", service.ErrTagNotFound, http.StatusNotFound},
		{"internal", http.MethodGet, "", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := &mockTagService{err: c.err}
			w := do(tagRouter(m, 1), c.method, "/v1/tags/7", c.body)
			if w.Code != c.want {
				t.Fatalf("want %d, got %d: %s", c.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestTagRename(t *testing.T) {
	m := &mockTagService{tag: sampleTag()}
	w := do(tagRouter(m, 3), http.MethodPut, "/v1/tags/7", `{"name":"golang"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if m.userID != 3 || m.name != "golang" {
		t.Fatalf("unexpected call user=%d name=%q", m.userID, m.name)
	}
}

func TestTagDelete_Outcomes(t *testing.T) {
	cases := []struct {
		removal domain.TagRemoval
		err     error
		want    int
		message string
	}{
		{domain.TagDeleted, nil, http.StatusOK, "Tag deleted successfully"},
		{domain.TagShared, service.ErrTagShared, http.StatusForbidden, "Cannot delete tag used by other users"},
	}
	for _, c := range cases {
		t.Run(string(c.removal), func(t *testing.T) {
			m := &mockTagService{removal: c.removal, err: c.err}
			w := do(tagRouter(m, 1), http.MethodDelete, "/v1/tags/7", "")
			if w.Code != c.want {
				t.Fatalf("want %d, got %d", c.want, w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != string(c.removal) {
				t.Fatalf("expected status %q, got %v", c.removal, body["status"])
			}
			if !strings.Contains(w.Body.String(), c.message) {
				t.Fatalf("expected %q in %s", c.message, w.Body.String())
			}
		})
	}
}

func TestTagRoutesRequireUser(t *testing.T) {
	w := do(tagRouter(&mockTagService{}, 0), http.MethodPost, "/v1/tags", `{"name":"go"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}
