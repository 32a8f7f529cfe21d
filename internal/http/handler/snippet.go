package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/service"
	"github.com/roguepikachu/snipsnap/pkg/logger"
)

const (
	// TimeFormat is the standard format for time serialization.
	TimeFormat = "2006-01-02T15:04:05Z"
)

// SnippetService defines the handler's dependency contract.
type SnippetService interface {
	ListSnippets(ctx context.Context, userID int64, f domain.SnippetFilter) (domain.SnippetPage, service.SnippetMeta, error)
	GetSnippet(ctx context.Context, userID, id int64) (domain.Snippet, service.SnippetMeta, error)
	CreateOrUpdate(ctx context.Context, userID int64, id *int64, in domain.SnippetInput) (domain.Snippet, bool, error)
	ToggleFavorite(ctx context.Context, userID, id int64) (domain.Snippet, error)
	DeleteSnippet(ctx context.Context, userID, id int64) error
}

// Handler handles HTTP requests for snippets.
type Handler struct {
	svc SnippetService
}

// NewHandler constructs a Handler with the given SnippetService.
func NewHandler(svc SnippetService) *Handler {
	return &Handler{svc: svc}
}

func toTagResponse(t domain.Tag, withCount bool) domain.TagResponseDTO {
	resp := domain.TagResponseDTO{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt.UTC().Format(TimeFormat),
		UpdatedAt: t.UpdatedAt.UTC().Format(TimeFormat),
	}
	if withCount {
		n := t.SnippetsCount
		resp.SnippetsCount = &n
	}
	return resp
}

func toSnippetResponse(s domain.Snippet) domain.SnippetResponseDTO {
	tags := make([]domain.TagResponseDTO, 0, len(s.Tags))
	for _, t := range s.Tags {
		tags = append(tags, toTagResponse(t, false))
	}
	return domain.SnippetResponseDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Code:        s.Code,
		Language:    s.Language,
		IsFavorite:  s.IsFavorite,
		Tags:        tags,
		CreatedAt:   s.CreatedAt.UTC().Format(TimeFormat),
		UpdatedAt:   s.UpdatedAt.UTC().Format(TimeFormat),
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abortError(c, http.StatusBadRequest, CodeBadRequest, "id must be a positive integer", "")
		return 0, false
	}
	return id, true
}

func (h *Handler) snippetError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrSnippetNotFound):
		abortError(c, http.StatusNotFound, CodeNotFound, "Snippet not found or unauthorized", "")
	case errors.Is(err, service.ErrInvalidSnippet):
		abortError(c, http.StatusBadRequest, CodeBadRequest, "invalid request", err.Error())
	default:
		internalError(c, what, err)
	}
}

// List handles listing the caller's snippets with filters and pagination.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	type queryParams struct {
		Search     string `form:"search" binding:"max=255"`
		Language   string `form:"language" binding:"max=50"`
		IsFavorite *bool  `form:"is_favorite"`
		Tag        string `form:"tag" binding:"max=50"`
		TagMatch   string `form:"tag_match" binding:"omitempty,oneof=contains exact"`
		Sort       string `form:"sort" binding:"omitempty,oneof=created_at updated_at title language is_favorite"`
		Direction  string `form:"direction" binding:"omitempty,oneof=asc desc"`
		Page       int    `form:"page,default=1"`
		PerPage    int    `form:"per_page,default=10"`
	}
	var q queryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters", err)
		return
	}
	f := domain.SnippetFilter{
		Search:     q.Search,
		Language:   q.Language,
		IsFavorite: q.IsFavorite,
		Tag:        q.Tag,
		TagMatch:   domain.TagMatch(q.TagMatch),
		Sort:       q.Sort,
		Direction:  q.Direction,
		Page:       q.Page,
		PerPage:    q.PerPage,
	}
	page, meta, err := h.svc.ListSnippets(ctx, uid, f)
	if err != nil {
		h.snippetError(c, "list snippets", err)
		return
	}
	logger.With(ctx, map[string]any{"count": len(page.Items), "total": page.Total, "page": page.CurrentPage, "cache": meta.CacheStatus}).Debug("snippets listed")
	items := make([]domain.SnippetResponseDTO, 0, len(page.Items))
	for _, s := range page.Items {
		items = append(items, toSnippetResponse(s))
	}
	c.Header("X-Cache", string(meta.CacheStatus))
	c.JSON(http.StatusOK, domain.ListSnippetsResponseDTO{
		Items:       items,
		CurrentPage: page.CurrentPage,
		LastPage:    page.LastPage,
		PerPage:     page.PerPage,
		Total:       page.Total,
	})
}

// Create handles the creation of a new snippet.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	var req domain.CreateSnippetRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	snippet, _, err := h.svc.CreateOrUpdate(ctx, uid, nil, req.Input())
	if err != nil {
		h.snippetError(c, "create snippet", err)
		return
	}
	logger.With(ctx, map[string]any{"id": snippet.ID, "tags": len(snippet.Tags)}).Info("snippet created")
	c.JSON(http.StatusCreated, toSnippetResponse(snippet))
}

// Get handles fetching a snippet by ID.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	snippet, meta, err := h.svc.GetSnippet(ctx, uid, id)
	cacheStatus := string(meta.CacheStatus)
	if err != nil {
		h.snippetError(c, "get snippet", err)
		return
	}
	logger.With(ctx, map[string]any{"id": id, "cache": cacheStatus}).Debug("snippet retrieved")
	c.Header("X-Cache", cacheStatus)
	c.JSON(http.StatusOK, toSnippetResponse(snippet))
}

// Update partially updates the caller's snippet, or creates a new one when
// the id is unknown to the caller.
func (h *Handler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req domain.UpdateSnippetRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	snippet, created, err := h.svc.CreateOrUpdate(ctx, uid, &id, req.Input())
	if err != nil {
		h.snippetError(c, "update snippet", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toSnippetResponse(snippet))
}

// ToggleFavorite flips the favorite flag.
func (h *Handler) ToggleFavorite(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	snippet, err := h.svc.ToggleFavorite(ctx, uid, id)
	if err != nil {
		h.snippetError(c, "toggle favorite", err)
		return
	}
	msg := "Snippet removed from favorites"
	if snippet.IsFavorite {
		msg = "Snippet marked as favorite"
	}
	c.JSON(http.StatusOK, domain.FavoriteResponseDTO{Message: msg, IsFavorite: snippet.IsFavorite, Snippet: toSnippetResponse(snippet)})
}

// Delete removes the caller's snippet.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteSnippet(ctx, uid, id); err != nil {
		h.snippetError(c, "delete snippet", err)
		return
	}
	c.JSON(http.StatusOK, domain.MessageResponseDTO{Message: "Snippet deleted successfully"})
}
