package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/snipsnap/internal/domain"
	"github.com/roguepikachu/snipsnap/internal/service"
	"github.com/roguepikachu/snipsnap/pkg"
)

// TagService defines the tag handler's dependency contract.
type TagService interface {
	ListTags(ctx context.Context, userID int64, f domain.TagFilter) ([]domain.Tag, error)
	GetTag(ctx context.Context, userID, id int64) (domain.Tag, error)
	CreateTag(ctx context.Context, name string) (domain.Tag, bool, error)
	RenameTag(ctx context.Context, userID, id int64, name string) (domain.Tag, error)
	DeleteTag(ctx context.Context, userID, id int64) (domain.TagRemoval, error)
}

// TagHandler handles HTTP requests for tags.
type TagHandler struct {
	svc TagService
}

// NewTagHandler constructs a TagHandler with the given TagService.
func NewTagHandler(svc TagService) *TagHandler {
	return &TagHandler{svc: svc}
}

func tagError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, service.ErrTagNotFound):
		abortError(c, http.StatusNotFound, CodeNotFound, "Tag not found", "")
	case errors.Is(err, service.ErrTagForbidden):
		abortError(c, http.StatusForbidden, CodeForbidden, "Unauthorized", "")
	case errors.Is(err, service.ErrTagNameTaken):
		abortError(c, http.StatusConflict, CodeConflict, "The name has already been taken.", "")
	case errors.Is(err, service.ErrInvalidTag):
		abortError(c, http.StatusBadRequest, CodeBadRequest, "invalid request", err.Error())
	default:
		internalError(c, what, err)
	}
}

// List returns the tags on the caller's snippets.
func (h *TagHandler) List(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	type queryParams struct {
		Search    string `form:"search" binding:"max=50"`
		Sort      string `form:"sort" binding:"omitempty,oneof=name snippets_count created_at"`
		Direction string `form:"direction"`
	}
	var q queryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters", err)
		return
	}
	tags, err := h.svc.ListTags(c.Request.Context(), uid, domain.TagFilter{Search: q.Search, Sort: q.Sort, Direction: q.Direction})
	if err != nil {
		tagError(c, "list tags", err)
		return
	}
	resp := make([]domain.TagResponseDTO, 0, len(tags))
	for _, t := range tags {
		resp = append(resp, toTagResponse(t, true))
	}
	c.JSON(http.StatusOK, resp)
}

// Create returns the named tag, creating it when needed.
func (h *TagHandler) Create(c *gin.Context) {
	if _, ok := requesterID(c); !ok {
		return
	}
	var req domain.TagRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	tag, created, err := h.svc.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		tagError(c, "create tag", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toTagResponse(tag, false))
}

// Get returns one tag attached to the caller's snippets.
func (h *TagHandler) Get(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	tag, err := h.svc.GetTag(c.Request.Context(), uid, id)
	if err != nil {
		tagError(c, "get tag", err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag, true))
}

// Update renames a tag.
func (h *TagHandler) Update(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req domain.TagRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request", err)
		return
	}
	tag, err := h.svc.RenameTag(c.Request.Context(), uid, id, req.Name)
	if err != nil {
		tagError(c, "rename tag", err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag, true))
}

// Delete removes the tag from the caller's snippets and deletes it when unused.
func (h *TagHandler) Delete(c *gin.Context) {
	uid, ok := requesterID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	removal, err := h.svc.DeleteTag(c.Request.Context(), uid, id)
	if errors.Is(err, service.ErrTagShared) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":  pkg.ErrorBody{Code: CodeForbidden, Message: "Cannot delete tag used by other users; removed from your snippets"},
			"status": string(domain.TagShared),
		})
		return
	}
	if err != nil {
		tagError(c, "delete tag", err)
		return
	}
	c.JSON(http.StatusOK, domain.MessageResponseDTO{Message: "Tag deleted successfully", Status: string(removal)})
}
