package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/middleware"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/pkg/response"
)

// InteractionHandler serves media associations, comments and likes.
type InteractionHandler struct {
	associationService *services.AssociationService
	interactionService *services.InteractionService
}

func NewInteractionHandler(associations *services.AssociationService, interactions *services.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		associationService: associations,
		interactionService: interactions,
	}
}

// ListMedia returns a project's media in display order
// GET /api/projects/:slug/media
func (h *InteractionHandler) ListMedia(c *gin.Context) {
	items, err := h.associationService.ListMedia(middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// AddMedia attaches one of the current user's assets to a project
// POST /api/projects/:slug/media
func (h *InteractionHandler) AddMedia(c *gin.Context) {
	var req services.AddMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pm, err := h.associationService.AddMedia(middleware.GetActor(c), c.Param("slug"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pm)
}

// RemoveMedia detaches an asset from a project
// DELETE /api/associations/:id
func (h *InteractionHandler) RemoveMedia(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.associationService.RemoveMedia(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Comment posts a comment on a project
// POST /api/projects/:slug/comments
func (h *InteractionHandler) Comment(c *gin.Context) {
	var req services.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.interactionService.Comment(middleware.GetActor(c), c.Param("slug"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// DeleteComment removes a comment
// DELETE /api/comments/:id
func (h *InteractionHandler) DeleteComment(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.interactionService.DeleteComment(middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLike likes or unlikes a project
// POST /api/projects/:slug/like
func (h *InteractionHandler) ToggleLike(c *gin.Context) {
	result, err := h.interactionService.ToggleLike(middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
