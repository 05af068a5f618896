package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/middleware"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/pkg/response"
)

type MediaHandler struct {
	mediaService *services.MediaService
}

func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

type uploadForm struct {
	Title       string `form:"title" binding:"max=255"`
	Description string `form:"description" binding:"max=500"`
	IsPublic    bool   `form:"is_public"`
}

// Library lists the current user's media with per-type counts
// GET /api/media
func (h *MediaHandler) Library(c *gin.Context) {
	var req services.LibraryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.mediaService.Library(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Upload accepts a multipart file in the "file" field
// POST /api/media
func (h *MediaHandler) Upload(c *gin.Context) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	asset, err := h.mediaService.Upload(c.Request.Context(), middleware.GetActor(c), &services.UploadInput{
		Filename:    header.Filename,
		Size:        header.Size,
		Body:        file,
		Title:       form.Title,
		Description: form.Description,
		IsPublic:    form.IsPublic,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, asset)
}

// Get returns an asset and the visible projects using it
// GET /api/media/:id
func (h *MediaHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.mediaService.Get(middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// File streams the stored blob
// GET /api/media/:id/file
func (h *MediaHandler) File(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	rc, asset, err := h.mediaService.Open(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	contentType := asset.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(200, asset.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(asset.OriginalName),
	})
}

// Update edits an asset's metadata and type-specific details
// PUT /api/media/:id
func (h *MediaHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	asset, err := h.mediaService.Update(middleware.GetActor(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, asset)
}

// Delete removes an asset and its blob
// DELETE /api/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
