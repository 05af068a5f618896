package handlers

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/middleware"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/pkg/response"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns a user's portfolio page data
// GET /api/profiles/:username
func (h *ProfileHandler) Get(c *gin.Context) {
	view, err := h.profileService.GetProfile(middleware.GetActor(c), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Update edits the current user's account and profile fields
// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.profileService.UpdateProfile(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UploadAvatar replaces the current user's avatar
// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	header, err := c.FormFile("avatar")
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	profile, err := h.profileService.UpdateAvatar(c.Request.Context(), middleware.GetActor(c), header.Filename, header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}

// Avatar streams a user's avatar image
// GET /api/profiles/:username/avatar
func (h *ProfileHandler) Avatar(c *gin.Context) {
	rc, key, err := h.profileService.OpenAvatar(c.Request.Context(), middleware.GetActor(c), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveBlob(c, rc, key)
}

// serveBlob streams a stored image with a content type taken from its key.
func serveBlob(c *gin.Context, rc io.ReadCloser, key string) {
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(200, -1, contentType, rc, nil)
}
