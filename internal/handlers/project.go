package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/middleware"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Browse returns public, published projects
// GET /api/projects
func (h *ProjectHandler) Browse(c *gin.Context) {
	var req services.BrowseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.Browse(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Dashboard returns the current user's project summary
// GET /api/dashboard
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	resp, err := h.projectService.Dashboard(middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Create creates a new draft project
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(middleware.GetActor(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Detail returns a project with media and comments, counting the view
// GET /api/projects/:slug
func (h *ProjectHandler) Detail(c *gin.Context) {
	detail, err := h.projectService.Detail(middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// Update updates a project
// PUT /api/projects/:slug
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(middleware.GetActor(c), c.Param("slug"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete deletes a project
// DELETE /api/projects/:slug
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(middleware.GetActor(c), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Publish moves a draft to published
// POST /api/projects/:slug/publish
func (h *ProjectHandler) Publish(c *gin.Context) {
	project, err := h.projectService.Publish(middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Archive retires a project
// POST /api/projects/:slug/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	project, err := h.projectService.Archive(middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// UploadThumbnail replaces a project's thumbnail image
// POST /api/projects/:slug/thumbnail
func (h *ProjectHandler) UploadThumbnail(c *gin.Context) {
	header, err := c.FormFile("thumbnail")
	if err != nil {
		response.BadRequest(c, "thumbnail file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	project, err := h.projectService.UpdateThumbnail(c.Request.Context(), middleware.GetActor(c), c.Param("slug"), header.Filename, header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Thumbnail streams a project's thumbnail image
// GET /api/projects/:slug/thumbnail
func (h *ProjectHandler) Thumbnail(c *gin.Context) {
	rc, key, err := h.projectService.OpenThumbnail(c.Request.Context(), middleware.GetActor(c), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveBlob(c, rc, key)
}
