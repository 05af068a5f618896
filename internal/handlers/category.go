package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/pkg/response"
)

type CategoryHandler struct {
	projectService *services.ProjectService
}

func NewCategoryHandler(projectService *services.ProjectService) *CategoryHandler {
	return &CategoryHandler{projectService: projectService}
}

// List returns every category
// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.projectService.ListCategories()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, categories)
}

// Get returns a category with one page of its projects
// GET /api/categories/:slug
func (h *CategoryHandler) Get(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))

	result, err := h.projectService.Category(c.Param("slug"), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Create adds a category
// POST /api/admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	category, err := h.projectService.CreateCategory(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}
