package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)

// BrowsePageSize is the number of projects per browse or category page.
const BrowsePageSize = 12

const (
	slugAttempts    = 5
	createAttempts  = 3
	dashboardRecent = 6
)

// browseOrders maps the accepted sort keys to ORDER BY clauses.
var browseOrders = map[string]string{
	"created_at":  "projects.created_at ASC, projects.id ASC",
	"-created_at": "projects.created_at DESC, projects.id DESC",
	"title":       "projects.title ASC, projects.id ASC",
	"-title":      "projects.title DESC, projects.id DESC",
	"like_count":  "projects.like_count ASC, projects.id ASC",
	"-like_count": "projects.like_count DESC, projects.id DESC",
	"view_count":  "projects.view_count ASC, projects.id ASC",
	"-view_count": "projects.view_count DESC, projects.id DESC",
}

type ProjectService struct {
	db         *gorm.DB
	store      storage.Storage
	storageCfg *config.StorageConfig
}

func NewProjectService(db *gorm.DB, store storage.Storage, storageCfg *config.StorageConfig) *ProjectService {
	return &ProjectService{db: db, store: store, storageCfg: storageCfg}
}

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
	CategoryID  *uint  `json:"category_id"`
	TeamID      *uint  `json:"team_id"`
	Tags        string `json:"tags" binding:"max=500"`
	IsPublic    bool   `json:"is_public"`
}

// UpdateProjectRequest changes only the fields that are set. A CategoryID
// of 0 clears the category.
type UpdateProjectRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Tags        *string `json:"tags" binding:"omitempty,max=500"`
	IsPublic    *bool   `json:"is_public"`
	IsFeatured  *bool   `json:"is_featured"`
	CategoryID  *uint   `json:"category_id"`
	Status      *string `json:"status"`
}

type ProjectDetail struct {
	Project      *models.Project         `json:"project"`
	Media        []models.ProjectMedia   `json:"media"`
	Comments     []models.ProjectComment `json:"comments"`
	CommentCount int                     `json:"comment_count"`
	UserLiked    bool                    `json:"user_liked"`
	CanEdit      bool                    `json:"can_edit"`
	CanComment   bool                    `json:"can_comment"`
}

type DashboardResponse struct {
	TotalProjects  int64            `json:"total_projects"`
	DraftCount     int64            `json:"draft_count"`
	PublishedCount int64            `json:"published_count"`
	ArchivedCount  int64            `json:"archived_count"`
	Recent         []models.Project `json:"recent_projects"`
}

type BrowseRequest struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Sort     string `form:"sort"`
	Page     int    `form:"page"`
}

type BrowseResult struct {
	Items    []models.Project `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Sort     string           `json:"sort"`
}

type CategoryPage struct {
	Category *models.ProjectCategory `json:"category"`
	*BrowseResult
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Icon        string `json:"icon" binding:"max=50"`
}

func (s *ProjectService) loadProject(slug string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound)
	}
	return &project, nil
}

// viewableProject loads a project and the actor's membership in its team.
// Projects the actor cannot see are reported as missing.
func (s *ProjectService) viewableProject(actor Actor, slug string) (*models.Project, *models.TeamMembership, error) {
	project, err := s.loadProject(slug)
	if err != nil {
		return nil, nil, err
	}
	m, err := loadMembership(s.db, project.TeamID, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !CanViewProject(actor, project, m) {
		return nil, nil, ErrProjectNotFound
	}
	return project, m, nil
}

func (s *ProjectService) editableProject(actor Actor, slug string) (*models.Project, error) {
	project, m, err := s.viewableProject(actor, slug)
	if err != nil {
		return nil, err
	}
	if !CanEditProject(actor, project, m) {
		return nil, ErrPermissionDenied
	}
	return project, nil
}

func (s *ProjectService) checkCategory(id uint) error {
	var n int64
	if err := s.db.Model(&models.ProjectCategory{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// availableSlug returns base if it is free, otherwise base with a random suffix.
func availableSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 0; i < slugAttempts; i++ {
		var n int64
		if err := tx.Model(&models.Project{}).Where("slug = ?", candidate).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		next, err := utils.SlugWithSuffix(base)
		if err != nil {
			return "", err
		}
		candidate = next
	}
	return "", response.NewConflict("could not allocate a unique slug")
}

// Create adds a draft project. A team project needs an edit-capable
// membership in that team. The creator's total_projects moves in the same
// transaction.
func (s *ProjectService) Create(actor Actor, req *CreateProjectRequest) (*models.Project, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, response.NewBadRequest("title is required")
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(*req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.TeamID != nil {
		var team models.Team
		if err := s.db.First(&team, *req.TeamID).Error; err != nil {
			return nil, notFoundOr(err, ErrTeamNotFound)
		}
		m, err := loadMembership(s.db, req.TeamID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if m == nil || !Role(m.Role).Can(CapEdit) {
			return nil, ErrPermissionDenied
		}
	}

	base := utils.Slugify(title)
	if base == "" {
		base = "project"
	}

	var project models.Project
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		project = models.Project{
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			CreatorID:   actor.UserID,
			TeamID:      req.TeamID,
			CategoryID:  req.CategoryID,
			Tags:        models.NormalizeTags(req.Tags),
			Status:      models.ProjectStatusDraft,
			IsPublic:    req.IsPublic,
		}
		err = s.db.Transaction(func(tx *gorm.DB) error {
			slug, err := availableSlug(tx, base)
			if err != nil {
				return err
			}
			project.Slug = slug
			if err := tx.Create(&project).Error; err != nil {
				return err
			}
			return tx.Model(&models.Profile{}).
				Where("user_id = ?", actor.UserID).
				UpdateColumn("total_projects", gorm.Expr("total_projects + ?", 1)).Error
		})
		// A concurrent create took the slug between the check and the insert.
		if !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("could not allocate a unique slug")
		}
		return nil, err
	}
	return &project, nil
}

// Update edits project fields. Status may only be set to draft or archived;
// publishing goes through Publish and archived projects stay archived.
func (s *ProjectService) Update(actor Actor, slug string, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.editableProject(actor, slug)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, response.NewBadRequest("title is required")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Tags != nil {
		updates["tags"] = models.NormalizeTags(*req.Tags)
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.IsFeatured != nil {
		updates["is_featured"] = *req.IsFeatured
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			updates["category_id"] = nil
		} else {
			if err := s.checkCategory(*req.CategoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *req.CategoryID
		}
	}
	if req.Status != nil && *req.Status != project.Status {
		switch *req.Status {
		case models.ProjectStatusDraft, models.ProjectStatusArchived:
		default:
			return nil, response.NewBadRequest("status must be draft or archived")
		}
		if project.Status == models.ProjectStatusArchived {
			return nil, ErrProjectArchived
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := s.db.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if err := s.db.Preload("Category").First(project, project.ID).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Publish marks the project published. published_at is stamped by the first
// publish only.
func (s *ProjectService) Publish(actor Actor, slug string) (*models.Project, error) {
	project, err := s.editableProject(actor, slug)
	if err != nil {
		return nil, err
	}
	if project.Status == models.ProjectStatusArchived {
		return nil, ErrProjectArchived
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Project{}).
			Where("id = ? AND status <> ?", project.ID, models.ProjectStatusArchived).
			Updates(map[string]interface{}{
				"status":       models.ProjectStatusPublished,
				"published_at": gorm.Expr("COALESCE(published_at, ?)", time.Now()),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectArchived
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(project, project.ID).Error; err != nil {
		return nil, err
	}
	return project, nil
}

// Archive moves the project to its terminal state.
func (s *ProjectService) Archive(actor Actor, slug string) (*models.Project, error) {
	project, err := s.editableProject(actor, slug)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectStatusArchived {
		if err := s.db.Model(project).Update("status", models.ProjectStatusArchived).Error; err != nil {
			return nil, err
		}
	}
	return project, nil
}

// Delete removes the project; media links, comments and likes cascade.
func (s *ProjectService) Delete(actor Actor, slug string) error {
	project, err := s.editableProject(actor, slug)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Project{}, project.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return tx.Model(&models.Profile{}).
			Where("user_id = ? AND total_projects > 0", project.CreatorID).
			UpdateColumn("total_projects", gorm.Expr("total_projects - ?", 1)).Error
	})
	if err != nil {
		return err
	}
	if project.ThumbnailKey != "" {
		deleteBlob(context.Background(), s.store, project.ThumbnailKey)
	}
	return nil
}

// UpdateThumbnail stores a new thumbnail image for a project the actor may
// edit and removes the previous blob.
func (s *ProjectService) UpdateThumbnail(ctx context.Context, actor Actor, slug, filename string, size int64, r io.Reader) (*models.Project, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !pictureExtensions[ext] {
		return nil, response.NewBadRequest("thumbnail must be a jpg, png or gif image")
	}
	if s.storageCfg != nil && size > s.storageCfg.MaxUploadSize {
		return nil, response.NewBadRequest("file is too large")
	}
	project, err := s.editableProject(actor, slug)
	if err != nil {
		return nil, err
	}

	oldKey := project.ThumbnailKey
	key, err := replaceBlob(ctx, s.store, "thumbnails", ext, r, func(key string) error {
		return s.db.Model(project).Update("thumbnail_key", key).Error
	})
	if err != nil {
		return nil, err
	}
	project.ThumbnailKey = key
	if oldKey != "" {
		deleteBlob(ctx, s.store, oldKey)
	}
	return project, nil
}

// OpenThumbnail streams the thumbnail of a project the viewer can see.
func (s *ProjectService) OpenThumbnail(ctx context.Context, viewer Actor, slug string) (io.ReadCloser, string, error) {
	project, _, err := s.viewableProject(viewer, slug)
	if err != nil {
		return nil, "", err
	}
	if project.ThumbnailKey == "" {
		return nil, "", response.NewNotFound("thumbnail not set")
	}
	rc, err := s.store.Open(ctx, project.ThumbnailKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", response.NewNotFound("thumbnail not set")
		}
		return nil, "", err
	}
	return rc, project.ThumbnailKey, nil
}

// Detail returns the project page and counts the view.
func (s *ProjectService) Detail(actor Actor, slug string) (*ProjectDetail, error) {
	project, m, err := s.viewableProject(actor, slug)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.Project{}).
		Where("id = ?", project.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, err
	}
	metrics.ProjectViewed()

	if err := s.db.Preload("Creator").Preload("Category").Preload("Team").First(project, project.ID).Error; err != nil {
		return nil, err
	}

	media, err := listProjectMedia(s.db, project.ID)
	if err != nil {
		return nil, err
	}

	var comments []models.ProjectComment
	if err := s.db.Preload("Author").
		Where("project_id = ?", project.ID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	detail := &ProjectDetail{
		Project:      project,
		Media:        media,
		Comments:     comments,
		CommentCount: len(comments),
		CanEdit:      CanEditProject(actor, project, m),
		CanComment:   CanCommentProject(actor, project, m),
	}
	if actor.Authenticated() {
		var n int64
		if err := s.db.Model(&models.ProjectLike{}).
			Where("project_id = ? AND user_id = ?", project.ID, actor.UserID).
			Count(&n).Error; err != nil {
			return nil, err
		}
		detail.UserLiked = n > 0
	}
	return detail, nil
}

// Dashboard summarises the actor's own projects.
func (s *ProjectService) Dashboard(actor Actor) (*DashboardResponse, error) {
	var resp DashboardResponse

	type statusCount struct {
		Status string
		Total  int64
	}
	var rows []statusCount
	if err := s.db.Model(&models.Project{}).
		Select("status, COUNT(*) AS total").
		Where("creator_id = ?", actor.UserID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		resp.TotalProjects += r.Total
		switch r.Status {
		case models.ProjectStatusDraft:
			resp.DraftCount = r.Total
		case models.ProjectStatusPublished:
			resp.PublishedCount = r.Total
		case models.ProjectStatusArchived:
			resp.ArchivedCount = r.Total
		}
	}

	if err := s.db.Preload("Category").
		Where("creator_id = ?", actor.UserID).
		Order("created_at DESC, id DESC").
		Limit(dashboardRecent).
		Find(&resp.Recent).Error; err != nil {
		return nil, err
	}
	return &resp, nil
}

// Browse lists public, published projects.
func (s *ProjectService) Browse(req *BrowseRequest) (*BrowseResult, error) {
	query := s.db.Model(&models.Project{}).
		Where("projects.is_public = ? AND projects.status = ?", true, models.ProjectStatusPublished)

	if req.Category != "" {
		query = query.Where("projects.category_id IN (?)",
			s.db.Model(&models.ProjectCategory{}).Select("id").Where("slug = ?", req.Category))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("projects.title LIKE ? OR projects.description LIKE ? OR projects.tags LIKE ?", like, like, like)
	}

	sort := req.Sort
	order, ok := browseOrders[sort]
	if !ok {
		sort = "-created_at"
		order = browseOrders[sort]
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	if err := query.Preload("Creator").Preload("Category").
		Order(order).
		Offset((page - 1) * BrowsePageSize).
		Limit(BrowsePageSize).
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &BrowseResult{
		Items:    projects,
		Total:    total,
		Page:     page,
		PageSize: BrowsePageSize,
		Sort:     sort,
	}, nil
}

// Category returns one page of public, published projects in a category.
func (s *ProjectService) Category(slug string, page int) (*CategoryPage, error) {
	var category models.ProjectCategory
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, notFoundOr(err, ErrCategoryNotFound)
	}
	result, err := s.Browse(&BrowseRequest{Category: category.Slug, Page: page})
	if err != nil {
		return nil, err
	}
	return &CategoryPage{Category: &category, BrowseResult: result}, nil
}

func (s *ProjectService) ListCategories() ([]models.ProjectCategory, error) {
	var categories []models.ProjectCategory
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a browse category. Callers are expected to be admins.
func (s *ProjectService) CreateCategory(req *CreateCategoryRequest) (*models.ProjectCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("category name is required")
	}
	slug := utils.Slugify(name)
	if slug == "" {
		return nil, response.NewBadRequest("category name must contain letters or digits")
	}

	category := models.ProjectCategory{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		Icon:        strings.TrimSpace(req.Icon),
	}
	if err := s.db.Create(&category).Error; err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("category already exists")
		}
		return nil, err
	}
	return &category, nil
}
