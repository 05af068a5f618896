package services

import (
	"strings"

	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)

const maxCommentLength = 2000

type InteractionService struct {
	db *gorm.DB
}

func NewInteractionService(db *gorm.DB) *InteractionService {
	return &InteractionService{db: db}
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

func viewableProjectBySlug(db *gorm.DB, actor Actor, slug string) (*models.Project, *models.TeamMembership, error) {
	var project models.Project
	if err := db.Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, nil, notFoundOr(err, ErrProjectNotFound)
	}
	m, err := loadMembership(db, project.TeamID, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !CanViewProject(actor, &project, m) {
		return nil, nil, ErrProjectNotFound
	}
	return &project, m, nil
}

// Comment adds a comment to a project the actor may comment on.
func (s *InteractionService) Comment(actor Actor, slug string, req *CommentRequest) (*models.ProjectComment, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, response.NewBadRequest("comment cannot be empty")
	}
	if utils.TooLong(content, maxCommentLength) {
		return nil, response.NewBadRequest("comment is too long")
	}

	project, m, err := viewableProjectBySlug(s.db, actor, slug)
	if err != nil {
		return nil, err
	}
	if !CanCommentProject(actor, project, m) {
		return nil, ErrPermissionDenied
	}

	comment := models.ProjectComment{
		ProjectID: project.ID,
		AuthorID:  actor.UserID,
		Content:   content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment. Its author and the project's editors may do so.
func (s *InteractionService) DeleteComment(actor Actor, id uint) error {
	var comment models.ProjectComment
	if err := s.db.First(&comment, id).Error; err != nil {
		return notFoundOr(err, ErrCommentNotFound)
	}
	var project models.Project
	if err := s.db.First(&project, comment.ProjectID).Error; err != nil {
		return notFoundOr(err, ErrCommentNotFound)
	}
	m, err := loadMembership(s.db, project.TeamID, actor.UserID)
	if err != nil {
		return err
	}
	if !CanViewProject(actor, &project, m) {
		return ErrCommentNotFound
	}
	if !actor.Is(comment.AuthorID) && !CanEditProject(actor, &project, m) {
		return ErrPermissionDenied
	}
	return s.db.Delete(&models.ProjectComment{}, comment.ID).Error
}

// ToggleLike flips the actor's like on a project and returns the new state.
// like_count is recomputed from the likes table in the same transaction.
func (s *InteractionService) ToggleLike(actor Actor, slug string) (*LikeResult, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}

	var result LikeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, _, err := viewableProjectBySlug(tx, actor, slug)
		if err != nil {
			return err
		}

		removed := tx.Where("project_id = ? AND user_id = ?", project.ID, actor.UserID).Delete(&models.ProjectLike{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected > 0 {
			result.Liked = false
		} else {
			// Savepoint, so a lost insert race leaves the outer transaction usable.
			err := tx.Transaction(func(inner *gorm.DB) error {
				return inner.Create(&models.ProjectLike{ProjectID: project.ID, UserID: actor.UserID}).Error
			})
			if err != nil && !isDuplicate(err) {
				return err
			}
			result.Liked = true
		}

		if err := tx.Model(&models.ProjectLike{}).Where("project_id = ?", project.ID).Count(&result.LikeCount).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).
			Where("id = ?", project.ID).
			UpdateColumn("like_count", result.LikeCount).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.LikeToggled(result.Liked)
	return &result, nil
}
