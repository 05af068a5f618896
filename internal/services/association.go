package services

import (
	"strings"

	"github.com/mediafolio/mediafolio/internal/models"
	"gorm.io/gorm"
)

type AssociationService struct {
	db *gorm.DB
}

func NewAssociationService(db *gorm.DB) *AssociationService {
	return &AssociationService{db: db}
}

type AddMediaRequest struct {
	MediaID uint   `json:"media_id" binding:"required"`
	Caption string `json:"caption" binding:"max=500"`
	IsCover bool   `json:"is_cover"`
}

func listProjectMedia(db *gorm.DB, projectID uint) ([]models.ProjectMedia, error) {
	var items []models.ProjectMedia
	if err := db.Preload("Media").
		Where("project_id = ?", projectID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddMedia attaches one of the actor's assets to a project they can edit.
// The new item goes after the existing ones; a cover replaces the old cover.
func (s *AssociationService) AddMedia(actor Actor, slug string, req *AddMediaRequest) (*models.ProjectMedia, error) {
	var item models.ProjectMedia
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Where("slug = ?", slug).First(&project).Error; err != nil {
			return notFoundOr(err, ErrProjectNotFound)
		}
		m, err := loadMembership(tx, project.TeamID, actor.UserID)
		if err != nil {
			return err
		}
		if !CanViewProject(actor, &project, m) {
			return ErrProjectNotFound
		}
		if !CanEditProject(actor, &project, m) {
			return ErrPermissionDenied
		}

		var media models.MediaAsset
		if err := tx.Where("id = ? AND owner_id = ?", req.MediaID, actor.UserID).First(&media).Error; err != nil {
			return notFoundOr(err, ErrMediaNotFound)
		}

		var existing int64
		if err := tx.Model(&models.ProjectMedia{}).Where("project_id = ?", project.ID).Count(&existing).Error; err != nil {
			return err
		}

		if req.IsCover {
			if err := tx.Model(&models.ProjectMedia{}).
				Where("project_id = ? AND is_cover = ?", project.ID, true).
				Update("is_cover", false).Error; err != nil {
				return err
			}
		}

		item = models.ProjectMedia{
			ProjectID: project.ID,
			MediaID:   media.ID,
			Order:     int(existing),
			Caption:   strings.TrimSpace(req.Caption),
			IsCover:   req.IsCover,
		}
		if err := tx.Create(&item).Error; err != nil {
			if isDuplicate(err) {
				return ErrMediaAttached
			}
			return err
		}
		item.Media = &media
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveMedia detaches an item. Remaining items keep their order values.
func (s *AssociationService) RemoveMedia(actor Actor, id uint) error {
	var item models.ProjectMedia
	if err := s.db.First(&item, id).Error; err != nil {
		return notFoundOr(err, ErrAssociationMissing)
	}
	var project models.Project
	if err := s.db.First(&project, item.ProjectID).Error; err != nil {
		return notFoundOr(err, ErrAssociationMissing)
	}
	m, err := loadMembership(s.db, project.TeamID, actor.UserID)
	if err != nil {
		return err
	}
	if !CanViewProject(actor, &project, m) {
		return ErrAssociationMissing
	}
	if !CanEditProject(actor, &project, m) {
		return ErrPermissionDenied
	}

	result := s.db.Delete(&models.ProjectMedia{}, item.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssociationMissing
	}
	return nil
}

// ListMedia returns a visible project's media in display order.
func (s *AssociationService) ListMedia(actor Actor, slug string) ([]models.ProjectMedia, error) {
	var project models.Project
	if err := s.db.Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, notFoundOr(err, ErrProjectNotFound)
	}
	m, err := loadMembership(s.db, project.TeamID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !CanViewProject(actor, &project, m) {
		return nil, ErrProjectNotFound
	}
	return listProjectMedia(s.db, project.ID)
}
