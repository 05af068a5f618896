package services

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/gorm"
)


type ProfileService struct {
	db         *gorm.DB
	store      storage.Storage
	storageCfg *config.StorageConfig
}

func NewProfileService(db *gorm.DB, store storage.Storage, storageCfg *config.StorageConfig) *ProfileService {
	return &ProfileService{db: db, store: store, storageCfg: storageCfg}
}

type ProfileView struct {
	User     *models.User     `json:"user"`
	Profile  *models.Profile  `json:"profile"`
	Projects []models.Project `json:"projects"`
	IsOwner  bool             `json:"is_owner"`
}

type UpdateProfileRequest struct {
	FirstName         *string `json:"first_name" binding:"omitempty,max=150"`
	LastName          *string `json:"last_name" binding:"omitempty,max=150"`
	Email             *string `json:"email" binding:"omitempty,email"`
	Bio               *string `json:"bio" binding:"omitempty,max=500"`
	Role              *string `json:"role"`
	Website           *string `json:"website"`
	Location          *string `json:"location" binding:"omitempty,max=100"`
	IsPublicPortfolio *bool   `json:"is_public_portfolio"`
	PortfolioTheme    *string `json:"portfolio_theme"`
}

func (s *ProfileService) loadOwner(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if user.Profile == nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// GetProfile returns a portfolio page. Views by anyone but the owner bump total_views.
func (s *ProfileService) GetProfile(viewer Actor, username string) (*ProfileView, error) {
	user, err := s.loadOwner(username)
	if err != nil {
		return nil, err
	}
	isOwner := viewer.Is(user.ID)
	if !user.Profile.IsPublicPortfolio && !isOwner {
		return nil, ErrPrivatePortfolio
	}

	if !isOwner {
		if err := s.db.Model(&models.Profile{}).
			Where("id = ?", user.Profile.ID).
			UpdateColumn("total_views", gorm.Expr("total_views + ?", 1)).Error; err != nil {
			return nil, err
		}
		if err := s.db.First(user.Profile, user.Profile.ID).Error; err != nil {
			return nil, err
		}
	}

	var projects []models.Project
	if err := s.db.Preload("Category").
		Where("creator_id = ? AND is_public = ? AND status = ?", user.ID, true, models.ProjectStatusPublished).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProfileView{User: user, Profile: user.Profile, Projects: projects, IsOwner: isOwner}, nil
}

// UpdateProfile saves user and profile fields together.
func (s *ProfileService) UpdateProfile(actor Actor, req *UpdateProfileRequest) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}

	userUpdates := map[string]interface{}{}
	profileUpdates := map[string]interface{}{}

	if req.FirstName != nil {
		userUpdates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		userUpdates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, response.NewBadRequest("a valid email is required")
		}
		userUpdates["email"] = email
	}
	if req.Bio != nil {
		if utils.TooLong(*req.Bio, 500) {
			return nil, response.NewBadRequest("bio must be at most 500 characters")
		}
		profileUpdates["bio"] = *req.Bio
	}
	if req.Role != nil {
		if !models.ValidProfileRole(*req.Role) {
			return nil, response.NewBadRequest("invalid profile role")
		}
		profileUpdates["role"] = *req.Role
	}
	if req.Website != nil {
		website := strings.TrimSpace(*req.Website)
		if website != "" && !validWebsite(website) {
			return nil, response.NewBadRequest("website must be an http or https URL")
		}
		profileUpdates["website"] = website
	}
	if req.Location != nil {
		profileUpdates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.IsPublicPortfolio != nil {
		profileUpdates["is_public_portfolio"] = *req.IsPublicPortfolio
	}
	if req.PortfolioTheme != nil {
		if !models.ValidTheme(*req.PortfolioTheme) {
			return nil, response.NewBadRequest("invalid portfolio theme")
		}
		profileUpdates["portfolio_theme"] = *req.PortfolioTheme
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if email, ok := userUpdates["email"]; ok {
			var n int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, actor.UserID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return response.NewConflict("email already registered")
			}
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", actor.UserID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			result := tx.Model(&models.Profile{}).Where("user_id = ?", actor.UserID).Updates(profileUpdates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		return nil
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, response.NewConflict("email already registered")
		}
		return nil, err
	}

	var user models.User
	if err := s.db.Preload("Profile").First(&user, actor.UserID).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return &user, nil
}

func validWebsite(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// UpdateAvatar stores a new avatar image and removes the previous blob.
func (s *ProfileService) UpdateAvatar(ctx context.Context, actor Actor, filename string, size int64, r io.Reader) (*models.Profile, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !pictureExtensions[ext] {
		return nil, response.NewBadRequest("avatar must be a jpg, png or gif image")
	}
	if s.storageCfg != nil && size > s.storageCfg.MaxUploadSize {
		return nil, response.NewBadRequest("file is too large")
	}

	var profile models.Profile
	if err := s.db.Where("user_id = ?", actor.UserID).First(&profile).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}

	oldKey := profile.AvatarKey
	if _, err := replaceBlob(ctx, s.store, "avatars", ext, r, func(key string) error {
		return s.db.Model(&profile).Update("avatar_key", key).Error
	}); err != nil {
		return nil, err
	}
	if oldKey != "" {
		deleteBlob(ctx, s.store, oldKey)
	}
	return &profile, nil
}

// OpenAvatar streams the avatar of a user whose portfolio the viewer may see.
func (s *ProfileService) OpenAvatar(ctx context.Context, viewer Actor, username string) (io.ReadCloser, string, error) {
	user, err := s.loadOwner(username)
	if err != nil {
		return nil, "", err
	}
	if !user.Profile.IsPublicPortfolio && !viewer.Is(user.ID) {
		return nil, "", ErrPrivatePortfolio
	}
	if user.Profile.AvatarKey == "" {
		return nil, "", response.NewNotFound("avatar not set")
	}
	rc, err := s.store.Open(ctx, user.Profile.AvatarKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", response.NewNotFound("avatar not set")
		}
		return nil, "", err
	}
	return rc, user.Profile.AvatarKey, nil
}
