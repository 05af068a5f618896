package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mediafolio/mediafolio/internal/config"
	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/logger"
	"github.com/mediafolio/mediafolio/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// sniffLen is how much of an upload is buffered for MIME detection.
const sniffLen = 3072

const (
	maxMediaTitle       = 255
	maxMediaDescription = 500
)

type MediaService struct {
	db    *gorm.DB
	store storage.Storage
	cfg   *config.StorageConfig
	queue TaskQueue
}

func NewMediaService(db *gorm.DB, store storage.Storage, cfg *config.StorageConfig, queue TaskQueue) *MediaService {
	return &MediaService{db: db, store: store, cfg: cfg, queue: queue}
}

type UploadInput struct {
	Filename    string
	Size        int64
	Body        io.Reader
	Title       string
	Description string
	IsPublic    bool
}

type LibraryRequest struct {
	Type   string `form:"type"`
	Search string `form:"search"`
}

type LibraryResult struct {
	Items  []models.MediaAsset `json:"items"`
	Counts map[string]int64    `json:"counts"`
}

type MediaDetail struct {
	Asset    *models.MediaAsset `json:"asset"`
	Projects []models.Project   `json:"projects"`
	CanEdit  bool               `json:"can_edit"`
}

type UpdateMediaRequest struct {
	Title       *string         `json:"title" binding:"omitempty,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=500"`
	IsPublic    *bool           `json:"is_public"`
	Details     json.RawMessage `json:"details"`
}

// Upload stores the blob, records the asset as processing and queues it
// for inspection. The blob is removed again if the row cannot be written.
func (s *MediaService) Upload(ctx context.Context, actor Actor, in *UploadInput) (*models.MediaAsset, error) {
	if !actor.Authenticated() {
		return nil, response.NewUnauthorized("authentication required")
	}
	if in.Size <= 0 {
		return nil, response.NewBadRequest("file is empty")
	}
	if in.Size > s.cfg.MaxUploadSize {
		return nil, response.NewBadRequest("file is too large")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if !s.cfg.IsAllowedExtension(ext) {
		return nil, response.NewBadRequest("file type ." + ext + " is not allowed")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	mime := mimetype.Detect(head)

	title := strings.TrimSpace(in.Title)
	if utils.TooLong(title, maxMediaTitle) {
		return nil, response.NewBadRequest("title must be at most 255 characters")
	}
	if utils.TooLong(in.Description, maxMediaDescription) {
		return nil, response.NewBadRequest("description must be at most 500 characters")
	}
	if title == "" {
		title = utils.TruncateRunes(strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename)), maxMediaTitle)
	}

	key := storage.NewKey("media", time.Now(), ext)
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), s.cfg.MaxUploadSize+1)
	written, err := s.store.Save(ctx, key, body)
	if err != nil {
		return nil, err
	}
	if written > s.cfg.MaxUploadSize {
		s.removeBlob(ctx, key)
		return nil, response.NewBadRequest("file is too large")
	}

	asset := models.MediaAsset{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		FileKey:      key,
		OriginalName: filepath.Base(in.Filename),
		FileType:     models.FileTypeForExtension(ext),
		FileSize:     written,
		MimeType:     mime.String(),
		OwnerID:      actor.UserID,
		Status:       models.MediaStatusProcessing,
		IsPublic:     in.IsPublic,
	}
	if err := s.db.Create(&asset).Error; err != nil {
		s.removeBlob(ctx, key)
		return nil, err
	}
	metrics.MediaUploaded(asset.FileType)

	if s.queue != nil {
		if err := s.queue.Enqueue(&MediaTask{MediaID: asset.ID}); err != nil {
			// The requeue job picks up assets stuck in processing.
			logger.Warn().Err(err).Uint("media_id", asset.ID).Msg("failed to enqueue media task")
		}
	}
	return &asset, nil
}

// Library lists the actor's own assets, newest first, with per-type counts.
func (s *MediaService) Library(actor Actor, req *LibraryRequest) (*LibraryResult, error) {
	query := s.db.Model(&models.MediaAsset{}).Where("owner_id = ?", actor.UserID)
	if req.Type != "" {
		query = query.Where("file_type = ?", req.Type)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var items []models.MediaAsset
	if err := query.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	type typeCount struct {
		FileType string
		Total    int64
	}
	var rows []typeCount
	if err := s.db.Model(&models.MediaAsset{}).
		Select("file_type, COUNT(*) AS total").
		Where("owner_id = ?", actor.UserID).
		Group("file_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.FileTypeImage:    0,
		models.FileTypeVideo:    0,
		models.FileTypeAudio:    0,
		models.FileTypeDocument: 0,
		models.FileTypeOther:    0,
	}
	for _, r := range rows {
		counts[r.FileType] = r.Total
	}
	return &LibraryResult{Items: items, Counts: counts}, nil
}

// visibleAsset loads an asset the actor may see. Hidden assets look missing.
func (s *MediaService) visibleAsset(actor Actor, id uint) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	if err := s.db.First(&asset, id).Error; err != nil {
		return nil, notFoundOr(err, ErrMediaNotFound)
	}
	if !asset.IsPublic && !actor.Is(asset.OwnerID) {
		return nil, ErrMediaNotFound
	}
	return &asset, nil
}

func (s *MediaService) ownedAsset(actor Actor, id uint) (*models.MediaAsset, error) {
	asset, err := s.visibleAsset(actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(asset.OwnerID) {
		return nil, ErrPermissionDenied
	}
	return asset, nil
}

// Get returns an asset with the projects that use it which the actor can see.
func (s *MediaService) Get(actor Actor, id uint) (*MediaDetail, error) {
	asset, err := s.visibleAsset(actor, id)
	if err != nil {
		return nil, err
	}

	var used []models.Project
	if err := s.db.
		Joins("JOIN project_media ON project_media.project_id = projects.id").
		Where("project_media.media_id = ?", asset.ID).
		Order("projects.created_at DESC").
		Find(&used).Error; err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(used))
	for i := range used {
		m, err := loadMembership(s.db, used[i].TeamID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if CanViewProject(actor, &used[i], m) {
			projects = append(projects, used[i])
		}
	}

	return &MediaDetail{Asset: asset, Projects: projects, CanEdit: actor.Is(asset.OwnerID)}, nil
}

// Open streams the blob of a visible asset.
func (s *MediaService) Open(ctx context.Context, actor Actor, id uint) (io.ReadCloser, *models.MediaAsset, error) {
	asset, err := s.visibleAsset(actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, asset.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, response.NewNotFound("media file is missing")
		}
		return nil, nil, err
	}
	return rc, asset, nil
}

// Update edits metadata. Details must decode as the payload of the asset's type.
func (s *MediaService) Update(actor Actor, id uint, req *UpdateMediaRequest) (*models.MediaAsset, error) {
	asset, err := s.ownedAsset(actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
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
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if len(req.Details) > 0 && string(req.Details) != "null" {
		details, err := models.DecodeDetails(asset.FileType, req.Details)
		if err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
		if err := asset.SetDetails(details); err != nil {
			return nil, response.NewBadRequest(err.Error())
		}
		updates["details"] = datatypes.JSON(asset.Details)
	}

	if len(updates) > 0 {
		if err := s.db.Model(asset).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if err := s.db.First(asset, asset.ID).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// Delete removes the asset row, its project attachments cascade, then the blob.
func (s *MediaService) Delete(ctx context.Context, actor Actor, id uint) error {
	asset, err := s.ownedAsset(actor, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(asset).Error; err != nil {
		return err
	}
	s.removeBlob(ctx, asset.FileKey)
	return nil
}

// removeBlob deletes a blob whose row is gone. Failures leave an orphan
// file, recorded in the system log for manual cleanup.
func (s *MediaService) removeBlob(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to delete blob")
		LogWarning("Media", "DeleteBlob", err.Error(), nil, "", "", map[string]string{"key": key})
	}
}
