package services

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"path/filepath"

	"github.com/mediafolio/mediafolio/internal/metrics"
	"github.com/mediafolio/mediafolio/internal/models"
	"github.com/mediafolio/mediafolio/internal/storage"
	"github.com/mediafolio/mediafolio/internal/utils"
	"github.com/mediafolio/mediafolio/pkg/logger"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
	"gorm.io/gorm"
)

// MediaProcessor fills in the typed details of freshly uploaded assets and
// moves them out of the processing state.
type MediaProcessor struct {
	db    *gorm.DB
	store storage.Storage
	log   zerolog.Logger
}

func NewMediaProcessor(db *gorm.DB, store storage.Storage) *MediaProcessor {
	return &MediaProcessor{db: db, store: store, log: logger.Component("media_processor")}
}

// Process handles one task. Assets that were deleted or already processed
// are skipped, so redelivered tasks are harmless.
func (p *MediaProcessor) Process(ctx context.Context, task *MediaTask) error {
	var asset models.MediaAsset
	if err := p.db.First(&asset, task.MediaID).Error; err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if asset.Status != models.MediaStatusProcessing {
		return nil
	}

	details, procErr := p.inspect(ctx, &asset)

	updates := map[string]interface{}{}
	if procErr != nil {
		p.log.Warn().Err(procErr).Uint("media_id", asset.ID).Str("file_type", asset.FileType).Msg("processing failed")
		updates["status"] = models.MediaStatusError
		updates["processing_error"] = utils.TruncateRunes(procErr.Error(), 500)
	} else {
		updates["status"] = models.MediaStatusReady
		updates["processing_error"] = ""
		if details != nil {
			if err := asset.SetDetails(details); err != nil {
				return err
			}
			updates["details"] = asset.Details
		}
	}

	result := p.db.Model(&models.MediaAsset{}).
		Where("id = ? AND status = ?", asset.ID, models.MediaStatusProcessing).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		metrics.MediaProcessed(updates["status"].(string))
		p.log.Debug().Uint("media_id", asset.ID).Interface("status", updates["status"]).Msg("media processed")
	}
	return nil
}

// inspect returns the details payload for the asset's type, merged over
// whatever the owner already set.
func (p *MediaProcessor) inspect(ctx context.Context, asset *models.MediaAsset) (interface{}, error) {
	switch asset.FileType {
	case models.FileTypeImage:
		d, err := asset.ImageDetails()
		if err != nil {
			return nil, err
		}
		rc, err := p.store.Open(ctx, asset.FileKey)
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		cfg, format, err := image.DecodeConfig(rc)
		if err != nil {
			return nil, fmt.Errorf("decode image header: %w", err)
		}
		d.Format, d.Width, d.Height = format, cfg.Width, cfg.Height
		return d, nil

	case models.FileTypeVideo:
		return asset.VideoDetails()

	case models.FileTypeAudio:
		return asset.AudioDetails()

	case models.FileTypeDocument:
		d, err := asset.DocumentDetails()
		if err != nil {
			return nil, err
		}
		if d.DocumentType == "" {
			d.DocumentType = models.DefaultDocumentType(filepath.Ext(asset.OriginalName))
		}
		return d, nil
	}

	// other: nothing to inspect, the blob only has to exist
	if _, err := p.store.Size(ctx, asset.FileKey); err != nil {
		return nil, err
	}
	return nil, nil
}
