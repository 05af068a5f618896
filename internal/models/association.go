package models

import "time"

// ProjectMedia attaches a media asset to a project. Order is the position
// at attach time and is never renumbered.
type ProjectMedia struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	ProjectID uint        `gorm:"uniqueIndex:idx_project_media;not null" json:"project_id"`
	MediaID   uint        `gorm:"uniqueIndex:idx_project_media;not null" json:"media_id"`
	Media     *MediaAsset `gorm:"foreignKey:MediaID" json:"media,omitempty"`
	Order     int         `gorm:"column:sort_order;index;default:0" json:"order"`
	Caption   string      `gorm:"size:500" json:"caption"`
	IsCover   bool        `json:"is_cover"`
	AddedAt   time.Time   `gorm:"autoCreateTime" json:"added_at"`
}

func (ProjectMedia) TableName() string { return "project_media" }
