package models

import (
	"strings"
	"time"
)

const (
	ProjectStatusDraft     = "draft"
	ProjectStatusPublished = "published"
	ProjectStatusArchived  = "archived"
)

// ProjectCategory groups projects for browsing.
type ProjectCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Description string `gorm:"size:500" json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`
}

func (ProjectCategory) TableName() string { return "project_categories" }

// Project is a creative work owned by a user and optionally by a team.
type Project struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Title        string           `gorm:"size:255;not null" json:"title"`
	Slug         string           `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Description  string           `gorm:"type:text" json:"description"`
	CreatorID    uint             `gorm:"index:idx_projects_creator_status;not null" json:"creator_id"`
	Creator      *User            `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	TeamID       *uint            `gorm:"index" json:"team_id"`
	Team         *Team            `gorm:"foreignKey:TeamID;constraint:OnDelete:SET NULL" json:"team,omitempty"`
	CategoryID   *uint            `gorm:"index" json:"category_id"`
	Category     *ProjectCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Tags         string           `gorm:"size:500" json:"tags"` // comma separated
	ThumbnailKey string           `gorm:"size:500" json:"thumbnail_key,omitempty"`
	Status       string           `gorm:"size:20;index:idx_projects_creator_status;index:idx_projects_public_status;default:draft" json:"status"`
	IsPublic     bool             `gorm:"index:idx_projects_public_status" json:"is_public"`
	IsFeatured   bool             `json:"is_featured"`
	ViewCount    int64            `gorm:"default:0" json:"view_count"`
	LikeCount    int64            `gorm:"default:0" json:"like_count"`
	CreatedAt    time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	PublishedAt  *time.Time       `json:"published_at"`

	Media    []ProjectMedia   `gorm:"constraint:OnDelete:CASCADE" json:"media,omitempty"`
	Comments []ProjectComment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Likes    []ProjectLike    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Project) TableName() string { return "projects" }

// TagList returns the trimmed, non-empty tags.
func (p *Project) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// NormalizeTags rewrites "a, ,b ,a" as "a,b".
func NormalizeTags(tags string) string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return strings.Join(out, ",")
}

// ProjectComment is feedback left on a project.
type ProjectComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index:idx_comments_project_created;not null" json:"project_id"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_comments_project_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectComment) TableName() string { return "project_comments" }

// ProjectLike records that a user likes a project; at most one per pair.
type ProjectLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_like_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_like_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectLike) TableName() string { return "project_likes" }
