package models

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User represents a registered account
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Password  string     `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	Email     string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string     `gorm:"size:150" json:"first_name"`
	LastName  string     `gorm:"size:150" json:"last_name"`
	Role      string     `gorm:"size:50;default:user" json:"role"`       // admin, user
	AuthType  string     `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// SplitFullName splits "Ada King Lovelace" into "Ada" and "King Lovelace".
func SplitFullName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

const (
	ProfileRoleCreator  = "creator"
	ProfileRoleAgency   = "agency"
	ProfileRoleEducator = "educator"
	ProfileRoleStudent  = "student"
	ProfileRoleOther    = "other"

	ThemeLight   = "light"
	ThemeDark    = "dark"
	ThemeMinimal = "minimal"
)

// Profile holds the portfolio settings and counters of a user; exactly one per user.
type Profile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio               string    `gorm:"size:500" json:"bio"`
	AvatarKey         string    `gorm:"size:500" json:"avatar_key,omitempty"`
	Role              string    `gorm:"size:20;default:creator" json:"role"`
	Website           string    `gorm:"size:255" json:"website"`
	Location          string    `gorm:"size:100" json:"location"`
	IsPublicPortfolio bool      `gorm:"index" json:"is_public_portfolio"`
	PortfolioTheme    string    `gorm:"size:50;default:light" json:"portfolio_theme"`
	TotalProjects     int64     `gorm:"default:0" json:"total_projects"`
	TotalViews        int64     `gorm:"default:0" json:"total_views"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// NewProfile returns the profile created alongside a new user.
func NewProfile(userID uint) *Profile {
	return &Profile{
		UserID:            userID,
		Role:              ProfileRoleCreator,
		IsPublicPortfolio: true,
		PortfolioTheme:    ThemeLight,
	}
}

func ValidProfileRole(role string) bool {
	switch role {
	case ProfileRoleCreator, ProfileRoleAgency, ProfileRoleEducator, ProfileRoleStudent, ProfileRoleOther:
		return true
	}
	return false
}

func ValidTheme(theme string) bool {
	switch theme {
	case ThemeLight, ThemeDark, ThemeMinimal:
		return true
	}
	return false
}
