package models

import (
	"fmt"
	"strings"

	"github.com/mediafolio/mediafolio/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database. Driver errors for unique
// violations are translated to gorm.ErrDuplicatedKey.
func Open(cfg *config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg, logger.Warn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// sqliteDSN turns on foreign key enforcement, which sqlite leaves off per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Migrate creates or updates every table on db.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Profile{},
		&RefreshToken{},
		&Team{},
		&TeamMembership{},
		&ProjectCategory{},
		&Project{},
		&MediaAsset{},
		&ProjectMedia{},
		&ProjectComment{},
		&ProjectLike{},
		&SystemLog{},
		&JobLock{},
	)
}

func AutoMigrate() error {
	return Migrate(DB)
}

func GetDB() *gorm.DB {
	return DB
}

var defaultCategories = []ProjectCategory{
	{Name: "Photography", Slug: "photography", Icon: "camera"},
	{Name: "Illustration", Slug: "illustration", Icon: "pen"},
	{Name: "Graphic Design", Slug: "graphic-design", Icon: "palette"},
	{Name: "Video", Slug: "video", Icon: "film"},
	{Name: "Music", Slug: "music", Icon: "music"},
	{Name: "Writing", Slug: "writing", Icon: "book"},
}

// SeedDefaultData creates the default project categories if they do not exist.
func SeedDefaultData(db *gorm.DB) error {
	for _, c := range defaultCategories {
		category := c
		if err := db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return err
		}
	}
	return nil
}
