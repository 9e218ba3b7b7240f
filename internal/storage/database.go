package storage

import (
	"os"
	"path/filepath"

	"github.com/duelforge/arena/internal/effects"
	"github.com/duelforge/arena/internal/spells"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenAndMigrate opens the sqlite database and keeps the schema updated via
// AutoMigrate. TranslateError is enabled so duplicate-key violations surface
// as gorm.ErrDuplicatedKey, which the status-effect apply path relies on.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&SessionRecord{}, &effects.Effect{}, &spells.SlotPool{}, &spells.Cooldown{})
	if err != nil {
		return nil, err
	}
	return db, nil
}
