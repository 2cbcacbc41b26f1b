package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const memoryDSN = "file::memory:?cache=shared&_foreign_keys=1"

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, path := buildSQLiteDSN(cfg)
	if path != "" {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// buildSQLiteDSN returns the DSN and, for file databases, the path whose
// directory must exist. File databases use WAL and take the write lock when a
// transaction begins, so concurrent status updates wait on the busy timeout
// instead of failing a lock upgrade.
func buildSQLiteDSN(cfg Config) (dsn, path string) {
	if cfg.DSN != "" {
		return cfg.DSN, ""
	}

	path = strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return memoryDSN, ""
	}
	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate",
		filepath.ToSlash(path)), path
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
