package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kmankan/converse-chronicle/internal/config"
)

// NewSQLite opens (and creates if needed) a SQLite database file. Foreign key
// enforcement is per connection in SQLite and off by default, so it is
// enabled through the DSN, which covers every connection the pool opens.
// Child rows must cascade with their Recording on any connection.
func NewSQLite(cfg config.DatabaseConfig) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	return sql.Open("sqlite", "file:"+cfg.Path+"?_pragma=foreign_keys(1)")
}
