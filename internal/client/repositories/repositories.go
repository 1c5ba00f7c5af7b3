// Package repositories opens the local record store with the configured
// backend: one JSON file per collection, or a single SQLite database.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/anylogcli/internal/client/migrations"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/bookmarks"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/presets"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/settings"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/users"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/filex"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Store struct {
	Users     users.Repository
	Bookmarks bookmarks.Repository
	Presets   presets.Repository
	Settings  settings.Repository

	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open returns a store for backend. For "sqlite" an empty dsn means
// <dataDir>/anylog.db.
func Open(ctx context.Context, backend, dataDir, dsn string) (*Store, error) {
	switch backend {
	case "", BackendFile:
		return OpenFile(dataDir)
	case BackendSQLite:
		if dsn == "" {
			dir, err := filex.EnsureDir(dataDir)
			if err != nil {
				return nil, err
			}
			dsn = filepath.Join(dir, "anylog.db")
		}
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", common.ErrInvalidArgument, backend)
	}
}

func OpenFile(dataDir string) (*Store, error) {
	dir, err := filex.EnsureDir(dataDir)
	if err != nil {
		return nil, err
	}
	return &Store{
		Users:     users.NewFileRepository(dir),
		Bookmarks: bookmarks.NewFileRepository(dir),
		Presets:   presets.NewFileRepository(dir),
		Settings:  settings.NewFileRepository(dir),
	}, nil
}

func OpenSQLite(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// between our own transactions.
	db.SetMaxOpenConns(1)

	return &Store{
		Users:     users.NewSQLiteRepository(db),
		Bookmarks: bookmarks.NewSQLiteRepository(db),
		Presets:   presets.NewSQLiteRepository(db),
		Settings:  settings.NewSQLiteRepository(db),
		close:     db.Close,
	}, nil
}
