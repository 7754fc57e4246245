// Package store wires the client's local SQLite cache: schema migration and
// repository construction.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/resqlink/resq-go/internal/client/migrations"
	"github.com/resqlink/resq-go/internal/client/repositories/drafts"
	"github.com/resqlink/resq-go/internal/client/repositories/tokens"
)

// Repositories bundles the local persistence the client uses between runs:
// the auth token pair and queued complaint drafts.
type Repositories struct {
	Tokens tokens.Repository
	Drafts drafts.Repository
	DB     *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local cache at dsn, applies
// pending migrations, and returns the repository set.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening local cache: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating local cache: %w", err)
	}

	return &Repositories{
		Tokens: tokens.NewSQLiteRepository(db),
		Drafts: drafts.NewSQLiteRepository(db),
		DB:     db,
	}, nil
}
