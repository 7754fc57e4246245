package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/resqlink/resq-go/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the stored value for key, or "" when the key is absent.
func (r *SQLiteRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM auth_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get auth_state[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value string) error {
	return set(ctx, r.db, key, value)
}

// SetPair writes both tokens in one transaction.
func (r *SQLiteRepository) SetPair(ctx context.Context, accessToken, refreshToken string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, KeyAccessToken, accessToken); err != nil {
			return err
		}
		return set(ctx, tx, KeyRefreshToken, refreshToken)
	})
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete auth_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM auth_state`)
	if err != nil {
		return fmt.Errorf("failed to clear auth_state: %w", err)
	}
	return nil
}

func set(ctx context.Context, db dbx.DBTX, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO auth_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set auth_state[%s]: %w", key, err)
	}
	return nil
}
