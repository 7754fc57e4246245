package drafts

import (
	"context"
	"fmt"

	"github.com/resqlink/resq-go/internal/client/models"
	"github.com/resqlink/resq-go/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, d *models.ComplaintDraft) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO complaint_drafts (id, title, description, category, location, photo_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.Description, d.Category, d.Location, d.PhotoPath, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert draft %s: %w", d.ID, err)
	}
	return nil
}

// GetAll returns queued drafts oldest-first, so sync pushes reports in the
// order they were filed.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.ComplaintDraft, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, category, location, photo_path, created_at
		FROM complaint_drafts ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var result []*models.ComplaintDraft
	for rows.Next() {
		var d models.ComplaintDraft
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Category, &d.Location, &d.PhotoPath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft row: %w", err)
		}
		result = append(result, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM complaint_drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM complaint_drafts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}
	return n, nil
}
