// Package drafts queues complaints filed while the backend is unreachable,
// so a report survives restarts until it can be pushed.
package drafts

import (
	"context"

	"github.com/resqlink/resq-go/internal/client/models"
)

type Repository interface {
	Insert(ctx context.Context, d *models.ComplaintDraft) error
	GetAll(ctx context.Context) ([]*models.ComplaintDraft, error)
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
