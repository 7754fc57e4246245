// Package services contains application services for the ResQ client:
// complaint reporting with an offline queue, and civic data browsing.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/resqlink/resq-go/internal/client/backend"
	"github.com/resqlink/resq-go/internal/client/models"
	"github.com/resqlink/resq-go/internal/client/repositories/drafts"
	"github.com/resqlink/resq-go/internal/filex"
	"github.com/resqlink/resq-go/internal/logging"
)

const photoBucket = "complaint-photos"

// ComplaintService files and tracks municipal complaints.
//
// Contract:
//   - Report: create a complaint (uploading any photo first); when the
//     backend is unreachable, queue the report locally instead of failing.
//   - SyncDrafts: push queued reports, oldest first, stopping at the first
//     reachability failure.
//   - ListMine / Comment: plain delegations to the hosted data backend.
type ComplaintService interface {
	Report(ctx context.Context, userID string, draft models.ComplaintDraft) (queued bool, created *models.Complaint, err error)
	SyncDrafts(ctx context.Context, userID string) (pushed int, err error)
	ListMine(ctx context.Context, userID string) ([]models.Complaint, error)
	Comment(ctx context.Context, userID, complaintID, body string) error
	PendingCount(ctx context.Context) (int, error)
}

type complaintService struct {
	api     backend.CivicAPI
	storage backend.StorageAPI
	drafts  drafts.Repository
	logger  logging.Logger
}

func NewComplaintService(api backend.CivicAPI, storage backend.StorageAPI, draftRepo drafts.Repository, logger logging.Logger) ComplaintService {
	return &complaintService{api: api, storage: storage, drafts: draftRepo, logger: logger}
}

func (s *complaintService) Report(ctx context.Context, userID string, draft models.ComplaintDraft) (bool, *models.Complaint, error) {
	created, err := s.push(ctx, userID, &draft)
	if err == nil {
		return false, created, nil
	}
	if !backend.IsUnavailable(err) {
		return false, nil, err
	}

	// Backend unreachable: keep the report, push it later.
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	if draft.PhotoPath != "" {
		// Copy the photo into the staging directory so the draft does not
		// depend on the original file still being there at sync time.
		if staged, err := stagePhoto(draft.ID, draft.PhotoPath); err == nil {
			draft.PhotoPath = staged
		} else {
			s.logger.Warn(ctx, "staging queued photo failed, keeping original path",
				"draft_id", draft.ID, "error", err)
		}
	}
	if err := s.drafts.Insert(ctx, &draft); err != nil {
		return false, nil, fmt.Errorf("queueing complaint draft: %w", err)
	}
	s.logger.Info(ctx, "complaint queued for later sync", "draft_id", draft.ID)
	return true, nil, nil
}

func (s *complaintService) SyncDrafts(ctx context.Context, userID string) (int, error) {
	pending, err := s.drafts.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading queued drafts: %w", err)
	}

	pushed := 0
	for _, d := range pending {
		if _, err := s.push(ctx, userID, d); err != nil {
			if backend.IsUnavailable(err) {
				return pushed, nil
			}
			return pushed, fmt.Errorf("pushing draft %s: %w", d.ID, err)
		}
		if err := s.drafts.DeleteByID(ctx, d.ID); err != nil {
			return pushed, fmt.Errorf("removing pushed draft %s: %w", d.ID, err)
		}
		removeStagedPhoto(d.PhotoPath)
		pushed++
	}
	return pushed, nil
}

// push uploads the draft's photo (if any) and creates the complaint record.
func (s *complaintService) push(ctx context.Context, userID string, d *models.ComplaintDraft) (*models.Complaint, error) {
	var photoURL string
	if d.PhotoPath != "" {
		data, err := os.ReadFile(d.PhotoPath)
		if err != nil {
			return nil, fmt.Errorf("reading photo %s: %w", d.PhotoPath, err)
		}
		key := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), filepath.Ext(d.PhotoPath))
		photoURL, err = s.storage.Upload(ctx, photoBucket, key, data, contentTypeFor(d.PhotoPath))
		if err != nil {
			return nil, err
		}
	}

	return s.api.CreateComplaint(ctx, &models.Complaint{
		UserID:      userID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Location:    d.Location,
		PhotoURL:    photoURL,
	})
}

func (s *complaintService) ListMine(ctx context.Context, userID string) ([]models.Complaint, error) {
	rows, err := s.api.ListMyComplaints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing complaints: %w", err)
	}
	return rows, nil
}

func (s *complaintService) Comment(ctx context.Context, userID, complaintID, body string) error {
	_, err := s.api.AddComment(ctx, &models.ComplaintComment{
		ComplaintID: complaintID,
		UserID:      userID,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("adding comment: %w", err)
	}
	return nil
}

func (s *complaintService) PendingCount(ctx context.Context) (int, error) {
	return s.drafts.Count(ctx)
}

const photoStageDir = "photo_queue"

// stagePhoto copies a draft's photo into the local staging directory and
// returns the staged path.
func stagePhoto(draftID, src string) (string, error) {
	dir, err := filex.EnsureSubDir(photoStageDir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, draftID+filepath.Ext(src))
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", err
	}
	return dst, nil
}

// removeStagedPhoto deletes a photo from the staging directory after its
// draft was pushed. Photos still at a user-provided path are left alone.
func removeStagedPhoto(path string) {
	if path != "" && filepath.Base(filepath.Dir(path)) == photoStageDir {
		_ = os.Remove(path)
	}
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
