package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/resqlink/resq-go/internal/client/models"
)

// GetOrCreateProfile looks up the profile keyed by the session's user id and
// lazily creates it on first login: default role citizen, name derived from
// sign-up metadata or the email's local part, city from the configured
// default.
func (c *RESTClient) GetOrCreateProfile(ctx context.Context, session *models.Session) (*models.Profile, error) {
	q := url.Values{}
	q.Set("id", "eq."+session.UserID)
	q.Set("select", "*")
	q.Set("limit", "1")

	var rows []models.Profile
	if err := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &rows, true); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		p := rows[0]
		return &p, nil
	}

	now := c.now().UTC()
	fresh := models.Profile{
		ID:        session.UserID,
		FullName:  models.DisplayNameFor(session),
		Email:     session.Email,
		Role:      models.RoleCitizen,
		City:      c.defaultCity,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created []models.Profile
	err := c.do(ctx, http.MethodPost, "/rest/v1/profiles", nil, []models.Profile{fresh}, &created, true)
	if err != nil {
		// Another device may have created the row between our lookup and
		// insert; fall back to reading what won.
		if KindOf(err) == KindConflict {
			var again []models.Profile
			if rerr := c.do(ctx, http.MethodGet, "/rest/v1/profiles", q, nil, &again, true); rerr == nil && len(again) > 0 {
				p := again[0]
				return &p, nil
			}
		}
		return nil, err
	}
	if len(created) > 0 {
		p := created[0]
		return &p, nil
	}
	return &fresh, nil
}
