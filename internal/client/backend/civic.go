package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/resqlink/resq-go/internal/client/models"
)

func (c *RESTClient) CreateComplaint(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	var created []models.Complaint
	if err := c.do(ctx, http.MethodPost, "/rest/v1/complaints", nil, []models.Complaint{*complaint}, &created, true); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		copied := *complaint
		return &copied, nil
	}
	out := created[0]
	return &out, nil
}

func (c *RESTClient) ListMyComplaints(ctx context.Context, userID string) ([]models.Complaint, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	var rows []models.Complaint
	if err := c.do(ctx, http.MethodGet, "/rest/v1/complaints", q, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) AddComment(ctx context.Context, comment *models.ComplaintComment) (*models.ComplaintComment, error) {
	var created []models.ComplaintComment
	if err := c.do(ctx, http.MethodPost, "/rest/v1/complaint_comments", nil, []models.ComplaintComment{*comment}, &created, true); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		copied := *comment
		return &copied, nil
	}
	out := created[0]
	return &out, nil
}

func (c *RESTClient) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	q := url.Values{}
	q.Set("active", "eq.true")
	q.Set("order", "reported_at.desc")

	var rows []models.Incident
	if err := c.do(ctx, http.MethodGet, "/rest/v1/incidents", q, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) ListEvents(ctx context.Context) ([]models.CivicEvent, error) {
	q := url.Values{}
	q.Set("order", "starts_at.asc")

	var rows []models.CivicEvent
	if err := c.do(ctx, http.MethodGet, "/rest/v1/events", q, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) ListRewards(ctx context.Context) ([]models.RewardItem, error) {
	q := url.Values{}
	q.Set("available", "eq.true")
	q.Set("order", "cost.asc")

	var rows []models.RewardItem
	if err := c.do(ctx, http.MethodGet, "/rest/v1/rewards", q, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

// RedeemReward invokes the server-side redemption routine, which checks and
// deducts the point balance atomically. The client observes the new balance
// by re-fetching the profile afterwards.
func (c *RESTClient) RedeemReward(ctx context.Context, userID, rewardID string) error {
	body := map[string]string{"p_user_id": userID, "p_reward_id": rewardID}
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/redeem_reward", nil, body, nil, true)
}

func (c *RESTClient) ListServices(ctx context.Context) ([]models.PublicService, error) {
	q := url.Values{}
	q.Set("order", "name.asc")

	var rows []models.PublicService
	if err := c.do(ctx, http.MethodGet, "/rest/v1/services", q, nil, &rows, true); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RESTClient) CreateSquadRequest(ctx context.Context, r *models.SquadRequest) (*models.SquadRequest, error) {
	var created []models.SquadRequest
	if err := c.do(ctx, http.MethodPost, "/rest/v1/squad_requests", nil, []models.SquadRequest{*r}, &created, true); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		copied := *r
		return &copied, nil
	}
	out := created[0]
	return &out, nil
}
