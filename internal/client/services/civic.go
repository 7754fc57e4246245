package services

import (
	"context"
	"fmt"

	"github.com/resqlink/resq-go/internal/client/backend"
	"github.com/resqlink/resq-go/internal/client/models"
)

// CivicService is the read/browse surface of the application plus reward
// redemption and volunteer squad requests.
type CivicService interface {
	Incidents(ctx context.Context) ([]models.Incident, error)
	Events(ctx context.Context) ([]models.CivicEvent, error)
	Rewards(ctx context.Context) ([]models.RewardItem, error)
	Redeem(ctx context.Context, userID, rewardID string) error
	Services(ctx context.Context) ([]models.PublicService, error)
	RequestSquad(ctx context.Context, userID, areaID, motivation string) error
}

type civicService struct {
	api backend.CivicAPI
}

func NewCivicService(api backend.CivicAPI) CivicService {
	return &civicService{api: api}
}

func (s *civicService) Incidents(ctx context.Context) ([]models.Incident, error) {
	rows, err := s.api.ListIncidents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing incidents: %w", err)
	}
	return rows, nil
}

func (s *civicService) Events(ctx context.Context) ([]models.CivicEvent, error) {
	rows, err := s.api.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return rows, nil
}

func (s *civicService) Rewards(ctx context.Context) ([]models.RewardItem, error) {
	rows, err := s.api.ListRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rewards: %w", err)
	}
	return rows, nil
}

// Redeem runs the server-side redemption routine. The point arithmetic and
// balance check live in the backend; callers refresh the profile afterwards
// to see the new balance.
func (s *civicService) Redeem(ctx context.Context, userID, rewardID string) error {
	if err := s.api.RedeemReward(ctx, userID, rewardID); err != nil {
		return fmt.Errorf("redeeming reward: %w", err)
	}
	return nil
}

func (s *civicService) Services(ctx context.Context) ([]models.PublicService, error) {
	rows, err := s.api.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return rows, nil
}

func (s *civicService) RequestSquad(ctx context.Context, userID, areaID, motivation string) error {
	_, err := s.api.CreateSquadRequest(ctx, &models.SquadRequest{
		UserID:     userID,
		AreaID:     areaID,
		Motivation: motivation,
	})
	if err != nil {
		return fmt.Errorf("requesting squad membership: %w", err)
	}
	return nil
}
