package models

import "time"

// ComplaintStatus tracks a municipal complaint through its lifecycle.
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "open"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

// Complaint is a citizen-filed report about a municipal issue.
type Complaint struct {
	ID          string          `json:"id,omitempty"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Location    string          `json:"location,omitempty"`
	PhotoURL    string          `json:"photo_url,omitempty"`
	Status      ComplaintStatus `json:"status,omitempty"`
	CreatedAt   time.Time       `json:"created_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}

// ComplaintDraft is a complaint filed while the backend was unreachable,
// queued locally until it can be pushed. PhotoPath points at a staged local
// file, uploaded at push time.
type ComplaintDraft struct {
	ID          string
	Title       string
	Description string
	Category    string
	Location    string
	PhotoPath   string
	CreatedAt   time.Time
}

// ComplaintComment is a follow-up note on a complaint, from the reporter or
// a municipal responder.
type ComplaintComment struct {
	ID          string    `json:"id,omitempty"`
	ComplaintID string    `json:"complaint_id"`
	UserID      string    `json:"user_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Incident is an emergency incident published by the municipality.
type Incident struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Area       string    `json:"area,omitempty"`
	Active     bool      `json:"active"`
	ReportedAt time.Time `json:"reported_at"`
}

// CivicEvent is a community event citizens can browse and attend.
type CivicEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Venue     string    `json:"venue,omitempty"`
	City      string    `json:"city,omitempty"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at,omitempty"`
	Points    int       `json:"points,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// RewardItem is a catalog entry redeemable for points.
type RewardItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Cost      int    `json:"cost"`
	Available bool   `json:"available"`
}

// PublicService is a directory entry for a municipal or emergency service.
type PublicService struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Hours    string `json:"hours,omitempty"`
}

// SquadRequest is a citizen's application to join a volunteer squad.
type SquadRequest struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	AreaID     string    `json:"area_id,omitempty"`
	Motivation string    `json:"motivation,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
