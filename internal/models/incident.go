package models

import "time"

// Incident severities and statuses used across the API and the detection
// pipeline. AI-created incidents are always SeverityHigh/StatusPending.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusResolved = "resolved"
)

// Incident represents a road incident record.
type Incident struct {
	ID          string    `json:"id"`
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url,omitempty"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IncidentFilter contains filtering options for querying incidents.
type IncidentFilter struct {
	Status    string
	Severity  string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// HourlyCount is the number of incidents created during one hour of the day.
type HourlyCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Hotspot is a location that repeatedly appears in incident records.
type Hotspot struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Location  string  `json:"location"`
	Count     int     `json:"count"`
}

// SeverityCount is the number of incidents recorded per severity.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}
