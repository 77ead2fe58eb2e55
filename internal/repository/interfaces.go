package repository

import (
	"context"
	"time"

	"roadwatch/internal/models"
)

// IncidentRepository defines the interface for incident data operations.
type IncidentRepository interface {
	// Create operations
	Insert(ctx context.Context, inc *models.Incident) (*models.Incident, error)

	// Read operations
	GetByID(ctx context.Context, id string) (*models.Incident, error)
	GetAll(ctx context.Context, filter *models.IncidentFilter) ([]models.Incident, error)

	// Update operations
	Update(ctx context.Context, id string, inc *models.Incident) (*models.Incident, error)

	// Delete operations
	Delete(ctx context.Context, id string) (bool, error)

	// Aggregations
	CountByHour(ctx context.Context, since time.Time) ([]models.HourlyCount, error)
	Hotspots(ctx context.Context, since time.Time, limit int) ([]models.Hotspot, error)
	CountBySeverity(ctx context.Context, since time.Time) ([]models.SeverityCount, error)
}

// UserRepository defines the interface for user account operations.
type UserRepository interface {
	Insert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
