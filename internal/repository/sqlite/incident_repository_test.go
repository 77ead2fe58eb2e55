package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"roadwatch/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func makeIncident(created time.Time, severity, status, userID string) *models.Incident {
	return &models.Incident{
		ID:          uuid.NewString(),
		Location:    "M4 junction 19",
		Latitude:    51.5,
		Longitude:   -2.58,
		Description: "collision reported",
		Severity:    severity,
		Status:      status,
		UserID:      userID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestIncidentInsertAndGetByID(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	inc := makeIncident(time.Now().UTC().Truncate(time.Second), models.SeverityHigh, models.StatusPending, "u-1")
	inc.ImageURL = "/media/u-1/frame.jpg"

	persisted, err := repo.Insert(ctx, inc)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if persisted.ID != inc.ID {
		t.Errorf("persisted ID = %s, want %s", persisted.ID, inc.ID)
	}

	got, err := repo.GetByID(ctx, inc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil {
		t.Fatal("incident not found after insert")
	}
	if got.Location != inc.Location || got.Severity != inc.Severity ||
		got.Status != inc.Status || got.ImageURL != inc.ImageURL || got.UserID != inc.UserID {
		t.Errorf("roundtrip mismatch: got %+v", got)
	}
	if !got.CreatedAt.Equal(inc.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, inc.CreatedAt)
	}
}

func TestIncidentGetByIDNotFound(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))

	got, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for unknown id", got)
	}
}

func TestIncidentGetAllFilters(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seeds := []*models.Incident{
		makeIncident(base, models.SeverityHigh, models.StatusPending, "u-1"),
		makeIncident(base.Add(time.Hour), models.SeverityLow, models.StatusResolved, "u-1"),
		makeIncident(base.Add(2*time.Hour), models.SeverityHigh, models.StatusVerified, "u-2"),
	}
	for _, inc := range seeds {
		if _, err := repo.Insert(ctx, inc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.IncidentFilter
		want   int
	}{
		{"no filter", models.IncidentFilter{}, 3},
		{"by status", models.IncidentFilter{Status: models.StatusPending}, 1},
		{"by severity", models.IncidentFilter{Severity: models.SeverityHigh}, 2},
		{"by user", models.IncidentFilter{UserID: "u-1"}, 2},
		{"by start date", models.IncidentFilter{StartDate: base.Add(30 * time.Minute)}, 2},
		{"by end date", models.IncidentFilter{EndDate: base.Add(30 * time.Minute)}, 1},
		{"limit", models.IncidentFilter{Limit: 2}, 2},
		{"limit and offset", models.IncidentFilter{Limit: 2, Offset: 2}, 1},
		{"combined", models.IncidentFilter{Severity: models.SeverityHigh, UserID: "u-2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(ctx, &tt.filter)
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("result count = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestIncidentGetAllNewestFirst(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := makeIncident(base, models.SeverityLow, models.StatusPending, "u-1")
	recent := makeIncident(base.Add(time.Hour), models.SeverityLow, models.StatusPending, "u-1")
	for _, inc := range []*models.Incident{old, recent} {
		if _, err := repo.Insert(ctx, inc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := repo.GetAll(ctx, &models.IncidentFilter{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("result count = %d, want 2", len(got))
	}
	if got[0].ID != recent.ID {
		t.Errorf("first result = %s, want the most recent incident %s", got[0].ID, recent.ID)
	}
}

func TestIncidentUpdate(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	inc := makeIncident(time.Now().UTC(), models.SeverityHigh, models.StatusPending, "u-1")
	if _, err := repo.Insert(ctx, inc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	inc.Status = models.StatusVerified
	inc.Description = "verified by responder"

	updated, err := repo.Update(ctx, inc.ID, inc)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated == nil {
		t.Fatal("Update returned nil for an existing incident")
	}
	if updated.Status != models.StatusVerified || updated.Description != "verified by responder" {
		t.Errorf("updated incident = %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Errorf("UpdatedAt %v precedes CreatedAt %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestIncidentUpdateMissing(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))

	inc := makeIncident(time.Now().UTC(), models.SeverityHigh, models.StatusPending, "u-1")
	updated, err := repo.Update(context.Background(), "missing", inc)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated != nil {
		t.Errorf("got %+v, want nil for unknown id", updated)
	}
}

func TestIncidentDelete(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	inc := makeIncident(time.Now().UTC(), models.SeverityHigh, models.StatusPending, "u-1")
	if _, err := repo.Insert(ctx, inc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	deleted, err := repo.Delete(ctx, inc.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("Delete reported no record removed")
	}

	if got, _ := repo.GetByID(ctx, inc.ID); got != nil {
		t.Error("incident still present after delete")
	}

	deleted, err = repo.Delete(ctx, inc.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("second delete reported a removal")
	}
}

func TestIncidentAggregations(t *testing.T) {
	repo := NewIncidentRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	seeds := []*models.Incident{
		makeIncident(base, models.SeverityHigh, models.StatusPending, "u-1"),
		makeIncident(base.Add(10*time.Minute), models.SeverityHigh, models.StatusPending, "u-1"),
		makeIncident(base.Add(3*time.Hour), models.SeverityLow, models.StatusPending, "u-1"),
	}
	// Same coordinates for the first two, a hotspot.
	seeds[2].Latitude, seeds[2].Longitude, seeds[2].Location = 48.1, 11.5, "A9 exit 73"
	for _, inc := range seeds {
		if _, err := repo.Insert(ctx, inc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	since := base.Add(-time.Hour)

	hourly, err := repo.CountByHour(ctx, since)
	if err != nil {
		t.Fatalf("CountByHour: %v", err)
	}
	if len(hourly) != 2 {
		t.Fatalf("hourly buckets = %d, want 2", len(hourly))
	}
	if hourly[0].Hour != 8 || hourly[0].Count != 2 {
		t.Errorf("first bucket = %+v, want hour 8 count 2", hourly[0])
	}

	hotspots, err := repo.Hotspots(ctx, since, 10)
	if err != nil {
		t.Fatalf("Hotspots: %v", err)
	}
	if len(hotspots) != 2 {
		t.Fatalf("hotspots = %d, want 2", len(hotspots))
	}
	if hotspots[0].Count != 2 || hotspots[0].Location != "M4 junction 19" {
		t.Errorf("top hotspot = %+v, want M4 junction 19 with count 2", hotspots[0])
	}

	severities, err := repo.CountBySeverity(ctx, since)
	if err != nil {
		t.Fatalf("CountBySeverity: %v", err)
	}
	counts := map[string]int{}
	for _, c := range severities {
		counts[c.Severity] = c.Count
	}
	if counts[models.SeverityHigh] != 2 || counts[models.SeverityLow] != 1 {
		t.Errorf("severity counts = %v, want high=2 low=1", counts)
	}
}
