package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"roadwatch/internal/models"
)

const incidentColumns = `id, location, latitude, longitude, description, severity, status, image_url, user_id, created_at, updated_at`

// IncidentRepository implements repository.IncidentRepository for SQLite.
type IncidentRepository struct {
	db *DB
}

// NewIncidentRepository creates a new SQLite incident repository.
func NewIncidentRepository(db *DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// Insert adds a new incident record and returns it as persisted.
func (r *IncidentRepository) Insert(ctx context.Context, inc *models.Incident) (*models.Incident, error) {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO incidents (`+incidentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inc.ID, inc.Location, inc.Latitude, inc.Longitude, inc.Description,
		inc.Severity, inc.Status, inc.ImageURL, inc.UserID, inc.CreatedAt, inc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert incident: %w", err)
	}

	persisted := *inc
	return &persisted, nil
}

// GetByID retrieves an incident by its ID. Returns nil when not found.
func (r *IncidentRepository) GetByID(ctx context.Context, id string) (*models.Incident, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRowContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents WHERE id = ?
	`, id)

	inc, err := scanIncident(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	return inc, nil
}

// GetAll retrieves incidents based on filter criteria, newest first.
func (r *IncidentRepository) GetAll(ctx context.Context, filter *models.IncidentFilter) ([]models.Incident, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, filter.Severity)
	}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}

	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate)
	}

	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, *inc)
	}

	return incidents, rows.Err()
}

// Update replaces the mutable fields of an incident. Returns nil when the
// incident does not exist.
func (r *IncidentRepository) Update(ctx context.Context, id string, inc *models.Incident) (*models.Incident, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `
		UPDATE incidents
		SET location = ?, latitude = ?, longitude = ?, description = ?,
		    severity = ?, status = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, inc.Location, inc.Latitude, inc.Longitude, inc.Description,
		inc.Severity, inc.Status, inc.ImageURL, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	row := r.db.Conn().QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	updated, err := scanIncident(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reload incident: %w", err)
	}
	return updated, nil
}

// Delete removes an incident. Reports whether a record was deleted.
func (r *IncidentRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete incident: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// CountByHour returns incident counts grouped by hour of day since the given
// time.
func (r *IncidentRepository) CountByHour(ctx context.Context, since time.Time) ([]models.HourlyCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT CAST(strftime('%H', created_at) AS INTEGER) AS hour, COUNT(*)
		FROM incidents WHERE created_at >= ?
		GROUP BY hour ORDER BY hour
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly counts: %w", err)
	}
	defer rows.Close()

	var counts []models.HourlyCount
	for rows.Next() {
		var c models.HourlyCount
		if err := rows.Scan(&c.Hour, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Hotspots returns the most frequent incident locations since the given time.
func (r *IncidentRepository) Hotspots(ctx context.Context, since time.Time, limit int) ([]models.Hotspot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT latitude, longitude, location, COUNT(*) AS cnt
		FROM incidents WHERE created_at >= ?
		GROUP BY latitude, longitude, location
		ORDER BY cnt DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotspots: %w", err)
	}
	defer rows.Close()

	var hotspots []models.Hotspot
	for rows.Next() {
		var h models.Hotspot
		if err := rows.Scan(&h.Latitude, &h.Longitude, &h.Location, &h.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hotspot: %w", err)
		}
		hotspots = append(hotspots, h)
	}

	return hotspots, rows.Err()
}

// CountBySeverity returns incident counts grouped by severity since the
// given time.
func (r *IncidentRepository) CountBySeverity(ctx context.Context, since time.Time) ([]models.SeverityCount, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM incidents WHERE created_at >= ?
		GROUP BY severity ORDER BY severity
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query severity counts: %w", err)
	}
	defer rows.Close()

	var counts []models.SeverityCount
	for rows.Next() {
		var c models.SeverityCount
		if err := rows.Scan(&c.Severity, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan severity count: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanIncident(row scannable) (*models.Incident, error) {
	var inc models.Incident
	err := row.Scan(&inc.ID, &inc.Location, &inc.Latitude, &inc.Longitude,
		&inc.Description, &inc.Severity, &inc.Status, &inc.ImageURL,
		&inc.UserID, &inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}
