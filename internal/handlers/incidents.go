package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"roadwatch/internal/hub"
	"roadwatch/internal/logger"
	"roadwatch/internal/middleware"
	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

// Geocoder resolves coordinates to an address. Optional; a nil geocoder
// leaves manually reported locations as submitted.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error)
}

// Broadcaster pushes events to all connected real-time sessions.
type Broadcaster interface {
	Broadcast(event hub.Event, origin *hub.Session) error
}

type incidentRequest struct {
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Status      string  `json:"status"`
}

// CreateIncidentHandler records a manually reported incident and broadcasts
// it to connected observers after the write commits.
func CreateIncidentHandler(incidents repository.IncidentRepository, broadcaster Broadcaster, geocoder Geocoder, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req incidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user := middleware.UserFrom(r.Context())
		now := time.Now().UTC()

		if req.Severity == "" {
			req.Severity = models.SeverityMedium
		}
		if req.Status == "" {
			req.Status = models.StatusPending
		}
		if req.Location == "" && geocoder != nil && (req.Latitude != 0 || req.Longitude != 0) {
			location, err := geocoder.ReverseGeocode(r.Context(), req.Latitude, req.Longitude)
			if err != nil {
				log.Warning("Reverse geocoding (%f, %f): %v", req.Latitude, req.Longitude, err)
			} else {
				req.Location = location
			}
		}

		inc := &models.Incident{
			ID:          uuid.NewString(),
			Location:    req.Location,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			Description: req.Description,
			Severity:    req.Severity,
			Status:      req.Status,
			UserID:      user.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		persisted, err := incidents.Insert(r.Context(), inc)
		if err != nil {
			log.Error("Creating incident: %v", err)
			writeError(w, http.StatusInternalServerError, "creating incident failed")
			return
		}

		if err := broadcaster.Broadcast(hub.Event{Type: hub.EventIncident, Payload: persisted}, nil); err != nil {
			log.Error("Broadcasting incident %s: %v", persisted.ID, err)
		}

		writeJSON(w, http.StatusCreated, persisted)
	}
}

// ListIncidentsHandler returns incidents matching the query filters.
func ListIncidentsHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &models.IncidentFilter{
			Status:    q.Get("status"),
			Severity:  q.Get("severity"),
			StartDate: parseTime(q.Get("start_date")),
			EndDate:   parseTime(q.Get("end_date")),
			Limit:     atoiDefault(q.Get("limit"), 100),
			Offset:    atoiDefault(q.Get("offset"), 0),
		}

		result, err := incidents.GetAll(r.Context(), filter)
		if err != nil {
			log.Error("Listing incidents: %v", err)
			writeError(w, http.StatusInternalServerError, "listing incidents failed")
			return
		}
		if result == nil {
			result = []models.Incident{}
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// GetIncidentHandler returns a single incident by ID.
func GetIncidentHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inc, err := incidents.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			log.Error("Getting incident: %v", err)
			writeError(w, http.StatusInternalServerError, "getting incident failed")
			return
		}
		if inc == nil {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}

		writeJSON(w, http.StatusOK, inc)
	}
}

// UpdateIncidentHandler updates the mutable fields of an incident.
func UpdateIncidentHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req incidentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		updated, err := incidents.Update(r.Context(), chi.URLParam(r, "id"), &models.Incident{
			Location:    req.Location,
			Latitude:    req.Latitude,
			Longitude:   req.Longitude,
			Description: req.Description,
			Severity:    req.Severity,
			Status:      req.Status,
		})
		if err != nil {
			log.Error("Updating incident: %v", err)
			writeError(w, http.StatusInternalServerError, "updating incident failed")
			return
		}
		if updated == nil {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteIncidentHandler removes an incident. Restricted to admins at the
// routing layer.
func DeleteIncidentHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := incidents.Delete(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			log.Error("Deleting incident: %v", err)
			writeError(w, http.StatusInternalServerError, "deleting incident failed")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "incident not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "incident deleted"})
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
