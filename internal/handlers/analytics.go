package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"roadwatch/internal/logger"
	"roadwatch/internal/models"
	"roadwatch/internal/repository"
)

// HourlyAnalyticsHandler returns incident counts per hour of day for the
// last N days (default 7).
func HourlyAnalyticsHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := atoiDefault(r.URL.Query().Get("days"), 7)

		counts, err := incidents.CountByHour(r.Context(), time.Now().UTC().AddDate(0, 0, -days))
		if err != nil {
			log.Error("Hourly analytics: %v", err)
			writeError(w, http.StatusInternalServerError, "analytics query failed")
			return
		}
		if counts == nil {
			counts = []models.HourlyCount{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"hourly_stats": counts})
	}
}

// HotspotsHandler returns the top accident locations for the last N days
// (default 30, top 10).
func HotspotsHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		days := atoiDefault(q.Get("days"), 30)
		limit := atoiDefault(q.Get("limit"), 10)

		hotspots, err := incidents.Hotspots(r.Context(), time.Now().UTC().AddDate(0, 0, -days), limit)
		if err != nil {
			log.Error("Hotspot analytics: %v", err)
			writeError(w, http.StatusInternalServerError, "analytics query failed")
			return
		}
		if hotspots == nil {
			hotspots = []models.Hotspot{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"hotspots": hotspots})
	}
}

// SeverityAnalyticsHandler returns incident counts per severity for the last
// N days (default 30).
func SeverityAnalyticsHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := atoiDefault(r.URL.Query().Get("days"), 30)

		counts, err := incidents.CountBySeverity(r.Context(), time.Now().UTC().AddDate(0, 0, -days))
		if err != nil {
			log.Error("Severity analytics: %v", err)
			writeError(w, http.StatusInternalServerError, "analytics query failed")
			return
		}
		if counts == nil {
			counts = []models.SeverityCount{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"severity_stats": counts})
	}
}

// ExportCSVHandler streams incidents in the requested window as a CSV file.
// Restricted to admins at the routing layer.
func ExportCSVHandler(incidents repository.IncidentRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &models.IncidentFilter{
			StartDate: parseTime(q.Get("start_date")),
			EndDate:   parseTime(q.Get("end_date")),
		}

		result, err := incidents.GetAll(r.Context(), filter)
		if err != nil {
			log.Error("CSV export: %v", err)
			writeError(w, http.StatusInternalServerError, "export failed")
			return
		}

		filename := fmt.Sprintf("analytics_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

		cw := csv.NewWriter(w)
		cw.Write([]string{"id", "location", "latitude", "longitude", "description", "severity", "status", "image_url", "user_id", "created_at", "updated_at"})
		for _, inc := range result {
			cw.Write([]string{
				inc.ID,
				inc.Location,
				strconv.FormatFloat(inc.Latitude, 'f', -1, 64),
				strconv.FormatFloat(inc.Longitude, 'f', -1, 64),
				inc.Description,
				inc.Severity,
				inc.Status,
				inc.ImageURL,
				inc.UserID,
				inc.CreatedAt.Format(time.RFC3339),
				inc.UpdatedAt.Format(time.RFC3339),
			})
		}
		cw.Flush()
	}
}
