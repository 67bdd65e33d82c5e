package handlers

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/statusboard/internal/pipeline"
	"github.com/wonny/statusboard/internal/realtime"
	"github.com/wonny/statusboard/internal/store"
	"github.com/wonny/statusboard/pkg/logger"
)

// DashboardHandler serves the dashboard page, JSON API and CSV export
// SSOT: dashboard endpoints live only on this struct
type DashboardHandler struct {
	store  *store.Store
	hub    *realtime.Hub
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(st *store.Store, hub *realtime.Hub, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  st,
		hub:    hub,
		logger: log,
	}
}

// DashboardResponse is the JSON payload for the dashboard API. Tallies
// always describe the full dataset; only Rows honors the state filter.
type DashboardResponse struct {
	Tallies   map[pipeline.Metric]pipeline.Tally `json:"tallies"`
	Rows      []pipeline.CanonicalRow            `json:"rows"`
	States    []string                           `json:"states"`
	Filter    string                             `json:"filter,omitempty"`
	FetchedAt string                             `json:"fetchedAt"`
}

// GetDashboard returns tallies and (optionally filtered) detail rows
// GET /api/dashboard?state=Goa
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.GetOrFetch(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusBadGateway, "Failed to load dashboard data")
		return
	}

	filter := r.URL.Query().Get("state")

	respondJSON(w, http.StatusOK, DashboardResponse{
		Tallies:   snapshot.Tallies,
		Rows:      snapshot.FilterRows(filter),
		States:    snapshot.States,
		Filter:    filter,
		FetchedAt: snapshot.FetchedAt.Format(time.RFC3339),
	})
}

// GetStates returns the sorted unique state list for the filter control
// GET /api/states
func (h *DashboardHandler) GetStates(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.GetOrFetch(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusBadGateway, "Failed to load dashboard data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"states": snapshot.States,
	})
}

// Refresh forces a cache refresh and notifies connected dashboards
// POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.Refresh(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Manual refresh failed")
		respondError(w, http.StatusBadGateway, "Failed to refresh dashboard data")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(realtime.Event{
			Type:      realtime.EventSnapshotRefreshed,
			FetchedAt: snapshot.FetchedAt,
			Rows:      len(snapshot.Rows),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"rows":      len(snapshot.Rows),
		"fetchedAt": snapshot.FetchedAt,
	})
}

// exportHeader mirrors the original download's column set, one Count/%/
// Status triple per metric (overall mobile carries no status column).
var exportHeader = []string{
	"State", "Population",
	"Aadhaar Count", "Aadhaar %", "Aadhaar Status",
	"Cadre Count", "Cadre %", "Cadre Status",
	"Eroll Count", "Eroll %", "Eroll Status",
	"Overall Mobile Count", "Overall Mobile %",
}

// ExportCSV streams the filtered detail rows as a CSV download. Percentages
// are exported raw and unclamped; display-time clamping is a page concern.
// GET /api/export?state=Goa
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.GetOrFetch(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		respondError(w, http.StatusBadGateway, "Failed to load dashboard data")
		return
	}

	filter := r.URL.Query().Get("state")
	rows := snapshot.FilterRows(filter)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="mobile_data_filtered.csv"`)

	if err := WriteCSV(w, rows); err != nil {
		h.logger.WithError(err).Error("CSV export failed")
	}
}

// WriteCSV writes the export header and one record per detail row.
// Shared by the HTTP export endpoint and the fetch CLI.
func WriteCSV(w io.Writer, rows []pipeline.CanonicalRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.State,
			formatFloat(row.Population),
			strconv.FormatInt(row.Aadhaar.Count, 10),
			formatFloat(row.Aadhaar.Percent),
			string(row.Aadhaar.Status),
			strconv.FormatInt(row.Cadre.Count, 10),
			formatFloat(row.Cadre.Percent),
			string(row.Cadre.Status),
			strconv.FormatInt(row.Eroll.Count, 10),
			formatFloat(row.Eroll.Percent),
			string(row.Eroll.Status),
			strconv.FormatInt(row.OverallMobile.Count, 10),
			formatFloat(row.OverallMobile.Percent),
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// formatFloat renders a float without artificial precision loss.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNumber renders a count with thousands separators for display.
func formatNumber(n int64) string {
	if n <= 0 {
		return "0"
	}

	s := strconv.FormatInt(n, 10)
	var out []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digit)
	}
	return string(out)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
