package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/wonny/statusboard/internal/pipeline"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("dashboard.html").
		Funcs(template.FuncMap{"lower": strings.ToLower}).
		ParseFS(templateFS, "templates/dashboard.html"),
)

// chartMetrics are the metrics shown on the cards and the grouped bar chart,
// in display order. Overall mobile appears in the table only.
var chartMetrics = []pipeline.Metric{pipeline.MetricAadhaar, pipeline.MetricCadre, pipeline.MetricEroll}

// pageCard is one summary card: per-status state counts for one metric.
type pageCard struct {
	Title string
	Color string
	Tally pipeline.Tally
}

// pageBar is one bar in a chart group, height as a percentage of the
// tallest bar on the chart.
type pageBar struct {
	Metric string
	Count  string
	Height float64
}

// pageChartGroup is one state's bar group.
type pageChartGroup struct {
	State string
	Bars  []pageBar
}

// pageCell is one metric cell in the detail table: a progress bar when a
// count exists, a status badge otherwise.
type pageCell struct {
	HasData bool
	Count   string
	Percent string  // display percent, clamped at 100
	Width   float64 // progress-bar fill width
	Status  pipeline.Status
	Pending bool
}

// pageRow is one detail-table row.
type pageRow struct {
	State      string
	Population string
	Cells      []pageCell
}

// pageData is the full view model for the dashboard template.
type pageData struct {
	Cards     []pageCard
	Chart     []pageChartGroup
	Rows      []pageRow
	States    []string
	Filter    string
	FetchedAt string
	ExportURL string
}

// metricColors match the original card iconography.
var metricColors = map[pipeline.Metric]string{
	pipeline.MetricAadhaar: "blue",
	pipeline.MetricCadre:   "green",
	pipeline.MetricEroll:   "purple",
}

// GetPage renders the HTML dashboard: cards, grouped bar chart and the
// detail table. The state filter applies only to the table.
// GET /?state=Goa
func (h *DashboardHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.GetOrFetch(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load snapshot")
		http.Error(w, "Failed to load dashboard data", http.StatusBadGateway)
		return
	}

	filter := r.URL.Query().Get("state")

	data := pageData{
		Cards:     buildCards(snapshot.Tallies),
		Chart:     buildChart(snapshot.RowsByAadhaarDesc()),
		Rows:      buildRows(snapshot.FilterRows(filter)),
		States:    snapshot.States,
		Filter:    filter,
		FetchedAt: snapshot.FetchedAt.Format("2006-01-02 15:04 MST"),
		ExportURL: exportURL(filter),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.WithError(err).Error("Failed to render dashboard page")
	}
}

func exportURL(filter string) string {
	if filter == "" {
		return "/api/export"
	}
	return "/api/export?state=" + template.URLQueryEscaper(filter)
}

// buildCards assembles the summary cards from the full-dataset tallies.
func buildCards(tallies map[pipeline.Metric]pipeline.Tally) []pageCard {
	cards := make([]pageCard, 0, len(chartMetrics))
	for _, m := range chartMetrics {
		cards = append(cards, pageCard{
			Title: m.Label() + " Data",
			Color: metricColors[m],
			Tally: tallies[m],
		})
	}
	return cards
}

// buildChart scales every bar against the tallest count on the chart.
func buildChart(rows []pipeline.CanonicalRow) []pageChartGroup {
	var max int64
	for _, row := range rows {
		for _, m := range chartMetrics {
			if c := row.Value(m).Count; c > max {
				max = c
			}
		}
	}

	groups := make([]pageChartGroup, 0, len(rows))
	for _, row := range rows {
		bars := make([]pageBar, 0, len(chartMetrics))
		for _, m := range chartMetrics {
			count := row.Value(m).Count
			var height float64
			if max > 0 {
				height = float64(count) / float64(max) * 100.0
			}
			bars = append(bars, pageBar{
				Metric: m.Label(),
				Count:  formatNumber(count),
				Height: height,
			})
		}
		groups = append(groups, pageChartGroup{State: row.State, Bars: bars})
	}
	return groups
}

// buildRows assembles the detail-table rows, one cell per metric.
func buildRows(rows []pipeline.CanonicalRow) []pageRow {
	out := make([]pageRow, 0, len(rows))
	for _, row := range rows {
		cells := make([]pageCell, 0, 4)
		for _, m := range pipeline.Metrics() {
			cells = append(cells, buildCell(row.Value(m)))
		}
		out = append(out, pageRow{
			State:      row.State,
			Population: formatNumber(int64(row.Population)),
			Cells:      cells,
		})
	}
	return out
}

func buildCell(v pipeline.MetricValue) pageCell {
	if v.Count > 0 {
		display := v.DisplayPercent()
		return pageCell{
			HasData: true,
			Count:   formatNumber(v.Count),
			Percent: fmt.Sprintf("%.1f%%", display),
			Width:   display,
		}
	}

	return pageCell{
		Status:  v.Status,
		Pending: v.Status == pipeline.StatusPending,
	}
}
