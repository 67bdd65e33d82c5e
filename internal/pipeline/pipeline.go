// Package pipeline converts raw sheet cells into typed counts, status
// categories and percentages. Every operation is a total function: malformed
// input degrades to a defined zero/NoData default, never to an error. Rows
// are processed independently and in order, so a run is idempotent and safe
// to memoize wholesale (which internal/store does).
package pipeline

import (
	"strconv"
	"strings"
)

// countMarkers flag a count cell as "value unavailable" regardless of any
// digits also present. Substring match, case-insensitive, matching the feed's
// observed vocabulary ("Data Not Available", "NA", "N/A", ...).
var countMarkers = []string{"data", "not", "available", "na", "n/a"}

// statusMarkers flag a status cell as NoData. Deliberately a different set
// than countMarkers: bare "data"/"not" would misfire on phrases like
// "data uploaded".
var statusMarkers = []string{"data not available", "not available", "na", "n/a"}

// ParseCount converts an arbitrary count cell to a non-negative integer.
// Blank or unavailable-marked cells yield 0. Otherwise every decimal digit
// found anywhere in the cell is concatenated in order and parsed, so
// "1,234 (approx)" yields 1234. Known quirk: unrelated digit runs are glued
// together too ("12 of 34" yields 1234); both upstream dashboard variants
// behave this way and downstream consumers depend on it.
func ParseCount(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	// Strip thousands separators and internal whitespace
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	lower := strings.ToLower(s)
	for _, marker := range countMarkers {
		if strings.Contains(lower, marker) {
			return 0
		}
	}

	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// ParsePopulation converts a population cell to a non-negative float.
// Blank or unparseable cells yield 0.0.
func ParsePopulation(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0.0
	}

	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0.0
	}

	return f
}

// DeriveStatus resolves the status category for one metric from the raw
// status text and the already-parsed count. Ordered decision table, first
// match wins:
//
//  1. count > 0: Uploaded — numeric evidence overrides any text
//  2. unavailable marker in text: NoData
//  3. "pending": PendingUpload — must precede the upload check, since
//     "pending upload" contains "upload"
//  4. "upload" or the known feed typo "uploded": Uploaded
//  5. default: NoData
func DeriveStatus(rawStatus string, count int64) Status {
	if count > 0 {
		return StatusUploaded
	}

	s := strings.ToLower(strings.TrimSpace(rawStatus))
	if s == "" {
		return StatusNoData
	}

	for _, marker := range statusMarkers {
		if strings.Contains(s, marker) {
			return StatusNoData
		}
	}

	if strings.Contains(s, "pending") {
		return StatusPending
	}

	if strings.Contains(s, "upload") || strings.Contains(s, "uploded") {
		return StatusUploaded
	}

	return StatusNoData
}

// DerivePercent computes count as a percentage of population. A zero
// population yields 0.0 rather than dividing by zero. The result is not
// clamped here; see MetricValue.DisplayPercent.
func DerivePercent(count int64, population float64) float64 {
	if population > 0 {
		return float64(count) / population * 100.0
	}
	return 0.0
}

// deriveMetric builds the full count/status/percent triple for one metric.
func deriveMetric(rawCount, rawStatus string, population float64) MetricValue {
	count := ParseCount(rawCount)
	return MetricValue{
		Count:   count,
		Status:  DeriveStatus(rawStatus, count),
		Percent: DerivePercent(count, population),
	}
}

// Derive converts one RawRow into one CanonicalRow. The overall-mobile
// column carries no status annotation in the feed, so its status derives
// from the count alone.
func Derive(raw RawRow) CanonicalRow {
	population := ParsePopulation(raw.Population)

	return CanonicalRow{
		State:         strings.TrimSpace(raw.StateName),
		Population:    population,
		Aadhaar:       deriveMetric(raw.AdharCount, raw.AdharStatus, population),
		Cadre:         deriveMetric(raw.CadreCount, raw.CadreStatus, population),
		Eroll:         deriveMetric(raw.VoterCount, raw.VoterStatus, population),
		OverallMobile: deriveMetric(raw.OverallMobileCount, "", population),
	}
}

// Run applies Derive to every row, preserving input order and length.
// Multiple rows for the same state are kept as-is, not deduplicated.
func Run(rows []RawRow) []CanonicalRow {
	out := make([]CanonicalRow, len(rows))
	for i, raw := range rows {
		out[i] = Derive(raw)
	}
	return out
}
