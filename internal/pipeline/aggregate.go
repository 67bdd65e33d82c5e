package pipeline

// Tally counts rows per status category for one metric. The three buckets
// partition the row set: Uploaded+Pending+NoData always equals the row count.
type Tally struct {
	Uploaded int `json:"uploaded"`
	Pending  int `json:"pending"`
	NoData   int `json:"noData"`
}

// Total returns the number of rows counted.
func (t Tally) Total() int {
	return t.Uploaded + t.Pending + t.NoData
}

// TallyMetric folds the status of one metric across all rows. Callers must
// pass the unfiltered row set: summary cards always reflect the whole
// dataset, no matter what state filter the detail table has active.
func TallyMetric(rows []CanonicalRow, m Metric) Tally {
	var t Tally
	for _, row := range rows {
		switch row.Value(m).Status {
		case StatusUploaded:
			t.Uploaded++
		case StatusPending:
			t.Pending++
		default:
			// Zero-value or unrecognized statuses land here so the
			// partition stays exhaustive
			t.NoData++
		}
	}
	return t
}

// TallyAll computes the per-metric tallies for every tracked metric.
func TallyAll(rows []CanonicalRow) map[Metric]Tally {
	tallies := make(map[Metric]Tally, len(Metrics()))
	for _, m := range Metrics() {
		tallies[m] = TallyMetric(rows, m)
	}
	return tallies
}
