package pipeline

// Status is the cleaned upload-status category for one metric of one row.
// It is the only status vocabulary the rest of the system sees; the free
// text from the sheet never leaves this package.
type Status string

const (
	StatusUploaded Status = "Uploaded"
	StatusPending  Status = "Pending upload"
	StatusNoData   Status = "No Data"
)

// Metric identifies one of the tracked count dimensions.
type Metric string

const (
	MetricAadhaar       Metric = "aadhaar"
	MetricCadre         Metric = "cadre"
	MetricEroll         Metric = "eroll"
	MetricOverallMobile Metric = "overall_mobile"
)

// Metrics returns all tracked metrics in display order.
func Metrics() []Metric {
	return []Metric{MetricAadhaar, MetricCadre, MetricEroll, MetricOverallMobile}
}

// Label returns the human-readable metric name used on cards and exports.
func (m Metric) Label() string {
	switch m {
	case MetricAadhaar:
		return "Aadhaar"
	case MetricCadre:
		return "Cadre"
	case MetricEroll:
		return "Eroll"
	case MetricOverallMobile:
		return "Overall Mobile"
	default:
		return string(m)
	}
}

// RawRow is one source record with every consumed column present as text.
// The ingestion boundary (internal/source) guarantees completeness: a column
// missing from the sheet arrives here as "", never as an error.
type RawRow struct {
	StateName          string
	Population         string
	VoterCount         string
	VoterStatus        string
	AdharCount         string
	AdharStatus        string
	CadreCount         string
	CadreStatus        string
	OverallMobileCount string
}

// MetricValue is the cleaned count/status/percent triple for one metric.
type MetricValue struct {
	Count   int64   `json:"count"`
	Status  Status  `json:"status"`
	Percent float64 `json:"percent"`
}

// DisplayPercent clamps the percentage at 100 for progress-bar rendering.
// The raw unclamped value stays available for the CSV export and JSON API.
func (v MetricValue) DisplayPercent() float64 {
	if v.Percent > 100 {
		return 100
	}
	return v.Percent
}

// CanonicalRow is the normalized, typed representation of one source record.
// Materialized once per pipeline run, never mutated afterwards.
type CanonicalRow struct {
	State         string      `json:"state"`
	Population    float64     `json:"population"`
	Aadhaar       MetricValue `json:"aadhaar"`
	Cadre         MetricValue `json:"cadre"`
	Eroll         MetricValue `json:"eroll"`
	OverallMobile MetricValue `json:"overallMobile"`
}

// Value returns the MetricValue for the given metric.
func (r CanonicalRow) Value(m Metric) MetricValue {
	switch m {
	case MetricAadhaar:
		return r.Aadhaar
	case MetricCadre:
		return r.Cadre
	case MetricEroll:
		return r.Eroll
	case MetricOverallMobile:
		return r.OverallMobile
	default:
		return MetricValue{Status: StatusNoData}
	}
}
