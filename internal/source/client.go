// Package source fetches the published sheet CSV and turns it into complete
// RawRows. Column defaulting happens here, at the ingestion boundary: by the
// time rows reach the pipeline, every expected column is present (possibly
// empty), so "do I have this column" and "what does this column mean" stay
// decoupled.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/statusboard/internal/pipeline"
	"github.com/wonny/statusboard/pkg/httputil"
	"github.com/wonny/statusboard/pkg/logger"
)

// Expected sheet column headers. The overall-mobile column appears under two
// spellings across feed revisions; both map to the same field.
const (
	colStateName     = "State Name"
	colPopulation    = "Population"
	colVoterCount    = "Voter Count"
	colVoterStatus   = "Voter Status"
	colAdharCount    = "Adhar Count"
	colAdharStatus   = "Adhar Status"
	colCadreCount    = "Cadre Count"
	colCadreStatus   = "Cadre Status"
	colOverallMobile = "Overall Unique Mobile Count (Within State)"

	colOverallMobileShort = "Overall Unique Mobile Count"
)

// Client fetches the sheet CSV export
// SSOT: the remote source is read only through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a new sheet source client
func NewClient(httpClient *httputil.Client, log *logger.Logger, url string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		url:        url,
	}
}

// URL returns the configured source URL (used as the cache key)
func (c *Client) URL() string {
	return c.url
}

// Fetch downloads and decodes the sheet. This is the only fatal failure
// path in the system: once rows are returned, downstream processing cannot
// fail.
func (c *Client) Fetch(ctx context.Context) ([]pipeline.RawRow, error) {
	resp, err := c.httpClient.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet: unexpected status code %d", resp.StatusCode)
	}

	rows, err := decodeCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode sheet: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"url":  c.url,
		"rows": len(rows),
	}).Debug("Fetched sheet")

	return rows, nil
}

// decodeCSV maps the header row to RawRow fields. Column order is
// irrelevant, unknown columns are ignored, missing columns default to "",
// and ragged rows are tolerated.
func decodeCSV(r io.Reader) ([]pipeline.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []pipeline.RawRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// Column index per expected header, -1 when the sheet lacks it
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	cell := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []pipeline.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		overallMobile := cell(record, colOverallMobile)
		if overallMobile == "" {
			overallMobile = cell(record, colOverallMobileShort)
		}

		rows = append(rows, pipeline.RawRow{
			StateName:          cell(record, colStateName),
			Population:         cell(record, colPopulation),
			VoterCount:         cell(record, colVoterCount),
			VoterStatus:        cell(record, colVoterStatus),
			AdharCount:         cell(record, colAdharCount),
			AdharStatus:        cell(record, colAdharStatus),
			CadreCount:         cell(record, colCadreCount),
			CadreStatus:        cell(record, colCadreStatus),
			OverallMobileCount: overallMobile,
		})
	}

	if rows == nil {
		rows = []pipeline.RawRow{}
	}

	return rows, nil
}
