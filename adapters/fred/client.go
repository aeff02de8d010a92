// Package fred is a thin acquisition client for FRED-style observation
// endpoints. It exists only to materialize series at the boundary; the
// analysis core never performs I/O.
package fred

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/andsalazar/FederalBudgetAnalysis/domain/core"
	"github.com/andsalazar/FederalBudgetAnalysis/domain/series"
	"github.com/andsalazar/FederalBudgetAnalysis/ports"
)

const defaultBaseURL = "https://api.stlouisfed.org/fred"

// Client fetches observation series over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ ports.SeriesSource = (*Client)(nil)

// NewClient creates a FRED client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchSeries retrieves and parses one series. Missing observations (the
// API encodes them as ".") are skipped rather than loaded as zeros.
func (c *Client) FetchSeries(ctx context.Context, id core.SeriesID, start, end time.Time) (*series.TimeSeries, error) {
	endpoint := fmt.Sprintf("%s/series/observations?%s", c.baseURL, url.Values{
		"series_id":         {id.String()},
		"api_key":           {c.apiKey},
		"file_type":         {"json"},
		"observation_start": {start.Format("2006-01-02")},
		"observation_end":   {end.Format("2006-01-02")},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build series request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch series %s: unexpected status %d", id, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read series %s response: %w", id, err)
	}
	return parseObservations(id, body)
}

func parseObservations(id core.SeriesID, body []byte) (*series.TimeSeries, error) {
	observations := gjson.GetBytes(body, "observations")
	if !observations.Exists() {
		return nil, fmt.Errorf("series %s: response has no observations field", id)
	}

	var points []series.Point
	var parseErr error
	observations.ForEach(func(_, obs gjson.Result) bool {
		raw := obs.Get("value").String()
		if raw == "." || raw == "" {
			return true // missing observation
		}
		date, err := time.Parse("2006-01-02", obs.Get("date").String())
		if err != nil {
			parseErr = fmt.Errorf("series %s: bad date %q", id, obs.Get("date").String())
			return false
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			parseErr = fmt.Errorf("series %s: bad value %q at %s", id, raw, date.Format("2006-01-02"))
			return false
		}
		points = append(points, series.Point{Date: date, Value: value})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrSeriesNotFound, id)
	}

	return series.New(id, points)
}
