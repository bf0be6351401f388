package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftsheet/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftSheet REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}

func (c *HTTPClient) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	body, err := c.get(ctx, "/api/v1/sheets/"+url.PathEscape(sheet)+"/rows")
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode rows: %w", err)
	}
	return rows, nil
}

func (c *HTTPClient) ListSheets(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/v1/sheets")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("httpclient: decode sheets: %w", err)
	}
	return names, nil
}

func (c *HTTPClient) GetTrainingSummary(ctx context.Context, sheet, person string, start, end time.Time, bucket string) ([]storage.TrainingSummaryPeriod, error) {
	params := rangeParams(sheet, person, start, end)
	if bucket != "" {
		params.Set("bucket", bucket)
	}
	body, err := c.get(ctx, "/api/v1/training/summary?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var periods []storage.TrainingSummaryPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode training summary: %w", err)
	}
	return periods, nil
}

func (c *HTTPClient) GetTrainingIntensity(ctx context.Context, q storage.IntensityQuery) (*storage.TrainingIntensityResult, error) {
	params := rangeParams(q.Sheet, q.Person, q.Start, q.End)
	if q.Exercise != "" {
		params.Set("exercise", q.Exercise)
	}
	body, err := c.get(ctx, "/api/v1/training/intensity?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var res storage.TrainingIntensityResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("httpclient: decode training intensity: %w", err)
	}
	return &res, nil
}

func rangeParams(sheet, person string, start, end time.Time) url.Values {
	params := url.Values{}
	params.Set("sheet", sheet)
	if person != "" {
		params.Set("person", person)
	}
	if !start.IsZero() {
		params.Set("start", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("end", end.Format(time.RFC3339))
	}
	return params
}
