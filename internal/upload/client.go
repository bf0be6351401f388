package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/liftsheet/internal/dedup"
	"github.com/claude/liftsheet/internal/models"
	"github.com/claude/liftsheet/internal/sheets"
)

// Client talks to a LiftSheet server over HTTP. It satisfies sheets.Store.
type Client struct {
	serverURL  string
	creds      CredentialProvider
	httpClient *http.Client
	backoff    time.Duration
}

var _ sheets.Store = (*Client)(nil)

// NewClient creates a new HTTP client for the LiftSheet server.
func NewClient(serverURL string, creds CredentialProvider) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		creds:     creds,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

func (c *Client) rowsURL(sheet string) string {
	return c.serverURL + "/api/v1/sheets/" + url.PathEscape(sheet) + "/rows"
}

// ReadRows fetches every stored row of sheet.
func (c *Client) ReadRows(ctx context.Context, sheet string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rowsURL(sheet), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rows request failed (status %d): %s", resp.StatusCode, body)
	}

	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return rows, nil
}

// AppendRows sends rows to the server.
func (c *Client) AppendRows(ctx context.Context, sheet string, rows [][]string) error {
	_, err := c.Append(ctx, sheet, rows)
	return err
}

// Append POSTs rows to the server and returns its report.
// Retries up to 3 times with exponential backoff on failure. Server-side
// deduplication makes a retried append safe.
func (c *Client) Append(ctx context.Context, sheet string, rows [][]string) (*models.AppendResponse, error) {
	data, err := json.Marshal(models.AppendRequest{Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("marshaling rows: %w", err)
	}
	key, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting credentials: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rowsURL(sheet), bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var out models.AppendResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, fmt.Errorf("decoding append response: %w", err)
			}
			return &out, nil
		case resp.StatusCode == http.StatusUnprocessableEntity:
			// Malformed rows; not retried.
			return nil, fmt.Errorf("%w: %s", dedup.ErrMalformedRow, bytes.TrimSpace(body))
		case resp.StatusCode < 500:
			return nil, fmt.Errorf("append failed (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("append failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
