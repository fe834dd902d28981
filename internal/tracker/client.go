package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"meddispense/m/domain"
)

// APIKeyHeader carries the shared device secret on every call.
const APIKeyHeader = "X-API-KEY"

const DefaultTimeout = 10 * time.Second

// Client talks to the medication tracker API. Every failure it returns is
// non-fatal to callers: a missed sync skips that cycle, nothing more.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// List fetches the full slot table.
func (c *Client) List(ctx context.Context) ([]domain.MedicationSlot, error) {
	var slots []domain.MedicationSlot
	if err := c.do(ctx, http.MethodGet, "/api/medications", nil, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// dispenseReport is the wire shape of one dispense notification.
type dispenseReport struct {
	BoxID     int64 `json:"box_id"`
	Dispensed int64 `json:"dispensed"`
}

// ReportDispense notifies the tracker that pills physically left a box.
func (c *Client) ReportDispense(ctx context.Context, event domain.DispenseEvent) error {
	report := dispenseReport{BoxID: event.BoxID, Dispensed: event.PillsDispensed}
	return c.do(ctx, http.MethodPost, "/api/dispense", report, nil)
}

// UpsertSlot pushes a full slot record, typically right after a label scan.
func (c *Client) UpsertSlot(ctx context.Context, slot domain.MedicationSlot) error {
	return c.do(ctx, http.MethodPost, "/api/medications", slot, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("tracker: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("tracker: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tracker: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracker: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("tracker: decode response: %w", err)
	}
	return nil
}
