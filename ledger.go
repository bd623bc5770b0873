package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ledger is the external spreadsheet acting as the system of record for
// previously processed articles. Implementations wrap a hosted automation
// service; tests supply fakes.
type Ledger interface {
	// LookupRows returns every ledger row whose column equals value.
	LookupRows(ctx context.Context, column, value string) ([]map[string]string, error)
	// AppendRows appends rows in one batched call. Not idempotent on its
	// own: a retry after partial failure may re-append rows. Callers that
	// need at-most-once use the journal's idempotency keys, which travel
	// with each row.
	AppendRows(ctx context.Context, rows []AppendRow) error
	// UpdateRow sets fields on the first row where column equals value.
	UpdateRow(ctx context.Context, column, value string, fields map[string]string) error
}

// AppendRow is one row to append, carrying its client-generated
// idempotency key.
type AppendRow struct {
	Key    string            `json:"idempotency_key"`
	Fields map[string]string `json:"fields"`
}

// SheetsClient talks to the sheet-automation webhook service.
type SheetsClient struct {
	baseURL       string
	apiKey        string
	spreadsheetID string
	client        *http.Client
	costs         *CostTracker
}

// NewSheetsClient creates a ledger client bound to one spreadsheet.
func NewSheetsClient(baseURL, apiKey, spreadsheetID string, costs *CostTracker) *SheetsClient {
	return &SheetsClient{
		baseURL:       baseURL,
		apiKey:        apiKey,
		spreadsheetID: spreadsheetID,
		client:        &http.Client{Timeout: 30 * time.Second},
		costs:         costs,
	}
}

type lookupRequest struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

type lookupResponse struct {
	Rows []map[string]string `json:"rows"`
}

type appendRequest struct {
	Rows []AppendRow `json:"rows"`
}

type updateRequest struct {
	Column string            `json:"column"`
	Value  string            `json:"value"`
	Fields map[string]string `json:"fields"`
}

// LookupRows finds existing rows matching column=value.
func (s *SheetsClient) LookupRows(ctx context.Context, column, value string) ([]map[string]string, error) {
	var parsed lookupResponse
	err := s.post(ctx, "rows:lookup", lookupRequest{Column: column, Value: value}, &parsed)
	if err != nil {
		return nil, fmt.Errorf("looking up %s=%q: %w", column, value, err)
	}
	return parsed.Rows, nil
}

// AppendRows appends all rows in one call.
func (s *SheetsClient) AppendRows(ctx context.Context, rows []AppendRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.post(ctx, "rows:append", appendRequest{Rows: rows}, nil); err != nil {
		return fmt.Errorf("appending %d rows: %w", len(rows), err)
	}
	return nil
}

// UpdateRow updates fields on the row matching column=value.
func (s *SheetsClient) UpdateRow(ctx context.Context, column, value string, fields map[string]string) error {
	err := s.post(ctx, "rows:update", updateRequest{Column: column, Value: value, Fields: fields}, nil)
	if err != nil {
		return fmt.Errorf("updating %s=%q: %w", column, value, err)
	}
	return nil
}

func (s *SheetsClient) post(ctx context.Context, op string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/%s", s.baseURL, s.spreadsheetID, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if s.costs != nil {
		s.costs.TrackSheetAction(1)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	debugLog("sheets %s response: status=%d", op, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
