package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/drainwatch/drainwatch/service/registry"
	"github.com/drainwatch/drainwatch/service/risk"
)

// Client is the HTTP client for the drainwatch analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new drainwatch service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// AnalyzeOptions tune one analysis request. Zero values let the server apply
// its defaults.
type AnalyzeOptions struct {
	Limit        int
	Experimental bool
}

// Analyze runs the drain analysis pipeline against a wallet address.
func (c *Client) Analyze(ctx context.Context, address string, opts AnalyzeOptions) (*risk.Report, error) {
	q := url.Values{}
	q.Set("address", address)
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Experimental {
		q.Set("experimental", "true")
	}

	u := fmt.Sprintf("%s/api/v1/analyze?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var report risk.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("analysis complete",
		"address", address,
		"overall_risk", report.OverallRisk,
		"severity", report.Severity,
	)
	return &report, nil
}

// GetReport looks up the on-chain drainer report for an address. A nil report
// with nil error means the address has never been reported.
func (c *Client) GetReport(ctx context.Context, address string) (*registry.DrainerReport, error) {
	u := fmt.Sprintf("%s/api/v1/report/%s", c.baseURL, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	// The server sends a JSON null for unreported addresses; decoding into a
	// pointer leaves it nil.
	var report *registry.DrainerReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return report, nil
}

// SubmitReport reports a drainer address on-chain through the service and
// returns the transaction signature.
func (c *Client) SubmitReport(ctx context.Context, address string, amountLamports *uint64) (string, error) {
	reqBody := map[string]interface{}{
		"drainer_address": address,
	}
	if amountLamports != nil {
		reqBody["amount_stolen"] = *amountLamports
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/report", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var response struct {
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("drainer report submitted", "address", address, "signature", response.Signature)
	return response.Signature, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
