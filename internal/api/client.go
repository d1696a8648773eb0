// Package api is the HTTP client for the remote trading API.
//
// Every call is a POST with a JSON body under a common path prefix.
// Response bodies are decoded best-effort: a 2xx response with an
// unparseable body counts as an empty payload, while a non-2xx response
// becomes an *Error carrying the HTTP status and whatever detail could
// be extracted from the body.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// Error is a non-2xx response from the trading API.
type Error struct {
	Status int
	Path   string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

// Client talks to the trading API at a fixed base URL.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for base, e.g. "http://127.0.0.1:8780/api".
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// post sends payload to path and decodes the response into dest.
// dest may be nil when the caller only cares about success.
func (c *Client) post(ctx context.Context, path string, payload, dest interface{}) error {
	if payload == nil {
		payload = struct{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("api: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s: %w", path, err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: %s: read body: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Status: resp.StatusCode,
			Path:   path,
			Detail: extractDetail(text, resp.Status),
		}
	}

	if dest == nil || len(bytes.TrimSpace(text)) == 0 {
		return nil
	}
	// Tolerant decode: a body that is not valid JSON is an absent
	// payload, not a hard failure, once the status was already OK.
	if err := json.Unmarshal(text, dest); err != nil {
		return nil
	}
	return nil
}

// extractDetail pulls the most useful error string out of a failing
// response body: a "detail" field first, then the whole JSON body, then
// the raw text, then the HTTP status line.
func extractDetail(text []byte, statusLine string) string {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return statusLine
	}

	var decoded interface{}
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}

	if obj, ok := decoded.(map[string]interface{}); ok {
		if d, ok := obj["detail"]; ok {
			if s, ok := d.(string); ok {
				return s
			}
			if enc, err := json.Marshal(d); err == nil {
				return string(enc)
			}
		}
	}
	if s, ok := decoded.(string); ok {
		return s
	}
	if enc, err := json.Marshal(decoded); err == nil {
		return string(enc)
	}
	return string(trimmed)
}

// SendLoginCode asks the API to email a one-time code to email.
func (c *Client) SendLoginCode(ctx context.Context, email string) error {
	return c.post(ctx, "/login/send", map[string]string{"email": email}, nil)
}

// CheckLoginCode verifies a one-time code. A 2xx response with ok=false
// means the code was rejected; transport and HTTP failures come back as
// errors.
func (c *Client) CheckLoginCode(ctx context.Context, email, code string) (bool, error) {
	var result struct {
		OK bool `json:"ok"`
	}
	if err := c.post(ctx, "/login/check", map[string]string{"email": email, "code": code}, &result); err != nil {
		return false, err
	}
	return result.OK, nil
}

// Symbols lists the symbols traders can be started on.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var result struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.post(ctx, "/symbols", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Symbols, nil
}

// ListTraders returns the symbols with a running trader for owner.
func (c *Client) ListTraders(ctx context.Context, owner string) ([]string, error) {
	var result struct {
		Traders []string `json:"traders"`
	}
	if err := c.post(ctx, "/traders/list", map[string]string{"owner": owner}, &result); err != nil {
		return nil, err
	}
	return result.Traders, nil
}

// StartTrader starts a trader for symbol. fundAmnt is passed through as
// entered; the server parses it.
func (c *Client) StartTrader(ctx context.Context, owner, symbol, strategy, fundAmnt string) (map[string]interface{}, error) {
	payload := map[string]string{
		"owner":     owner,
		"symbol":    symbol,
		"strategy":  strategy,
		"fund_amnt": fundAmnt,
	}
	var result map[string]interface{}
	if err := c.post(ctx, "/traders/start", payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StopTrader stops the trader for symbol.
func (c *Client) StopTrader(ctx context.Context, owner, symbol string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.post(ctx, "/traders/stop", map[string]string{"owner": owner, "symbol": symbol}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AddCoin registers a new coin in the tradable symbol list.
func (c *Client) AddCoin(ctx context.Context, owner, coin string) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := c.post(ctx, "/traders/add_coin", map[string]string{"owner": owner, "coin": coin}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// TraderStatus fetches the latest status snapshot for symbol.
func (c *Client) TraderStatus(ctx context.Context, owner, symbol string) (model.TraderStatus, error) {
	var result struct {
		Status model.TraderStatus `json:"status"`
	}
	if err := c.post(ctx, "/traders/status", map[string]string{"owner": owner, "symbol": symbol}, &result); err != nil {
		return model.TraderStatus{}, err
	}
	return result.Status, nil
}
