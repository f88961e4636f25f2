// Package backend is the dashboard's only channel to the detection backend.
// Every call is attempted exactly once; failures come back as
// *TransportError, *BackendError or *DecodeError.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Operation names a backend call.
type Operation string

const (
	OpLogs       Operation = "logs"
	OpBlockchain Operation = "blockchain"
	OpHybrid     Operation = "hybrid"
	OpBlocklist  Operation = "blocklist"
	OpBlock      Operation = "block"
	OpUnblock    Operation = "unblock"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:5000"

// Client issues GET requests against the backend REST surface.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	target, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", baseURL)
	}

	c := &Client{
		base:       target,
		httpClient: &http.Client{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Logs fetches the attack log, most recent first.
func (c *Client) Logs(ctx context.Context) ([]AttackLogEntry, error) {
	var logs []AttackLogEntry
	if err := c.getJSON(ctx, OpLogs, "/logs", &logs); err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []AttackLogEntry{}
	}
	return logs, nil
}

// BlockchainSummary fetches the blockchain-anchored log summary.
func (c *Client) BlockchainSummary(ctx context.Context) (BlockchainSummary, error) {
	var body blockchainBody
	if err := c.getJSON(ctx, OpBlockchain, "/logs/blockchain", &body); err != nil {
		return BlockchainSummary{}, err
	}
	sum := BlockchainSummary{
		TotalLogs: body.TotalBlockchainLogs,
		AppID:     body.AppID,
	}
	if body.Explorer != nil {
		sum.ExplorerURL = strings.TrimSpace(*body.Explorer)
	}
	return sum, nil
}

// HybridSummary fetches the local log count.
func (c *Client) HybridSummary(ctx context.Context) (HybridSummary, error) {
	var body hybridBody
	if err := c.getJSON(ctx, OpHybrid, "/logs/hybrid", &body); err != nil {
		return HybridSummary{}, err
	}
	return HybridSummary{LocalLogs: body.LocalLogs}, nil
}

// Blocklist fetches the set of blocked MAC addresses.
func (c *Client) Blocklist(ctx context.Context) (Blocklist, error) {
	var body blocklistBody
	if err := c.getJSON(ctx, OpBlocklist, "/blocklist", &body); err != nil {
		return Blocklist{}, err
	}

	bl := Blocklist{
		MACs:        body.BlockedMACs,
		Total:       len(body.BlockedMACs),
		LastUpdated: "N/A",
	}
	if bl.MACs == nil {
		bl.MACs = []string{}
	}
	if body.Total != nil {
		bl.Total = *body.Total
	}
	if body.LastUpdated != nil && *body.LastUpdated != "" {
		bl.LastUpdated = string(*body.LastUpdated)
	}
	return bl, nil
}

// Block asks the backend to block mac. The success body is ignored.
func (c *Client) Block(ctx context.Context, mac string) error {
	_, err := c.get(ctx, OpBlock, "/block/"+url.PathEscape(mac))
	return err
}

// Unblock asks the backend to unblock mac.
func (c *Client) Unblock(ctx context.Context, mac string) error {
	_, err := c.get(ctx, OpUnblock, "/unblock/"+url.PathEscape(mac))
	return err
}

func (c *Client) getJSON(ctx context.Context, op Operation, path string, v any) error {
	body, err := c.get(ctx, op, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// get performs one GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op Operation, path string) ([]byte, error) {
	target := c.base.String() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", string(op)).Msg("request failed")
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug().
		Str("op", string(op)).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("backend response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage extracts {"error": ...} or, failing that, {"message": ...}.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error != "" {
		return eb.Error
	}
	return eb.Message
}
