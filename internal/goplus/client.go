// Package goplus is a client for the GoPlus token security API.
package goplus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/observability"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.gopluslabs.io/api/v1"

// Endpoint labels used in errors, logs and metrics.
const (
	EndpointTokenSecurity       = "token_security"
	EndpointSolanaTokenSecurity = "solana_token_security"
	EndpointSupportedChains     = "supported_chains"
)

const maxResponseBytes = 8 << 20

// Client calls the security API. It never retries.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *observability.Metrics
	log     zerolog.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets an overall timeout on every request. Zero means none.
// The http.Client is copied so a shared one is left untouched.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.client
		hc.Timeout = d
		c.client = &hc
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenSecurity queries one or more contract addresses on chainID. The Solana
// chain uses its dedicated endpoint; every other chain id is a path parameter.
// Envelope codes are not interpreted here; see Envelope.Err.
func (c *Client) TokenSecurity(ctx context.Context, chainID string, addresses []string) (*TokenSecurityResponse, error) {
	if len(addresses) == 0 {
		return nil, errors.New("no contract addresses")
	}

	endpoint := EndpointTokenSecurity
	path := "/token_security/" + url.PathEscape(chainID)
	if chain.IsSolanaID(chainID) {
		endpoint = EndpointSolanaTokenSecurity
		path = "/solana/token_security"
	}
	query := url.Values{"contract_addresses": {strings.Join(addresses, ",")}}

	var env Envelope
	if err := c.get(ctx, endpoint, path, query, &env); err != nil {
		return nil, err
	}

	resp := &TokenSecurityResponse{Envelope: env}
	if env.HasResult() {
		if err := json.Unmarshal(env.Result, &resp.Tokens); err != nil {
			return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return resp, nil
}

// SupportedChains fetches the chain list. Entries without an id are skipped.
func (c *Client) SupportedChains(ctx context.Context) ([]chain.Chain, error) {
	var env Envelope
	if err := c.get(ctx, EndpointSupportedChains, "/supported_chains", nil, &env); err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	if !env.HasResult() {
		return nil, &QueryError{Message: "empty chain list"}
	}

	var raw []supportedChain
	if err := json.Unmarshal(env.Result, &raw); err != nil {
		return nil, &TransportError{Endpoint: EndpointSupportedChains, Err: fmt.Errorf("decode result: %w", err)}
	}

	chains := make([]chain.Chain, 0, len(raw))
	for _, r := range raw {
		id := r.id()
		if id == "" {
			continue
		}
		chains = append(chains, chain.Chain{ID: id, Name: r.Name})
	}
	return chains, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, out *Envelope) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.ObserveUpstream(endpoint, status, time.Since(start))
	}()

	c.log.Debug().Str("endpoint", endpoint).Str("url", u).Msg("security api request")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: status, Err: fmt.Errorf("read body: %w", err)}
	}
	if status < 200 || status >= 300 {
		return &TransportError{Endpoint: endpoint, StatusCode: status, Err: errors.New(snippet(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.log.Debug().Str("endpoint", endpoint).Str("code", out.Code.String()).
		Dur("elapsed", time.Since(start)).Msg("security api response")
	return nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
