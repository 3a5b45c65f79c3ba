// Package security answers token security queries, caching normalized
// reports per (chain, address).
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yolodolo42/safebot/internal/chain"
	"github.com/yolodolo42/safebot/internal/goplus"
	"github.com/yolodolo42/safebot/internal/observability"
	"github.com/yolodolo42/safebot/internal/ttl"
)

// DefaultTTL is how long a report is served from cache.
const DefaultTTL = 12 * time.Hour

// codeSolanaNotIndexed is returned by the Solana endpoint for unknown mints.
const codeSolanaNotIndexed = 2007

var (
	// ErrTokenNotIndexed means the Solana endpoint does not know the mint.
	ErrTokenNotIndexed = errors.New("this Solana token is not indexed yet, check the address or try again later")
	// ErrNoResult means the API answered without data for the address.
	ErrNoResult = errors.New("cannot confirm the address, no security data returned")
)

// API is the subset of the security API the service calls.
type API interface {
	TokenSecurity(ctx context.Context, chainID string, addresses []string) (*goplus.TokenSecurityResponse, error)
}

// CacheKey identifies a cached report.
type CacheKey struct {
	ChainID string
	Address string
}

// Service checks tokens. Concurrent misses on the same key each call the API.
type Service struct {
	api     API
	cache   *ttl.Cache[CacheKey, *Report]
	now     func() time.Time
	metrics *observability.Metrics
	log     zerolog.Logger
}

// Option configures Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
	log     zerolog.Logger
}

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(o *serviceOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock sets the time source for cache expiry and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics records cache hits and misses.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *serviceOptions) { o.log = l }
}

// NewService creates a service backed by api.
func NewService(api API, opts ...Option) *Service {
	o := serviceOptions{ttl: DefaultTTL, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		api:     api,
		cache:   ttl.New[CacheKey, *Report](o.ttl, ttl.WithClock(o.now)),
		now:     o.now,
		metrics: o.metrics,
		log:     o.log,
	}
}

// Check returns the security report for address on chainID. Invalid
// addresses fail before any lookup. Cached reports are returned as stored;
// on a miss the API is called once, with timeout applied when positive. A
// response without data for address is ErrNoResult and is not cached.
func (s *Service) Check(ctx context.Context, chainID, address string, timeout time.Duration) (*Report, error) {
	if !chain.IsValidAddress(address) {
		return nil, fmt.Errorf("%w: %q", chain.ErrInvalidAddress, address)
	}

	key := CacheKey{ChainID: chainID, Address: address}
	if r, ok := s.cache.Get(key); ok {
		s.metrics.ObserveCache(true)
		s.log.Debug().Str("chain", chainID).Str("address", address).Msg("security report cache hit")
		return r, nil
	}
	s.metrics.ObserveCache(false)

	fetched, err := s.fetch(ctx, chainID, []string{address}, timeout)
	if err != nil {
		return nil, err
	}
	tok := fetched.lookup(address)
	if tok == nil {
		s.log.Warn().Str("chain", chainID).Str("address", address).Msg("security api returned no data for the requested address")
		return nil, fmt.Errorf("%w: %w", goplus.ErrQueryFailed, ErrNoResult)
	}

	r := fetched.only(tok)
	s.cache.Put(key, r)
	return r, nil
}

// BatchResult is one address outcome of CheckBatch.
type BatchResult struct {
	Address string
	Report  *Report
	Err     error
}

// CheckBatch checks several addresses on one chain. Invalid addresses get a
// per-address error, cached ones are served from cache, and all remaining
// addresses share a single API request. Each fetched token is cached under
// its own key. Results keep input order.
func (s *Service) CheckBatch(ctx context.Context, chainID string, addresses []string, timeout time.Duration) []BatchResult {
	results := make([]BatchResult, 0, len(addresses))
	pending := make(map[string][]int)
	var misses []string

	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		res := BatchResult{Address: addr}
		if !chain.IsValidAddress(addr) {
			res.Err = fmt.Errorf("%w: %q", chain.ErrInvalidAddress, addr)
		} else if r, ok := s.cache.Get(CacheKey{ChainID: chainID, Address: addr}); ok {
			s.metrics.ObserveCache(true)
			res.Report = r
		} else {
			s.metrics.ObserveCache(false)
			if _, seen := pending[addr]; !seen {
				misses = append(misses, addr)
			}
			pending[addr] = append(pending[addr], len(results))
		}
		results = append(results, res)
	}
	if len(misses) == 0 {
		return results
	}

	fetched, err := s.fetch(ctx, chainID, misses, timeout)
	for _, addr := range misses {
		var r *Report
		addrErr := err
		if err == nil {
			if tok := fetched.lookup(addr); tok != nil {
				r = fetched.only(tok)
				s.cache.Put(CacheKey{ChainID: chainID, Address: addr}, r)
			} else {
				addrErr = fmt.Errorf("%w: %w", goplus.ErrQueryFailed, ErrNoResult)
			}
		}
		for _, i := range pending[addr] {
			results[i].Report = r
			results[i].Err = addrErr
		}
	}
	return results
}

// only narrows the report to a single token.
func (r *Report) only(tok *Token) *Report {
	return &Report{ChainID: r.ChainID, Tokens: map[string]*Token{tok.Address: tok}, FetchedAt: r.FetchedAt}
}

// CacheLen counts live cached reports.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

func (s *Service) fetch(ctx context.Context, chainID string, addresses []string, timeout time.Duration) (*Report, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	solana := chain.IsSolanaID(chainID)
	resp, err := s.api.TokenSecurity(ctx, chainID, addresses)
	if err != nil {
		s.log.Error().Err(err).Str("chain", chainID).Strs("addresses", addresses).Msg("security api request failed")
		return nil, err
	}

	if err := resp.Err(); err != nil {
		var qe *goplus.QueryError
		if solana && errors.As(err, &qe) && qe.Code == codeSolanaNotIndexed {
			return nil, fmt.Errorf("%w: %w", ErrTokenNotIndexed, err)
		}
		return nil, err
	}
	if len(resp.Tokens) == 0 {
		return nil, fmt.Errorf("%w: %w", goplus.ErrQueryFailed, ErrNoResult)
	}

	kind := KindEVM
	if solana {
		kind = KindSolana
	}

	report := &Report{
		ChainID:   chainID,
		Tokens:    make(map[string]*Token, len(resp.Tokens)),
		FetchedAt: s.now(),
	}
	for addr, raw := range resp.Tokens {
		p, err := decodePayload(kind, raw)
		if err != nil {
			return nil, &goplus.TransportError{Endpoint: goplus.EndpointTokenSecurity, Err: err}
		}
		report.Tokens[addr] = p.normalize(addr)
	}
	return report, nil
}
