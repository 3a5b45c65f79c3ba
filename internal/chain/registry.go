package chain

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrChainNotFound is returned when a name matches no chain in the snapshot.
var ErrChainNotFound = errors.New("chain not found")

var numericID = regexp.MustCompile(`^\d+$`)

// Source fetches the live chain list.
type Source interface {
	SupportedChains(ctx context.Context) ([]Chain, error)
}

// Load fetches the chain list from src. An empty list is an error.
func Load(ctx context.Context, src Source) ([]Chain, error) {
	if src == nil {
		return nil, errors.New("no chain source configured")
	}
	chains, err := src.SupportedChains(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch supported chains: %w", err)
	}
	if len(chains) == 0 {
		return nil, errors.New("fetch supported chains: empty list")
	}
	return chains, nil
}

// Resolve maps user input to a chain. All-digit input is returned verbatim as
// the chain id without consulting chains. Anything else is matched
// case-insensitively against chain names in either direction (name contains
// token, or token contains name); the first match in list order wins.
func Resolve(token string, chains []Chain) (Chain, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Chain{}, false
	}
	if numericID.MatchString(token) {
		return Chain{ID: token}, true
	}

	needle := strings.ToLower(token)
	for _, c := range chains {
		name := strings.ToLower(c.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return c, true
		}
	}
	return Chain{}, false
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// WithFallbackHook is called every time the fallback list is substituted.
func WithFallbackHook(fn func(error)) RegistryOption {
	return func(r *Registry) { r.onFallback = fn }
}

// Registry holds the current chain snapshot. Snapshots are replaced
// wholesale and never modified in place.
type Registry struct {
	src        Source
	log        zerolog.Logger
	onFallback func(error)
	current    atomic.Pointer[[]Chain]
}

// NewRegistry creates a registry seeded with the fallback list.
func NewRegistry(src Source, opts ...RegistryOption) *Registry {
	r := &Registry{src: src, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	r.replace(FallbackChains())
	return r
}

// Refresh reloads the chain list. Any failure substitutes the fallback list;
// the return value reports whether that happened.
func (r *Registry) Refresh(ctx context.Context) bool {
	chains, err := Load(ctx, r.src)
	if err != nil {
		r.log.Warn().Err(err).Str("fallback_version", FallbackVersion).
			Msg("using built-in chain list")
		if r.onFallback != nil {
			r.onFallback(err)
		}
		r.replace(FallbackChains())
		return true
	}
	r.log.Info().Int("chains", len(chains)).Msg("loaded supported chains")
	r.replace(chains)
	return false
}

// Run refreshes every interval until ctx is done. A non-positive interval returns immediately.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Snapshot returns a copy of the current list.
func (r *Registry) Snapshot() []Chain {
	cur := *r.current.Load()
	out := make([]Chain, len(cur))
	copy(out, cur)
	return out
}

// Lookup finds a chain by exact id.
func (r *Registry) Lookup(id string) (Chain, bool) {
	for _, c := range *r.current.Load() {
		if strings.EqualFold(c.ID, id) {
			return c, true
		}
	}
	return Chain{}, false
}

// Resolve resolves token against the current snapshot. Numeric ids are
// decorated with a registry name when one is known.
func (r *Registry) Resolve(token string) (Chain, bool) {
	c, ok := Resolve(token, *r.current.Load())
	if ok && c.Name == "" {
		if known, found := r.Lookup(c.ID); found {
			c.Name = known.Name
		}
	}
	return c, ok
}

func (r *Registry) replace(chains []Chain) {
	r.current.Store(&chains)
}
