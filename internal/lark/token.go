package lark

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// tokenCache stores the SDK's access tokens on our clock so a rejected
// token can be dropped before the next send.
type tokenCache struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]tokenEntry
}

type tokenEntry struct {
	value   string
	expires time.Time
}

func newTokenCache(now func() time.Time) *tokenCache {
	return &tokenCache{now: now, entries: make(map[string]tokenEntry)}
}

func (c *tokenCache) Set(_ context.Context, key, value string, expire time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = tokenEntry{value: value, expires: c.now().Add(expire)}
	return nil
}

func (c *tokenCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return "", nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return "", nil
	}
	return e.value, nil
}

func (c *tokenCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// sdkLogger routes SDK log lines into zerolog.
type sdkLogger struct {
	log zerolog.Logger
}

func (l sdkLogger) Debug(_ context.Context, args ...interface{}) {
	l.log.Debug().Msg(joinArgs(args))
}

func (l sdkLogger) Info(_ context.Context, args ...interface{}) {
	l.log.Info().Msg(joinArgs(args))
}

func (l sdkLogger) Warn(_ context.Context, args ...interface{}) {
	l.log.Warn().Msg(joinArgs(args))
}

func (l sdkLogger) Error(_ context.Context, args ...interface{}) {
	l.log.Error().Msg(joinArgs(args))
}

func joinArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, " ")
}
