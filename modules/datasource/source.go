// Package datasource defines the external data sources generators pull
// facts from, as blocking calls.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DeferredWitnessCircuit/modules/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/fxamacker/cbor/v2"
)

// Source answers a query with a payload. Fetch blocks until the payload is
// available or the fetch fails; any asynchronous transport stays inside the
// implementation.
type Source[Q, P any] interface {
	Fetch(ctx context.Context, query Q) (P, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[Q, P any] func(ctx context.Context, query Q) (P, error)

func (f SourceFunc[Q, P]) Fetch(ctx context.Context, query Q) (P, error) {
	return f(ctx, query)
}

// CacheConfig configures Cached. Shards, MaxEntriesInWindow and
// MaxEntrySize size the memory the cache reserves up front, roughly
// MaxEntriesInWindow*MaxEntrySize bytes in total.
type CacheConfig struct {
	// TTL is how long an answer stays valid.
	TTL time.Duration
	// MaxSizeMB bounds the cache memory, 0 lets it grow without bound.
	MaxSizeMB int
	// Shards must be a power of two.
	Shards             int
	MaxEntriesInWindow int
	// MaxEntrySize is the expected payload size in bytes. Larger payloads
	// are still cached.
	MaxEntrySize int
}

// DefaultCacheConfig suits the short payloads of chain queries: roots,
// slots and block numbers.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:                10 * time.Minute,
		MaxSizeMB:          8,
		Shards:             16,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       128,
	}
}

// Cached remembers successful answers of a source. Failures are never cached.
type Cached[Q, P any] struct {
	source Source[Q, P]
	key    func(Q) string
	cache  *bigcache.BigCache
}

// NewCached wraps source. key must map equal queries to equal strings.
func NewCached[Q, P any](ctx context.Context, source Source[Q, P], key func(Q) string, cfg CacheConfig) (*Cached[Q, P], error) {
	bc := bigcache.DefaultConfig(cfg.TTL)
	bc.HardMaxCacheSize = cfg.MaxSizeMB
	bc.Shards = cfg.Shards
	bc.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	bc.MaxEntrySize = cfg.MaxEntrySize
	bc.Verbose = false
	cache, err := bigcache.New(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("datasource: create cache: %w", err)
	}
	return &Cached[Q, P]{source: source, key: key, cache: cache}, nil
}

func (c *Cached[Q, P]) Fetch(ctx context.Context, query Q) (P, error) {
	k := c.key(query)
	log := logger.Logger().With().Str("key", k).Logger()

	if raw, err := c.cache.Get(k); err == nil {
		var p P
		if err := cbor.Unmarshal(raw, &p); err == nil {
			log.Debug().Msg("datasource cache hit")
			return p, nil
		}
		log.Warn().Msg("datasource cache entry unreadable, refetching")
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		log.Warn().Err(err).Msg("datasource cache lookup failed")
	}

	p, err := c.source.Fetch(ctx, query)
	if err != nil {
		return p, err
	}
	if raw, err := cbor.Marshal(p); err == nil {
		if err := c.cache.Set(k, raw); err != nil {
			log.Warn().Err(err).Msg("datasource cache store failed")
		}
	}
	return p, nil
}

// Close releases the cache.
func (c *Cached[Q, P]) Close() error {
	return c.cache.Close()
}
