package valkey

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/zeebo/blake3"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

const (
	DefaultNamespace = "weather:location"
	DefaultTimeout   = 5 * time.Second
)

// LocationCache implements ports.LocationCache on Valkey. Expiry is the
// server-side TTL, so expired entries are never visible and CleanExpired
// has nothing to do.
type LocationCache struct {
	client    *Client
	namespace string
	ttl       time.Duration
	timeout   time.Duration
}

// NewLocationCache creates a LocationCache storing entries for expiryDays.
func NewLocationCache(client *Client, namespace string, expiryDays int, timeout time.Duration) *LocationCache {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocationCache{
		client:    client,
		namespace: namespace,
		ttl:       time.Duration(expiryDays) * 24 * time.Hour,
		timeout:   timeout,
	}
}

// Key derives the namespaced key for raw: the BLAKE3 digest of raw
// lowercased with all whitespace removed.
func Key(namespace, raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	sum := blake3.Sum256([]byte(b.String()))
	return namespace + ":" + hex.EncodeToString(sum[:])
}

func (c *LocationCache) key(raw string) string { return Key(c.namespace, raw) }

func (c *LocationCache) unavailable(op string, err error) error {
	return fmt.Errorf("%w: valkey %s: %v", domain.ErrCacheUnavailable, op, err)
}

// Get returns the record for raw. Undecodable values are logged and
// treated as absent.
func (c *LocationCache) Get(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(raw))
	if err != nil {
		return nil, c.unavailable("get", err)
	}
	if data == nil {
		return nil, nil
	}
	rec, err := Decode[domain.LocationRecord](data)
	if err != nil {
		logging.FromContext(ctx).Warn("discarding undecodable cache value", "location", raw, "error", err)
		return nil, nil
	}
	if rec.Timezone == "" {
		rec.Timezone = domain.DefaultTimezone
	}
	return &rec, nil
}

// Set stores rec under raw with the configured TTL.
func (c *LocationCache) Set(ctx context.Context, raw string, rec domain.LocationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rec.CachedAt = time.Now()
	data, err := Encode(rec)
	if err != nil {
		return c.unavailable("encode", err)
	}
	if err := c.client.Set(ctx, c.key(raw), data, c.ttl); err != nil {
		return c.unavailable("set", err)
	}
	return nil
}

// Invalidate deletes the entry for raw.
func (c *LocationCache) Invalidate(ctx context.Context, raw string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	n, err := c.client.Delete(ctx, c.key(raw))
	if err != nil {
		return false, c.unavailable("del", err)
	}
	return n > 0, nil
}

// Clear deletes every key in the namespace.
func (c *LocationCache) Clear(ctx context.Context) (int, error) {
	total := 0
	err := c.client.Scan(ctx, c.namespace+":*", func(keys []string) error {
		n, err := c.client.Delete(ctx, keys...)
		total += n
		return err
	})
	if err != nil {
		return total, c.unavailable("clear", err)
	}
	return total, nil
}

// CleanExpired is a no-op: the server evicts entries when their TTL lapses.
func (c *LocationCache) CleanExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Stats counts keys in the namespace. Expired keys are already gone.
func (c *LocationCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	total := 0
	err := c.client.Scan(ctx, c.namespace+":*", func(keys []string) error {
		total += len(keys)
		return nil
	})
	if err != nil {
		return domain.CacheStats{}, c.unavailable("scan", err)
	}
	return domain.CacheStats{
		Backend:    "valkey",
		Total:      total,
		Valid:      total,
		ExpiryDays: int(c.ttl / (24 * time.Hour)),
		Location:   c.namespace,
	}, nil
}
