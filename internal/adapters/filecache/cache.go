// Package filecache stores resolved locations in a single JSON file.
//
// Every write reads the whole file, applies the change and replaces the file
// through a rename, so readers never observe a partial write. Concurrent
// writers in one process are serialised; concurrent processes sharing a file
// may lose each other's updates.
package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/location"
	"github.com/samirrijal/meteomcp/internal/pkg/geospatial"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

const (
	DefaultFile       = "location_cache.json"
	DefaultExpiryDays = 30
	MinExpiryDays     = 1
	MaxExpiryDays     = 365
)

// Cache implements ports.LocationCache on a local JSON file.
type Cache struct {
	path       string
	expiryDays int
	now        func() time.Time

	mu sync.Mutex
}

// DefaultDir returns ~/.cache/weather.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "weather")
	}
	return filepath.Join(home, ".cache", "weather")
}

// New creates the cache directory if needed and returns a Cache backed by
// dir/file. Empty dir and file fall back to the defaults.
func New(dir, file string, expiryDays int) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if file == "" {
		file = DefaultFile
	}
	if expiryDays < MinExpiryDays || expiryDays > MaxExpiryDays {
		return nil, fmt.Errorf("expiry_days must be %d-%d, got %d", MinExpiryDays, MaxExpiryDays, expiryDays)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{
		path:       filepath.Join(dir, file),
		expiryDays: expiryDays,
		now:        time.Now,
	}, nil
}

// SetClock overrides the time source.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// Path returns the backing file.
func (c *Cache) Path() string { return c.path }

func (c *Cache) maxAge() time.Duration {
	return time.Duration(c.expiryDays) * 24 * time.Hour
}

// store maps cache keys to raw entries. Entries stay raw so that unreadable
// ones survive reads and are only dropped by CleanExpired.
type store map[string]json.RawMessage

// load reads the file. A missing or corrupt file is an empty store.
func (c *Cache) load() store {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("read location cache", "path", c.path, "error", err)
		}
		return store{}
	}
	s := store{}
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("location cache file is corrupt, starting empty", "path", c.path, "error", err)
		return store{}
	}
	return s
}

// save writes s to a temporary file in the cache directory and renames it
// over the real one.
func (c *Cache) save(s store) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrCacheUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", domain.ErrCacheUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync: %v", domain.ErrCacheUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", domain.ErrCacheUnavailable, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("%w: rename: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// entry is the on-disk form. Pointers distinguish missing fields.
type entry struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Name      *string  `json:"name"`
	Country   string   `json:"country"`
	Timezone  string   `json:"timezone"`
	CachedAt  string   `json:"cached_at"`
}

// decode parses a raw entry. Entries missing coordinates, name or a
// parseable timestamp are invalid.
func decode(raw json.RawMessage) (domain.LocationRecord, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.LocationRecord{}, err
	}
	if e.Latitude == nil || e.Longitude == nil || e.Name == nil {
		return domain.LocationRecord{}, errors.New("missing required field")
	}
	if !geospatial.ValidCoordinates(*e.Latitude, *e.Longitude) {
		return domain.LocationRecord{}, errors.New("coordinates out of range")
	}
	cachedAt, err := parseTime(e.CachedAt)
	if err != nil {
		return domain.LocationRecord{}, fmt.Errorf("cached_at: %w", err)
	}
	tz := e.Timezone
	if tz == "" {
		tz = domain.DefaultTimezone
	}
	return domain.LocationRecord{
		Latitude:  *e.Latitude,
		Longitude: *e.Longitude,
		Name:      *e.Name,
		Country:   e.Country,
		Timezone:  tz,
		CachedAt:  cachedAt,
	}, nil
}

// parseTime accepts RFC 3339 and the zone-less ISO-8601 form, read as UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
}

func encode(rec domain.LocationRecord) (json.RawMessage, error) {
	return json.Marshal(rec.Canonical())
}

// live returns the record at key when it is readable and unexpired.
func (c *Cache) live(s store, key string, now time.Time) (*domain.LocationRecord, bool) {
	raw, ok := s[key]
	if !ok {
		return nil, false
	}
	rec, err := decode(raw)
	if err != nil {
		return nil, false
	}
	if rec.Expired(now, c.maxAge()) {
		return nil, false
	}
	return &rec, true
}

// Get returns the unexpired record stored for raw. Lookups are exact: a
// qualified query never falls back to a bare-city entry.
func (c *Cache) Get(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	key := location.CacheKey(raw)

	c.mu.Lock()
	s := c.load()
	c.mu.Unlock()

	rec, ok := c.live(s, key, c.now())
	if !ok {
		return nil, nil
	}
	logging.FromContext(ctx).Debug("file cache hit", "key", key)
	return rec, nil
}

// Set stores rec under raw with a fresh timestamp.
func (c *Cache) Set(ctx context.Context, raw string, rec domain.LocationRecord) error {
	key := location.CacheKey(raw)
	rec.CachedAt = c.now()
	data, err := encode(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrCacheUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load()
	s[key] = data
	if err := c.save(s); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug("file cache stored", "key", key, "name", rec.Name)
	return nil
}

// Invalidate removes the entry for raw and reports whether one existed.
func (c *Cache) Invalidate(ctx context.Context, raw string) (bool, error) {
	key := location.CacheKey(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load()
	if _, ok := s[key]; !ok {
		return false, nil
	}
	delete(s, key)
	if err := c.save(s); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every entry. The file is rewritten only when it had entries.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.load())
	if n == 0 {
		return 0, nil
	}
	if err := c.save(store{}); err != nil {
		return 0, err
	}
	return n, nil
}

// CleanExpired removes expired and unreadable entries.
func (c *Cache) CleanExpired(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.load()
	now := c.now()
	var stale []string
	for key := range s {
		if _, ok := c.live(s, key, now); !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	sort.Strings(stale)
	for _, key := range stale {
		delete(s, key)
	}
	if err := c.save(s); err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Debug("file cache cleaned", "removed", len(stale), "keys", stale)
	return len(stale), nil
}

// Stats counts entries. Unreadable entries count as expired.
func (c *Cache) Stats(ctx context.Context) (domain.CacheStats, error) {
	c.mu.Lock()
	s := c.load()
	c.mu.Unlock()

	now := c.now()
	stats := domain.CacheStats{
		Backend:    "file",
		Total:      len(s),
		ExpiryDays: c.expiryDays,
		Location:   c.path,
	}
	for key := range s {
		if _, ok := c.live(s, key, now); ok {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	return stats, nil
}
