package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samirrijal/meteomcp/internal/core/domain"
	"github.com/samirrijal/meteomcp/internal/core/ports"
	"github.com/samirrijal/meteomcp/internal/pkg/logging"
)

// CacheService exposes maintenance operations on the location cache.
type CacheService struct {
	cache  ports.LocationCache
	events ports.EventPublisher
	origin string
}

// NewCacheService creates a new CacheService. origin identifies this
// process in invalidation events so it can ignore its own broadcasts.
// cache and events may be nil.
func NewCacheService(cache ports.LocationCache, events ports.EventPublisher, origin string) *CacheService {
	return &CacheService{cache: cache, events: events, origin: origin}
}

// Enabled reports whether a cache backend is configured.
func (s *CacheService) Enabled() bool { return s.cache != nil }

func (s *CacheService) backend() (ports.LocationCache, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("%w: no cache backend configured", domain.ErrCacheUnavailable)
	}
	return s.cache, nil
}

// Lookup returns the live cached record for raw, or nil.
func (s *CacheService) Lookup(ctx context.Context, raw string) (*domain.LocationRecord, error) {
	query, err := ValidateLocation(raw)
	if err != nil {
		return nil, err
	}
	c, err := s.backend()
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, query)
}

// Put stores rec under raw, overwriting any existing entry.
func (s *CacheService) Put(ctx context.Context, raw string, rec domain.LocationRecord) error {
	c, err := s.backend()
	if err != nil {
		return err
	}
	return c.Set(ctx, raw, rec)
}

// Stats summarises the cache contents.
func (s *CacheService) Stats(ctx context.Context) (domain.CacheStats, error) {
	c, err := s.backend()
	if err != nil {
		return domain.CacheStats{}, err
	}
	return c.Stats(ctx)
}

// CleanExpired removes expired and unreadable entries.
func (s *CacheService) CleanExpired(ctx context.Context) (int, error) {
	c, err := s.backend()
	if err != nil {
		return 0, err
	}
	n, err := c.CleanExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.FromContext(ctx).Info("cleaned expired location cache entries", "removed", n)
	}
	return n, nil
}

// Clear removes every entry and tells peers to do the same.
func (s *CacheService) Clear(ctx context.Context) (int, error) {
	c, err := s.backend()
	if err != nil {
		return 0, err
	}
	n, err := c.Clear(ctx)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info("location cache cleared", "removed", n)
	s.broadcast(ctx, &domain.InvalidationEvent{All: true})
	return n, nil
}

// Invalidate removes the entry for raw and tells peers to do the same.
func (s *CacheService) Invalidate(ctx context.Context, raw string) (bool, error) {
	query, err := ValidateLocation(raw)
	if err != nil {
		return false, err
	}
	c, err := s.backend()
	if err != nil {
		return false, err
	}
	removed, err := c.Invalidate(ctx, query)
	if err != nil {
		return false, err
	}
	s.broadcast(ctx, &domain.InvalidationEvent{Location: query})
	return removed, nil
}

// ApplyInvalidation handles an invalidation broadcast by a peer. Events this
// process published are ignored.
func (s *CacheService) ApplyInvalidation(ctx context.Context, event *domain.InvalidationEvent) error {
	if s.cache == nil || event.Origin == s.origin {
		return nil
	}
	log := logging.FromContext(ctx).With("event_id", event.ID, "origin", event.Origin)
	if event.All {
		n, err := s.cache.Clear(ctx)
		if err != nil {
			return err
		}
		log.Info("peer cleared location cache", "removed", n)
		return nil
	}
	if event.Location == "" {
		return nil
	}
	removed, err := s.cache.Invalidate(ctx, event.Location)
	if err != nil {
		return err
	}
	log.Debug("peer invalidated location", "location", event.Location, "removed", removed)
	return nil
}

func (s *CacheService) broadcast(ctx context.Context, event *domain.InvalidationEvent) {
	if s.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Origin = s.origin
	if err := s.events.PublishInvalidation(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish invalidation event", "error", err)
	}
}
