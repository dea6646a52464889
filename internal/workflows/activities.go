package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// CacheMaintainer is the subset of the cache service the janitor needs.
type CacheMaintainer interface {
	CleanExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// MaintenanceActivities holds the activity implementations for the cache
// maintenance workflow.
type MaintenanceActivities struct {
	Cache CacheMaintainer
}

// CleanExpired removes expired and unreadable entries and returns how many
// were dropped.
func (a *MaintenanceActivities) CleanExpired(ctx context.Context) (int, error) {
	n, err := a.Cache.CleanExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("clean expired: %w", err)
	}
	activity.GetLogger(ctx).Info("expired entries removed", "removed", n)
	return n, nil
}

// Stats returns the cache summary after cleaning.
func (a *MaintenanceActivities) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats, err := a.Cache.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}
