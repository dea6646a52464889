package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// DefaultInterval is used when MaintenanceInput.Interval is unset.
const DefaultInterval = 6 * time.Hour

// MaintenanceInput is the input for the cache maintenance workflow.
type MaintenanceInput struct {
	Interval time.Duration
	// Once stops after a single pass instead of continuing as new.
	Once bool
}

// MaintenanceResult describes one maintenance pass.
type MaintenanceResult struct {
	Removed int
	Stats   domain.CacheStats
}

// CacheMaintenanceWorkflow cleans expired location cache entries, records the
// remaining counts, sleeps for the interval and then continues as new so the
// history stays bounded.
func CacheMaintenanceWorkflow(ctx workflow.Context, input MaintenanceInput) (MaintenanceResult, error) {
	logger := workflow.GetLogger(ctx)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result MaintenanceResult
	if err := workflow.ExecuteActivity(ctx, "CleanExpired").Get(ctx, &result.Removed); err != nil {
		return result, err
	}
	if err := workflow.ExecuteActivity(ctx, "Stats").Get(ctx, &result.Stats); err != nil {
		return result, err
	}
	logger.Info("Cache maintenance pass finished",
		"removed", result.Removed,
		"total", result.Stats.Total,
		"valid", result.Stats.Valid,
		"backend", result.Stats.Backend,
	)

	if input.Once {
		return result, nil
	}

	interval := input.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if err := workflow.Sleep(ctx, interval); err != nil {
		return result, err
	}
	return result, workflow.NewContinueAsNewError(ctx, CacheMaintenanceWorkflow, input)
}
