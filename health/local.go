package health

import (
	"context"
	"fmt"
)

// Sizer reports how full a bounded store is. *cache.Local implements it.
type Sizer interface {
	Len() int
	MaxEntries() int
}

// LocalCheckerConfig configures the local tier checker.
type LocalCheckerConfig struct {
	// WarningThreshold is the fill ratio that triggers degraded status.
	// Value should be between 0 and 1. Default: 0.8 (80%)
	WarningThreshold float64

	// CriticalThreshold is the fill ratio that triggers unhealthy status.
	// Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalThreshold float64
}

// LocalChecker checks how full the local tier is. A full tier is still
// correct but evicts entries before they expire.
type LocalChecker struct {
	config LocalCheckerConfig
	store  Sizer
}

// NewLocalChecker creates a local tier checker.
func NewLocalChecker(store Sizer, config LocalCheckerConfig) *LocalChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &LocalChecker{config: config, store: store}
}

// Name returns the name of this checker.
func (c *LocalChecker) Name() string {
	return "local"
}

// Check reports the fill ratio of the local tier.
func (c *LocalChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	size, capacity := c.store.Len(), c.store.MaxEntries()
	if capacity <= 0 {
		return Healthy("local tier unbounded")
	}

	ratio := float64(size) / float64(capacity)
	details := map[string]any{
		"entries":       size,
		"max_entries":   capacity,
		"usage_percent": ratio * 100,
	}

	switch {
	case ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("local tier usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("local tier usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("local tier usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}
