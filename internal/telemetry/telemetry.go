// Package telemetry reads health and device-usage signals. Acquiring them
// from the host platform is someone else's job: this package only consumes
// what the host exports, or estimates when nothing is exported.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/lazypower/vigor/internal/config"
	"github.com/lazypower/vigor/internal/energy"
)

// Provider supplies the current health and usage readings.
type Provider interface {
	Health(ctx context.Context) (energy.Health, error)
	Usage(ctx context.Context) (energy.Usage, error)
}

// Signal names the kind of reading that changed.
type Signal string

const (
	SignalHealth Signal = "health"
	SignalUsage  Signal = "usage"
)

// New creates the provider named in cfg, wrapped in Fallback.
func New(cfg config.TelemetryConfig) (*Fallback, error) {
	var p Provider
	switch cfg.Provider {
	case "file":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file telemetry requires a directory")
		}
		p = NewFile(cfg.Dir, time.Now)
	case "estimated", "":
		p = NewEstimated(time.Now)
	default:
		return nil, fmt.Errorf("unknown telemetry provider: %q", cfg.Provider)
	}
	return NewFallback(p), nil
}
