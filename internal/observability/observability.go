// Package observability provides structured logging, Prometheus metrics and
// OpenTelemetry tracing for the agent. Metrics and tracing are optional and
// nil-safe: a nil collector or tracer setup skips recording.
package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/mfateev/sandbox-agent/internal/config"
)

// Observability holds the optional components. Any field may be nil.
type Observability struct {
	Metrics *MetricsCollector
	Tracer  *TracerSetup

	textfilePath string
}

// New builds the components enabled in cfg.
func New(cfg config.ObservabilityConfig) (*Observability, error) {
	obs := &Observability{}

	if cfg.Metrics.Enabled || cfg.Metrics.TextfilePath != "" {
		obs.Metrics = NewMetricsCollector()
		obs.textfilePath = cfg.Metrics.TextfilePath
	}

	if cfg.Tracing.Enabled {
		ts, err := NewTracerSetup(cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		obs.Tracer = ts
	}

	return obs, nil
}

// TracerOrNoop returns the configured tracer or a no-op one.
func (o *Observability) TracerOrNoop() trace.Tracer {
	if o == nil {
		return (*TracerSetup)(nil).Tracer()
	}
	return o.Tracer.Tracer()
}

// Shutdown flushes spans and writes the metrics textfile when configured.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var errs []error
	if err := o.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
	}
	if o.textfilePath != "" {
		if err := o.Metrics.WriteTextfile(o.textfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
