package ports

import (
	"context"
	"io"
	"time"

	"go.trai.ch/slim/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan records the planned stage execution order.
	EmitPlan(ctx context.Context, stageNames []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithAttribute sets an attribute on the span at creation.
func WithAttribute(key string, value any) SpanOption {
	return func(c *SpanConfig) {
		if c.Attributes == nil {
			c.Attributes = make(map[string]any)
		}
		c.Attributes[key] = value
	}
}

// Metrics records build counters and durations.
type Metrics interface {
	// CacheRequest records a dependency cache lookup.
	CacheRequest(subset domain.Subset, hit bool)
	// StageCompleted records the duration of a successful stage.
	StageCompleted(stage string, role domain.Role, d time.Duration)
	// StageFailed records a failed stage.
	StageFailed(stage string, role domain.Role)
	// WriteFile writes all metrics in text exposition format to path.
	WriteFile(path string) error
}
