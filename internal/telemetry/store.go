package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/issuesnap/internal/state"
	"github.com/steveyegge/issuesnap/internal/types"
)

const storeScopeName = "github.com/steveyegge/issuesnap/state"

// InstrumentedStore wraps state.Store with OTel tracing and metrics.
// Use WrapStore to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStore struct {
	inner      state.Store
	tracer     trace.Tracer
	ops        metric.Int64Counter
	dur        metric.Float64Histogram
	errs       metric.Int64Counter
	issueGauge metric.Int64Gauge
}

// WrapStore returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStore(s state.Store) state.Store {
	if !Enabled() {
		return s
	}
	m := Meter(storeScopeName)
	ops, _ := m.Int64Counter("issuesnap.state.operations",
		metric.WithDescription("Total state store operations executed"),
	)
	dur, _ := m.Float64Histogram("issuesnap.state.operation.duration",
		metric.WithDescription("State store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("issuesnap.state.errors",
		metric.WithDescription("Total state store operation errors"),
	)
	issueGauge, _ := m.Int64Gauge("issuesnap.state.remembered_issues",
		metric.WithDescription("Number of issues remembered in the run state"),
	)
	return &InstrumentedStore{
		inner:      s,
		tracer:     Tracer(storeScopeName),
		ops:        ops,
		dur:        dur,
		errs:       errs,
		issueGauge: issueGauge,
	}
}

func (s *InstrumentedStore) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "state."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
	return ctx, span, time.Now()
}

func (s *InstrumentedStore) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	opt := metric.WithAttributes(attrs...)
	s.ops.Add(ctx, 1, opt)
	s.dur.Record(ctx, ms, opt)
	if err != nil {
		s.errs.Add(ctx, 1, opt)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Load delegates to the wrapped store and records the remembered issue count.
func (s *InstrumentedStore) Load(ctx context.Context) (*types.RunState, error) {
	attr := attribute.String("db.operation", "Load")
	ctx, span, t := s.op(ctx, "Load")
	st, err := s.inner.Load(ctx)
	if err == nil {
		span.SetAttributes(attribute.Int("issuesnap.state.issues", len(st.Issues)))
		s.issueGauge.Record(ctx, int64(len(st.Issues)))
	}
	s.done(ctx, span, t, err, attr)
	return st, err
}

// Save delegates to the wrapped store.
func (s *InstrumentedStore) Save(ctx context.Context, st *types.RunState) error {
	attr := attribute.String("db.operation", "Save")
	ctx, span, t := s.op(ctx, "Save", attribute.Int("issuesnap.state.issues", len(st.Issues)))
	err := s.inner.Save(ctx, st)
	if err == nil {
		s.issueGauge.Record(ctx, int64(len(st.Issues)))
	}
	s.done(ctx, span, t, err, attr)
	return err
}

// Path returns the wrapped store's location.
func (s *InstrumentedStore) Path() string { return s.inner.Path() }

// Close closes the wrapped store.
func (s *InstrumentedStore) Close() error { return s.inner.Close() }
