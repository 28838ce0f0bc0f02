package middleware

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-configspace/internal/domain"
	"github.com/ahrav/go-configspace/internal/domain/space"
	"github.com/ahrav/go-configspace/internal/ports"
)

// TracerName is the instrumentation scope used for tuner spans.
const TracerName = "github.com/ahrav/go-configspace/tuner"

var _ ports.Tuner = (*TracingTuner)(nil)

// TracingTuner decorates a Tuner with OpenTelemetry spans and metrics. Ask,
// Tell, Suggest and Close each open a span carrying the tuner identity and
// the sizes involved; failures set the span status and are recorded as
// events. Read-only accessors are forwarded untraced.
type TracingTuner struct {
	next    ports.Tuner
	tracer  trace.Tracer
	metrics ports.MetricsCollector
}

// TracingOption configures a TracingTuner.
type TracingOption func(*TracingTuner)

// WithTracerProvider selects the provider spans are created from. The
// global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(t *TracingTuner) { t.tracer = tp.Tracer(TracerName) }
}

// WithMetrics records latencies, counters and gauges to m.
func WithMetrics(m ports.MetricsCollector) TracingOption {
	return func(t *TracingTuner) { t.metrics = m }
}

// NewTracingTuner wraps next. It panics when next is nil because a
// decorator without a target is a programming error.
func NewTracingTuner(next ports.Tuner, opts ...TracingOption) *TracingTuner {
	if next == nil {
		panic("tracing tuner: next tuner is required")
	}
	t := &TracingTuner{next: next, tracer: otel.Tracer(TracerName)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TracingTuner) ID() string                                    { return t.next.ID() }
func (t *TracingTuner) Name() string                                  { return t.next.Name() }
func (t *TracingTuner) Type() ports.TunerType                         { return t.next.Type() }
func (t *TracingTuner) UserData() any                                 { return t.next.UserData() }
func (t *TracingTuner) ConfigurationSpace() *space.ConfigurationSpace { return t.next.ConfigurationSpace() }
func (t *TracingTuner) ObjectiveSpace() *space.ObjectiveSpace         { return t.next.ObjectiveSpace() }
func (t *TracingTuner) AskCount(n int) (int, error)                   { return t.next.AskCount(n) }
func (t *TracingTuner) Optimums() ([]*space.Evaluation, error)        { return t.next.Optimums() }
func (t *TracingTuner) NumOptimums() (int, error)                     { return t.next.NumOptimums() }
func (t *TracingTuner) History() ([]*space.Evaluation, error)         { return t.next.History() }
func (t *TracingTuner) NumHistory() (int, error)                      { return t.next.NumHistory() }

// Ask implements ports.Tuner.
func (t *TracingTuner) Ask(ctx context.Context, n int) ([]*space.Configuration, error) {
	ctx, span := t.start(ctx, "Tuner.Ask", attribute.Int("tuner.ask.requested", n))
	defer span.End()

	start := time.Now()
	configs, err := t.next.Ask(ctx, n)
	t.finish(span, "ask", start, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("tuner.ask.returned", len(configs)))
	if t.metrics != nil {
		t.metrics.RecordCounter(MetricConfigurationsAsked, float64(len(configs)), t.labels())
	}
	return configs, nil
}

// Tell implements ports.Tuner. On success the span gains an event with the
// new optimum and history sizes, and successful evaluations feed the
// objective value histogram.
func (t *TracingTuner) Tell(ctx context.Context, evals []*space.Evaluation) error {
	ctx, span := t.start(ctx, "Tuner.Tell", attribute.Int("tuner.tell.count", len(evals)))
	defer span.End()

	start := time.Now()
	err := t.next.Tell(ctx, evals)
	t.finish(span, "tell", start, err)
	if err != nil {
		return err
	}

	t.recordEvaluations(evals)

	// The tell went through; a tuner that cannot report its sizes only
	// loses the event and the gauges.
	optimums, oErr := t.next.NumOptimums()
	history, hErr := t.next.NumHistory()
	if err := errors.Join(oErr, hErr); err != nil {
		span.RecordError(err)
		return nil
	}
	span.AddEvent("tuner.optimums_updated", trace.WithAttributes(
		attribute.Int("tuner.optimums", optimums),
		attribute.Int("tuner.history", history),
	))
	t.recordSizes(optimums, history)
	return nil
}

// Suggest implements ports.Tuner.
func (t *TracingTuner) Suggest(ctx context.Context) (*space.Configuration, error) {
	ctx, span := t.start(ctx, "Tuner.Suggest")
	defer span.End()

	start := time.Now()
	c, err := t.next.Suggest(ctx)
	t.finish(span, "suggest", start, err)
	return c, err
}

// Close implements ports.Tuner.
func (t *TracingTuner) Close() error {
	_, span := t.start(context.Background(), "Tuner.Close")
	defer span.End()

	start := time.Now()
	err := t.next.Close()
	t.finish(span, "close", start, err)
	return err
}

func (t *TracingTuner) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		attribute.String("tuner.id", t.next.ID()),
		attribute.String("tuner.name", t.next.Name()),
		attribute.String("tuner.type", t.next.Type().String()),
	)
	span.SetAttributes(attrs...)
	return ctx, span
}

// finish sets the span status and records the operation latency and outcome.
func (t *TracingTuner) finish(span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String("tuner.result_code", domain.CodeOf(err).String()))
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if t.metrics == nil {
		return
	}
	labels := t.labels()
	t.metrics.RecordLatency(operation, elapsed, labels)
	labels = t.labels()
	labels["status"] = status
	t.metrics.RecordCounter(operation, 1, labels)
}

func (t *TracingTuner) recordEvaluations(evals []*space.Evaluation) {
	if t.metrics == nil {
		return
	}

	var told, failed int
	for _, e := range evals {
		if e.Error() != domain.Success {
			failed++
			continue
		}
		told++
		values, err := e.ObjectiveValues()
		if err != nil {
			continue
		}
		for i, v := range values {
			f, ok := v.AsFloat()
			if !ok {
				continue
			}
			labels := t.labels()
			labels["objective"] = strconv.Itoa(i)
			t.metrics.RecordHistogram(MetricObjectiveValue, f, labels)
		}
	}

	if told > 0 {
		t.metrics.RecordCounter(MetricEvaluationsTold, float64(told), t.labels())
	}
	if failed > 0 {
		labels := t.labels()
		labels["status"] = "failed"
		t.metrics.RecordCounter(MetricEvaluationsTold, float64(failed), labels)
	}
}

func (t *TracingTuner) recordSizes(optimums, history int) {
	if t.metrics == nil {
		return
	}
	t.metrics.RecordGauge(MetricOptimums, float64(optimums), t.labels())
	t.metrics.RecordGauge(MetricHistory, float64(history), t.labels())
}

func (t *TracingTuner) labels() map[string]string {
	return map[string]string{
		"tuner":      t.next.Name(),
		"tuner_type": t.next.Type().String(),
	}
}
