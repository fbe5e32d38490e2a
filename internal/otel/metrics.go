package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "gdbdrive"

// Metrics holds the metric instruments for a debugger session.
// All recorders are nil-safe so a driver without telemetry can call them
// unconditionally.
type Metrics struct {
	Commands        metric.Int64Counter
	CommandDuration metric.Float64Histogram
	Desyncs         metric.Int64Counter
	Handoffs        metric.Int64Counter
	FramesPruned    metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Commands, err = meter.Int64Counter("gdb.commands",
		metric.WithDescription("Commands sent to gdb, partitioned by verb and outcome"))
	if err != nil {
		return nil, err
	}

	m.CommandDuration, err = meter.Float64Histogram("gdb.command.duration",
		metric.WithDescription("Time from sending a command until the prompt reappeared"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.Desyncs, err = meter.Int64Counter("gdb.desyncs",
		metric.WithDescription("Selection changes whose confirmation did not match the request"))
	if err != nil {
		return nil, err
	}

	m.Handoffs, err = meter.Int64Counter("gdb.handoffs",
		metric.WithDescription("Interactive handoffs to an operator, partitioned by outcome"))
	if err != nil {
		return nil, err
	}

	m.FramesPruned, err = meter.Int64Counter("gdb.frames.pruned",
		metric.WithDescription("Runtime frames removed from thread stacks, partitioned by stack end"),
		metric.WithUnit("{frame}"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCommand records one command round trip.
func (m *Metrics) RecordCommand(ctx context.Context, verb, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("gdb.verb", verb),
		attribute.String("gdb.outcome", outcome),
	)
	m.Commands.Add(ctx, 1, attrs)
	m.CommandDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordDesync records a rejected selection change.
func (m *Metrics) RecordDesync(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.Desyncs.Add(ctx, 1, metric.WithAttributes(attribute.String("gdb.selection", kind)))
}

// RecordHandoff records a finished handoff.
func (m *Metrics) RecordHandoff(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Handoffs.Add(ctx, 1, metric.WithAttributes(attribute.String("handoff.outcome", outcome)))
}

// RecordPruned records frames removed from one end of a stack.
func (m *Metrics) RecordPruned(ctx context.Context, end string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.FramesPruned.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stack.end", end)))
}
