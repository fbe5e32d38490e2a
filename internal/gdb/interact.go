package gdb

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/transport"
)

// Interact selects loc, or keeps the current selection when loc is nil,
// and hands the terminal to the operator until they press Ctrl-] or gdb
// exits. A failed handoff is printed and returned as the outcome; only
// errors selecting the location are returned as errors.
func (d *Driver) Interact(ctx context.Context, loc *model.Location) (transport.HandoffOutcome, error) {
	fmt.Fprintln(d.out, "--== Over to you... ==--")
	return d.interact(ctx, loc)
}

// InteractEachThread hands off once per thread, last listed thread first.
// With nil threads it lists them first.
func (d *Driver) InteractEachThread(ctx context.Context, threads []model.Thread) error {
	if threads == nil {
		var err error
		if threads, err = collect(d.Threads(ctx)); err != nil {
			return err
		}
	}
	for _, th := range slices.Backward(threads) {
		if err := d.SetThread(ctx, th.Num); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "--== Over to you... (tid=%d) ==--\n", th.TID)
		if _, err := d.interact(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) interact(ctx context.Context, loc *model.Location) (transport.HandoffOutcome, error) {
	var cur model.Location
	if loc != nil {
		if err := d.SetLocation(ctx, *loc); err != nil {
			return transport.HandoffOutcome{}, err
		}
		cur = *loc
	} else {
		var err error
		if cur, err = d.Location(ctx); err != nil {
			return transport.HandoffOutcome{}, err
		}
	}
	fmt.Fprintf(d.out, "--> %s...\n", cur)

	ctx, span := d.tracer.Start(ctx, "gdb.handoff",
		trace.WithAttributes(
			attribute.Int("gdb.thread", cur.Thread),
			attribute.Int("gdb.frame", cur.Frame),
		),
	)
	defer span.End()

	d.mu.Lock()
	outcome := d.t.Handoff(ctx, d.marker)
	if outcome.Result == transport.HandoffExited {
		if err := d.resync(ctx); err != nil {
			outcome = transport.HandoffOutcome{Result: transport.HandoffTransportError, Err: err}
		}
	}
	d.mu.Unlock()

	d.metrics.RecordHandoff(ctx, outcome.Result.String())
	span.SetAttributes(attribute.String("handoff.outcome", outcome.Result.String()))
	if outcome.Result == transport.HandoffTransportError {
		fmt.Fprintf(d.out, "Oh no... %v\n", outcome.Err)
	}
	return outcome, nil
}

// resync realigns the reply stream after the operator leaves. A prompt
// printed for a line they entered just before Ctrl-] may still be on its
// way; sending the marker again and reading past its echo and the prompt
// that follows drops it. The caller holds d.mu.
func (d *Driver) resync(ctx context.Context) error {
	if err := d.t.SendLine(d.marker); err != nil {
		return err
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if _, err := d.t.Expect(ctx, d.echo); err != nil {
		return err
	}
	_, err := d.await(ctx)
	return err
}
