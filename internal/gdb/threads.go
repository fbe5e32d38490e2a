package gdb

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/parser"
	"github.com/timvw/gdbdrive/internal/stack"
)

// Threads lists the inferior's threads. The returned sequence is lazy and
// single-pass: "info threads" is sent when ranging starts, and a second
// range yields ErrSequenceConsumed. Each call takes a fresh snapshot.
func (d *Driver) Threads(ctx context.Context) iter.Seq2[model.Thread, error] {
	var used atomic.Bool
	return func(yield func(model.Thread, error) bool) {
		if used.Swap(true) {
			yield(model.Thread{}, ErrSequenceConsumed)
			return
		}
		reply, err := d.SendCommand(ctx, "info threads")
		if err != nil {
			yield(model.Thread{}, err)
			return
		}
		for th := range parser.ThreadMatches(reply) {
			if !yield(th, nil) {
				return
			}
		}
	}
}

// ThreadSummary selects each thread in turn and yields it with its pruned,
// signed stack, in listing order. Iteration stops after the first error.
func (d *Driver) ThreadSummary(ctx context.Context) iter.Seq2[model.ThreadInfo, error] {
	threads := d.Threads(ctx)
	return func(yield func(model.ThreadInfo, error) bool) {
		for th, err := range threads {
			if err != nil {
				yield(model.ThreadInfo{}, err)
				return
			}
			info, err := d.summarize(ctx, th)
			if !yield(info, err) || err != nil {
				return
			}
		}
	}
}

func (d *Driver) summarize(ctx context.Context, th model.Thread) (model.ThreadInfo, error) {
	if err := d.SetThread(ctx, th.Num); err != nil {
		return model.ThreadInfo{}, err
	}
	s, err := d.Backtrace(ctx)
	if err != nil {
		return model.ThreadInfo{}, err
	}

	start := d.canon.PruneFront(&s)
	end := d.canon.PruneBack(&s)
	d.metrics.RecordPruned(ctx, stack.Front.String(), start)
	d.metrics.RecordPruned(ctx, stack.Back.String(), end)
	stack.PopulateSignatures(s)

	return model.ThreadInfo{
		Thread:     th,
		Stack:      s,
		StackStart: &start,
		StackEnd:   &end,
	}, nil
}

// collect materializes a sequence, stopping at the first error.
func collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
