package gdb

import (
	"context"
	"fmt"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/parser"
)

// Thread returns gdb's selected thread number.
func (d *Driver) Thread(ctx context.Context) (int, error) {
	reply, err := d.SendCommand(ctx, "thread")
	if err != nil {
		return 0, err
	}
	return parser.ParseCurrentThread(reply)
}

// SetThread selects thread n and checks gdb's confirmation.
func (d *Driver) SetThread(ctx context.Context, n int) error {
	reply, err := d.SendCommand(ctx, fmt.Sprintf("thread %d", n))
	if err != nil {
		return err
	}
	got, err := parser.ParseSwitchedThread(reply)
	if err != nil {
		return fmt.Errorf("select thread %d: %w", n, err)
	}
	if got != n {
		return d.desync(ctx, "thread", n, got)
	}
	return nil
}

// Frame returns the selected frame index.
func (d *Driver) Frame(ctx context.Context) (int, error) {
	reply, err := d.SendCommand(ctx, "frame")
	if err != nil {
		return 0, err
	}
	return parser.ParseFrameNum(reply)
}

// SetFrame selects frame n of the current thread and checks gdb's
// confirmation.
func (d *Driver) SetFrame(ctx context.Context, n int) error {
	reply, err := d.SendCommand(ctx, fmt.Sprintf("frame %d", n))
	if err != nil {
		return err
	}
	got, err := parser.ParseFrameNum(reply)
	if err != nil {
		return fmt.Errorf("select frame %d: %w", n, err)
	}
	if got != n {
		return d.desync(ctx, "frame", n, got)
	}
	return nil
}

// Location reads the selected thread and frame.
func (d *Driver) Location(ctx context.Context) (model.Location, error) {
	thread, err := d.Thread(ctx)
	if err != nil {
		return model.Location{}, err
	}
	frame, err := d.Frame(ctx)
	if err != nil {
		return model.Location{}, err
	}
	return model.Location{Thread: thread, Frame: frame}, nil
}

// SetLocation selects loc's thread, then its frame.
func (d *Driver) SetLocation(ctx context.Context, loc model.Location) error {
	if err := d.SetThread(ctx, loc.Thread); err != nil {
		return err
	}
	return d.SetFrame(ctx, loc.Frame)
}

func (d *Driver) desync(ctx context.Context, kind string, requested, confirmed int) error {
	d.metrics.RecordDesync(ctx, kind)
	err := &StateDesyncError{Kind: kind, Requested: requested, Confirmed: confirmed}
	d.log.Error("selection desync", "kind", kind, "requested", requested, "confirmed", confirmed)
	return err
}
