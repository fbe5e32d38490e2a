package gdb

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SendCommand writes cmd and returns everything gdb printed before the next
// prompt, with line endings normalized to "\n".
func (d *Driver) SendCommand(ctx context.Context, cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	verb := verbOf(cmd)
	ctx, span := d.tracer.Start(ctx, "gdb.command",
		trace.WithAttributes(
			attribute.String("gdb.command", cmd),
			attribute.String("gdb.verb", verb),
		),
	)
	defer span.End()

	start := time.Now()
	d.log.Debug("gdb command", "cmd", cmd)

	reply, err := d.roundTrip(ctx, cmd)
	if err != nil {
		d.metrics.RecordCommand(ctx, verb, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.log.Error("gdb command failed", "cmd", cmd, "error", err)
		return "", err
	}

	d.metrics.RecordCommand(ctx, verb, "ok", time.Since(start))
	span.SetAttributes(attribute.Int("gdb.reply.bytes", len(reply)))
	return reply, nil
}

func (d *Driver) roundTrip(ctx context.Context, cmd string) (string, error) {
	if err := d.t.SendLine(cmd); err != nil {
		return "", err
	}
	return d.await(ctx)
}

// await reads until the prompt. The caller holds d.mu.
func (d *Driver) await(ctx context.Context) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	m, err := d.t.Expect(ctx, d.prompt)
	if err != nil {
		return "", err
	}
	return normalize(m.Before), nil
}

func normalize(b []byte) string {
	return newlines.Replace(strings.ToValidUTF8(string(b), "\uFFFD"))
}

// verbOf names a command for metrics without its arguments: "bt",
// "thread", "info threads", "set sysroot".
func verbOf(cmd string) string {
	fields := strings.Fields(cmd)
	switch {
	case len(fields) == 0:
		return ""
	case len(fields) > 1 && (fields[0] == "set" || fields[0] == "show" || fields[0] == "info"):
		return fields[0] + " " + fields[1]
	default:
		return fields[0]
	}
}
