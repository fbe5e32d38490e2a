// Package gdb drives a gdb session over a transport.
//
// A Driver sends one command at a time, waits for the prompt to come back
// and hands the reply to the parser package. On top of that it keeps gdb's
// selected thread and frame honest: every change is read back from gdb's
// own confirmation, and a mismatch is an error rather than a correction.
package gdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/gdbdrive/internal/model"
	gdbotel "github.com/timvw/gdbdrive/internal/otel"
	"github.com/timvw/gdbdrive/internal/stack"
	"github.com/timvw/gdbdrive/internal/transport"
)

const (
	// DefaultPrompt is gdb's stock prompt.
	DefaultPrompt = "(gdb) "
	// DefaultTimeout bounds each command round trip.
	DefaultTimeout = 30 * time.Second
	// DefaultHandoffMarker is the no-op command sent before a handoff. Its
	// echo is swallowed so the prompt that follows goes to the operator.
	DefaultHandoffMarker = "python True"
)

// setupCommands run once after the first prompt. Styling is turned off
// because gdb 9 and later wraps addresses, function and file names in ANSI
// escapes on a terminal, which the reply parsers do not expect.
var setupCommands = []string{"set width 0", "set height 0", "set style enabled off"}

// Driver is a gdb session. It exclusively owns its transport.
type Driver struct {
	mu sync.Mutex // one command in flight

	t       transport.Transport
	prompt  *regexp.Regexp
	timeout time.Duration
	canon   *stack.Canonicalizer
	marker  string
	echo    *regexp.Regexp
	out     io.Writer
	log     *slog.Logger
	tracer  trace.Tracer
	metrics *gdbotel.Metrics
}

type settings struct {
	prompt  string
	timeout time.Duration
	deny    []model.DenyEntry
	marker  string
	out     io.Writer
	log     *slog.Logger
	tel     *gdbotel.Telemetry
}

// Option configures a Driver.
type Option func(*settings)

// WithPrompt sets the literal prompt token. It is matched exactly.
func WithPrompt(prompt string) Option {
	return func(s *settings) { s.prompt = prompt }
}

// WithTimeout bounds each command round trip. Zero waits until the prompt
// appears or the transport ends.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithDenylist replaces the frames pruned from thread summaries.
func WithDenylist(deny []model.DenyEntry) Option {
	return func(s *settings) { s.deny = deny }
}

// WithHandoffMarker sets the no-op command sent before a handoff.
func WithHandoffMarker(marker string) Option {
	return func(s *settings) { s.marker = marker }
}

// WithOutput sets where location banners and handoff reports are printed.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithTelemetry records spans and metrics for every command.
func WithTelemetry(t *gdbotel.Telemetry) Option {
	return func(s *settings) { s.tel = t }
}

// New takes ownership of t, waits for gdb's first prompt and disables
// line wrapping, paging and output styling.
func New(ctx context.Context, t transport.Transport, opts ...Option) (*Driver, error) {
	s := settings{
		prompt:  DefaultPrompt,
		timeout: DefaultTimeout,
		deny:    model.DefaultDenylist(),
		marker:  DefaultHandoffMarker,
		out:     os.Stdout,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.prompt == "" {
		return nil, fmt.Errorf("gdb: empty prompt")
	}
	if s.marker == "" {
		return nil, fmt.Errorf("gdb: empty handoff marker")
	}

	d := &Driver{
		t:       t,
		prompt:  regexp.MustCompile(regexp.QuoteMeta(s.prompt)),
		timeout: s.timeout,
		canon:   stack.New(s.deny),
		marker:  s.marker,
		echo:    regexp.MustCompile(regexp.QuoteMeta(s.marker)),
		out:     s.out,
		log:     s.log,
		tracer:  otel.Tracer("gdbdrive/gdb"),
	}
	if s.tel != nil {
		d.tracer = s.tel.Tracer
		d.metrics = s.tel.Metrics
	}

	d.mu.Lock()
	banner, err := d.await(ctx)
	d.mu.Unlock()
	if err != nil {
		d.log.Error("gdb did not show a prompt", "error", err)
		return nil, fmt.Errorf("waiting for initial prompt: %w", err)
	}
	d.log.Debug("gdb ready", "banner_bytes", len(banner))

	for _, cmd := range setupCommands {
		if _, err := d.SendCommand(ctx, cmd); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Close terminates gdb.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.Close()
}
