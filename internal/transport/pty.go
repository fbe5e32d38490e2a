package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/creack/pty"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// PTY runs the child on a pseudo-terminal. It is slower to drive than Pipe
// because the terminal echoes input, but it is the only transport that
// supports Handoff.
type PTY struct {
	*stream
	cmd  *exec.Cmd
	ptmx *os.File
	in   *os.File
	out  io.Writer

	waitDone chan struct{}
	waitErr  error
}

// StartPTY starts name with args on a new pseudo-terminal.
func StartPTY(name string, args []string, opts ...Option) (*PTY, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), o.env...)
	cmd.Dir = o.dir

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, &Error{Op: "start", Err: err}
	}

	p := &PTY{
		stream:   newStream(ptmx, ptmx, o.lineSep, o.log),
		cmd:      cmd,
		ptmx:     ptmx,
		in:       o.stdin,
		out:      o.stdout,
		waitDone: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitDone)
	}()
	return p, nil
}

// Done is closed once the child has exited.
func (p *PTY) Done() <-chan struct{} { return p.waitDone }

// ExitErr returns the child's exit status. Valid after Done is closed.
func (p *PTY) ExitErr() error { return p.waitErr }

// Handoff sends marker, consumes its echo so the prompt that follows reaches
// the operator, and then copies the operator's keystrokes to the child and
// the child's output to the operator until EscapeByte is typed, the
// operator's input ends, or the child's output ends.
func (p *PTY) Handoff(ctx context.Context, marker string) HandoffOutcome {
	if err := p.SendLine(marker); err != nil {
		return HandoffOutcome{Result: HandoffTransportError, Err: err}
	}
	if _, err := p.Expect(ctx, regexp.MustCompile(regexp.QuoteMeta(marker))); err != nil {
		return HandoffOutcome{Result: HandoffTransportError, Err: err}
	}
	return p.interact(ctx)
}

func (p *PTY) interact(ctx context.Context) HandoffOutcome {
	fail := func(err error) HandoffOutcome {
		return HandoffOutcome{Result: HandoffTransportError, Err: &Error{Op: "handoff", Err: err}}
	}

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fail(err)
		}
		defer func() { _ = term.Restore(fd, state) }()

		_ = pty.InheritSize(p.in, p.ptmx)
		winch := make(chan os.Signal, 1)
		defer close(winch)
		signal.Notify(winch, syscall.SIGWINCH)
		defer signal.Stop(winch)
		go func() {
			for range winch {
				_ = pty.InheritSize(p.in, p.ptmx)
			}
		}()
	}

	if pending := p.drain(); len(pending) > 0 {
		if _, err := p.out.Write(pending); err != nil {
			return fail(err)
		}
	}

	cr, err := cancelreader.NewReader(p.in)
	if err != nil {
		return fail(err)
	}
	defer cr.Close()

	input := make(chan error, 1)
	inputDone := false
	go func() { input <- p.forwardInput(cr) }()
	defer func() {
		if !inputDone {
			cr.Cancel()
			<-input
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case err := <-input:
			inputDone = true
			if err != nil {
				return HandoffOutcome{Result: HandoffTransportError, Err: err}
			}
			return HandoffOutcome{Result: HandoffExited}
		case chunk, ok := <-p.chunks:
			if !ok {
				return fail(p.closedErr())
			}
			if _, err := p.out.Write(chunk); err != nil {
				return fail(err)
			}
		}
	}
}

// forwardInput copies the operator's input to the child. It returns nil when
// the operator types EscapeByte or their input ends, and an error when the
// child cannot be written to or the read was canceled.
func (p *PTY) forwardInput(r io.Reader) error {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := buf[:n]
			escaped := false
			if i := bytes.IndexByte(data, EscapeByte); i >= 0 {
				data, escaped = data[:i], true
			}
			if _, werr := p.ptmx.Write(data); werr != nil {
				return &Error{Op: "handoff write", Err: werr}
			}
			if escaped {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &Error{Op: "handoff read", Err: err}
		}
	}
}

// Close kills the child if it is still running and releases the terminal.
func (p *PTY) Close() error {
	p.shutdown()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.waitDone
	return p.ptmx.Close()
}
