package transport

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// Pipe runs the child with plain pipes for stdin and a shared pipe for
// stdout and stderr. Nothing is echoed, which makes it the faster choice for
// scripted sessions, but it cannot hand off to an operator.
type Pipe struct {
	*stream
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *os.File

	waitDone chan struct{}
	waitErr  error
}

// StartPipe starts name with args connected through pipes.
func StartPipe(name string, args []string, opts ...Option) (*Pipe, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), o.env...)
	cmd.Dir = o.dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &Error{Op: "start", Err: err}
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, &Error{Op: "start", Err: err}
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, &Error{Op: "start", Err: err}
	}
	// The child holds its own copy of the write end.
	_ = w.Close()

	p := &Pipe{
		stream:   newStream(r, stdin, o.lineSep, o.log),
		cmd:      cmd,
		stdin:    stdin,
		out:      r,
		waitDone: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitDone)
	}()
	return p, nil
}

// Done is closed once the child has exited.
func (p *Pipe) Done() <-chan struct{} { return p.waitDone }

// ExitErr returns the child's exit status. Valid after Done is closed.
func (p *Pipe) ExitErr() error { return p.waitErr }

// Handoff always fails: a pipe cannot be shared with a terminal.
func (p *Pipe) Handoff(ctx context.Context, marker string) HandoffOutcome {
	return HandoffOutcome{
		Result: HandoffTransportError,
		Err:    &Error{Op: "handoff", Err: ErrHandoffUnsupported},
	}
}

// Close closes the child's stdin, kills it if still running and releases
// the output pipe.
func (p *Pipe) Close() error {
	p.shutdown()
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.waitDone
	return p.out.Close()
}
