package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"syscall"
)

const readChunkSize = 4096

// stream implements line writes and pattern reads over a child's streams.
// A single goroutine reads the child's output into chunks; Expect and the
// handoff loop are its only consumers.
type stream struct {
	w       io.Writer
	linesep string
	log     io.Writer

	chunks  chan []byte
	readErr error // valid once chunks is closed
	buf     []byte

	stop     chan struct{}
	stopOnce sync.Once
}

func newStream(r io.Reader, w io.Writer, linesep string, log io.Writer) *stream {
	s := &stream{
		w:       w,
		linesep: linesep,
		log:     log,
		chunks:  make(chan []byte, 64),
		stop:    make(chan struct{}),
	}
	go s.readLoop(r)
	return s
}

func (s *stream) readLoop(r io.Reader) {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if s.log != nil {
				_, _ = s.log.Write(chunk)
			}
			select {
			case s.chunks <- chunk:
			case <-s.stop:
				s.readErr = ErrClosed
				close(s.chunks)
				return
			}
		}
		if err != nil {
			s.readErr = err
			close(s.chunks)
			return
		}
	}
}

// SendLine writes line followed by the line terminator.
func (s *stream) SendLine(line string) error {
	if _, err := io.WriteString(s.w, line+s.linesep); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}

// Expect blocks until the buffered output matches one of patterns, ctx is
// done or the output ends.
func (s *stream) Expect(ctx context.Context, patterns ...*regexp.Regexp) (Match, error) {
	if len(patterns) == 0 {
		return Match{}, &Error{Op: "expect", Err: errors.New("no patterns")}
	}
	for {
		if m, ok := s.match(patterns); ok {
			return m, nil
		}
		select {
		case <-ctx.Done():
			return Match{}, &Error{Op: "expect", Err: ctx.Err()}
		case chunk, ok := <-s.chunks:
			if !ok {
				return Match{}, &Error{Op: "expect", Err: s.closedErr()}
			}
			s.buf = append(s.buf, chunk...)
		}
	}
}

// match looks for the earliest match in the buffer and consumes it.
func (s *stream) match(patterns []*regexp.Regexp) (Match, bool) {
	best, bestLoc := -1, []int(nil)
	for i, p := range patterns {
		loc := p.FindIndex(s.buf)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < bestLoc[0] {
			best, bestLoc = i, loc
		}
	}
	if best < 0 {
		return Match{}, false
	}
	m := Match{
		Index:   best,
		Before:  bytes.Clone(s.buf[:bestLoc[0]]),
		Matched: bytes.Clone(s.buf[bestLoc[0]:bestLoc[1]]),
	}
	s.buf = append(s.buf[:0], s.buf[bestLoc[1]:]...)
	return m, true
}

// drain returns and clears whatever is buffered but not yet consumed.
func (s *stream) drain() []byte {
	out := s.buf
	s.buf = nil
	return out
}

// closedErr maps the reader's terminal error to ErrClosed. A PTY master
// reports EIO once the child side is gone.
func (s *stream) closedErr() error {
	if s.readErr == nil || errors.Is(s.readErr, io.EOF) || errors.Is(s.readErr, syscall.EIO) {
		return ErrClosed
	}
	return fmt.Errorf("%w: %v", ErrClosed, s.readErr)
}

// shutdown releases a reader blocked on a full chunk channel.
func (s *stream) shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
}
