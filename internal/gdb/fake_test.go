package gdb

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"testing"

	"github.com/timvw/gdbdrive/internal/transport"
)

// fakeGDB is a scripted transport. Every line sent is answered with the
// reply registered for it followed by a prompt.
type fakeGDB struct {
	replies map[string]string
	// handle, when set, answers before replies is consulted.
	handle func(cmd string) (string, bool)

	prompt    string
	buf       []byte
	sent      []string
	markers   []string
	outcome   transport.HandoffOutcome
	onHandoff func()
	closed    bool
}

func newFake(replies map[string]string) *fakeGDB {
	if replies == nil {
		replies = map[string]string{}
	}
	return &fakeGDB{
		replies: replies,
		prompt:  DefaultPrompt,
		buf:     []byte("GNU gdb (GDB) 14.2\r\n" + DefaultPrompt),
	}
}

func (f *fakeGDB) SendLine(line string) error {
	if f.closed {
		return &transport.Error{Op: "write", Err: transport.ErrClosed}
	}
	f.sent = append(f.sent, line)
	// The terminal echoes a handoff marker sent after the handoff.
	if slices.Contains(f.markers, line) {
		f.buf = append(f.buf, line+"\r\n"...)
	}
	reply, ok := "", false
	if f.handle != nil {
		reply, ok = f.handle(line)
	}
	if !ok {
		reply = f.replies[line]
	}
	f.buf = append(f.buf, reply...)
	f.buf = append(f.buf, f.prompt...)
	return nil
}

func (f *fakeGDB) Expect(_ context.Context, patterns ...*regexp.Regexp) (transport.Match, error) {
	best, bestIdx := []int(nil), -1
	for i, p := range patterns {
		if loc := p.FindIndex(f.buf); loc != nil && (best == nil || loc[0] < best[0]) {
			best, bestIdx = loc, i
		}
	}
	if best == nil {
		return transport.Match{}, &transport.Error{Op: "expect", Err: transport.ErrClosed}
	}
	m := transport.Match{
		Index:   bestIdx,
		Before:  bytes.Clone(f.buf[:best[0]]),
		Matched: bytes.Clone(f.buf[best[0]:best[1]]),
	}
	f.buf = f.buf[best[1]:]
	return m, nil
}

func (f *fakeGDB) Handoff(_ context.Context, marker string) transport.HandoffOutcome {
	f.markers = append(f.markers, marker)
	if f.onHandoff != nil {
		f.onHandoff()
	}
	return f.outcome
}

func (f *fakeGDB) Close() error {
	f.closed = true
	return nil
}

// sentAfterSetup returns the commands sent after setupCommands.
func (f *fakeGDB) sentAfterSetup() []string {
	return f.sent[len(setupCommands):]
}

func newTestDriver(t *testing.T, f *fakeGDB, opts ...Option) (*Driver, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out)}, opts...)
	d, err := New(context.Background(), f, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return d, &out
}

// selectingFake tracks the selected thread and frame the way gdb does.
// confirmThread, when non-zero, overrides the thread gdb claims to switch to.
func selectingFake(threads map[int]int, confirmThread int) *fakeGDB {
	f := newFake(nil)
	cur, frame := 1, 0
	f.handle = func(cmd string) (string, bool) {
		var n int
		switch {
		case cmd == "thread":
			return "[Current thread is " + itoa(cur) + " (LWP " + itoa(threads[cur]) + ")]\n", true
		case cmd == "frame":
			return "#" + itoa(frame) + "  0x0000555555555131 in work () at work.c:3\n3\t  spin();\n", true
		case scan(cmd, "thread %d", &n):
			if confirmThread != 0 {
				n = confirmThread
			}
			if _, ok := threads[n]; !ok {
				return "Invalid thread ID: " + itoa(n) + "\n", true
			}
			cur, frame = n, 0
			return "[Switching to thread " + itoa(n) + " (LWP " + itoa(threads[n]) + ")]\n#0  0x00007f3a1c2e5f2d in poll () from /lib/libc.so.6\n", true
		case scan(cmd, "frame %d", &n):
			frame = n
			return "#" + itoa(n) + "  0x0000555555555131 in work () at work.c:3\n3\t  spin();\n", true
		}
		return "", false
	}
	return f
}

func itoa(n int) string { return strconv.Itoa(n) }

func scan(cmd, format string, n *int) bool {
	got, err := fmt.Sscanf(cmd, format, n)
	return err == nil && got == 1
}
