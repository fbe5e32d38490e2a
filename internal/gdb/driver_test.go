package gdb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/parser"
	"github.com/timvw/gdbdrive/internal/transport"
)

func TestNew_DisablesWrappingPagingAndStyling(t *testing.T) {
	f := newFake(nil)
	newTestDriver(t, f)

	want := []string{"set width 0", "set height 0", "set style enabled off"}
	if len(f.sent) != len(want) {
		t.Fatalf("sent %v, want %v", f.sent, want)
	}
	for i := range want {
		if f.sent[i] != want[i] {
			t.Errorf("command %d: got %q, want %q", i, f.sent[i], want[i])
		}
	}
}

func TestNew_NoPrompt(t *testing.T) {
	f := newFake(nil)
	f.buf = []byte("gdb: command not found\n")

	_, err := New(context.Background(), f)
	if err == nil {
		t.Fatal("expected error when gdb never prompts")
	}
	if !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSendCommand_Framing(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "empty", reply: "", want: ""},
		{name: "one line", reply: "No stack.\r\n", want: "No stack.\n"},
		{name: "many lines", reply: "a\r\nb\rc\n", want: "a\nb\nc\n"},
		{name: "prompt lookalikes", reply: "(gdb)\n(gdb)x\nsay (gdb)\n", want: "(gdb)\n(gdb)x\nsay (gdb)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFake(map[string]string{"echo": tt.reply})
			d, _ := newTestDriver(t, f)

			got, err := d.SendCommand(context.Background(), "echo")
			if err != nil {
				t.Fatalf("SendCommand() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if len(f.buf) != 0 {
				t.Errorf("unconsumed output: %q", f.buf)
			}
		})
	}
}

func TestSendCommand_CustomPrompt(t *testing.T) {
	f := newFake(nil)
	f.prompt = "(arm-gdb) "
	f.buf = []byte(f.prompt)
	// The stock prompt inside a reply is just text under a custom prompt.
	f.replies["show prompt"] = "(gdb) is not my prompt\n"
	d, _ := newTestDriver(t, f, WithPrompt("(arm-gdb) "))

	got, err := d.SendCommand(context.Background(), "show prompt")
	if err != nil {
		t.Fatalf("SendCommand() error: %v", err)
	}
	if got != "(gdb) is not my prompt\n" {
		t.Errorf("got %q", got)
	}
}

func TestSendCommand_InvalidUTF8(t *testing.T) {
	f := newFake(map[string]string{"x/s $rsp": "0x7ffe: \"\xff\xfe\"\n"})
	d, _ := newTestDriver(t, f)

	got, err := d.SendCommand(context.Background(), "x/s $rsp")
	if err != nil {
		t.Fatal(err)
	}
	if got != "0x7ffe: \"\uFFFD\"\n" {
		t.Errorf("got %q", got)
	}
}

func TestSendCommand_TransportClosed(t *testing.T) {
	f := newFake(nil)
	d, _ := newTestDriver(t, f)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := d.SendCommand(context.Background(), "bt")
	var te *transport.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *transport.Error, got %T (%v)", err, err)
	}
}

func TestVerbOf(t *testing.T) {
	tests := map[string]string{
		"bt":                     "bt",
		"thread 3":               "thread",
		"info threads":           "info threads",
		"set sysroot /opt/root":  "set sysroot",
		"show sysroot":           "show sysroot",
		"set sub /build /home/x": "set sub",
		"":                       "",
	}
	for cmd, want := range tests {
		if got := verbOf(cmd); got != want {
			t.Errorf("verbOf(%q) = %q, want %q", cmd, got, want)
		}
	}
}

func TestSetThread_Confirmed(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 5: 105}, 0)
	d, _ := newTestDriver(t, f)
	ctx := context.Background()

	if err := d.SetThread(ctx, 5); err != nil {
		t.Fatalf("SetThread(5) error: %v", err)
	}
	got, err := d.Thread(ctx)
	if err != nil {
		t.Fatalf("Thread() error: %v", err)
	}
	if got != 5 {
		t.Errorf("Thread() = %d, want 5", got)
	}
}

func TestSetThread_Desync(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 5: 105, 6: 106}, 6)
	d, _ := newTestDriver(t, f)

	err := d.SetThread(context.Background(), 5)
	var de *StateDesyncError
	if !errors.As(err, &de) {
		t.Fatalf("expected *StateDesyncError, got %T (%v)", err, err)
	}
	if de.Kind != "thread" || de.Requested != 5 || de.Confirmed != 6 {
		t.Errorf("got %+v", de)
	}
}

func TestSetThread_NoConfirmation(t *testing.T) {
	f := selectingFake(map[int]int{1: 100}, 0)
	d, _ := newTestDriver(t, f)

	err := d.SetThread(context.Background(), 9)
	if !errors.Is(err, parser.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestSetFrame_Desync(t *testing.T) {
	f := newFake(map[string]string{
		// gdb clamps to the outermost frame when asked for one past the end.
		"frame 9": "#4  0x00007f3a1bd3e61f in clone ()\n",
	})
	d, _ := newTestDriver(t, f)

	err := d.SetFrame(context.Background(), 9)
	var de *StateDesyncError
	if !errors.As(err, &de) {
		t.Fatalf("expected *StateDesyncError, got %T (%v)", err, err)
	}
	if de.Kind != "frame" || de.Confirmed != 4 {
		t.Errorf("got %+v", de)
	}
}

func TestSetLocation_ThreadThenFrame(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 2: 101}, 0)
	d, _ := newTestDriver(t, f)
	ctx := context.Background()

	if err := d.SetLocation(ctx, model.Location{Thread: 2, Frame: 3}); err != nil {
		t.Fatalf("SetLocation() error: %v", err)
	}
	sent := f.sentAfterSetup()
	if len(sent) != 2 || sent[0] != "thread 2" || sent[1] != "frame 3" {
		t.Errorf("sent %v, want [thread 2, frame 3]", sent)
	}

	loc, err := d.Location(ctx)
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc != (model.Location{Thread: 2, Frame: 3}) {
		t.Errorf("Location() = %v", loc)
	}
}

const infoThreads = `  Id   Target Id         Frame
* 1    LWP 100           0x00007f3a1c2e5f2d in poll () from /lib/libc.so.6
  2    LWP 101           0x0000555555555131 in main () at main.c:20
`

func TestSetLocationMain(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 2: 101}, 0)
	f.replies["info inferior"] = "  Num  Description       Connection           Executable        \n* 1    process 101       1 (core)             /tmp/app \n"
	f.replies["info threads"] = infoThreads
	f.replies["bt"] = "#0  0x00007f3a1c2e5f2d in poll () from /lib/libc.so.6\n#1  0x0000555555555150 in wait_all (n=2) at main.c:12\n#2  0x0000555555555131 in main () at main.c:20\n"
	d, _ := newTestDriver(t, f)

	loc, err := d.SetLocationMain(context.Background())
	if err != nil {
		t.Fatalf("SetLocationMain() error: %v", err)
	}
	if loc != (model.Location{Thread: 2, Frame: 2}) {
		t.Errorf("got %v, want Thread 2, Frame 2", loc)
	}
	want := []string{"info inferior", "info threads", "thread 2", "bt", "frame 2"}
	if got := f.sentAfterSetup(); strings.Join(got, ";") != strings.Join(want, ";") {
		t.Errorf("sent %v, want %v", got, want)
	}
}

func TestSetLocationMain_NotMain(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 2: 101}, 0)
	f.replies["info inferior"] = "* 1    process 100   /tmp/app\n"
	f.replies["info threads"] = infoThreads
	f.replies["bt"] = "#0  0x00007f3a1c2e5f2d in poll () from /lib/libc.so.6\n#1  0x00007f3a1bd3e61f in _start ()\n"
	d, _ := newTestDriver(t, f)

	_, err := d.SetLocationMain(context.Background())
	var ae *AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AssertionError, got %T (%v)", err, err)
	}
	if !strings.Contains(ae.Msg, "_start") {
		t.Errorf("message should name the function: %q", ae.Msg)
	}
}

func TestSetLocationMain_NoMatchingThread(t *testing.T) {
	f := selectingFake(map[int]int{1: 100, 2: 101}, 0)
	f.replies["info inferior"] = "* 1    process 4242   /tmp/app\n"
	f.replies["info threads"] = infoThreads
	d, _ := newTestDriver(t, f)

	_, err := d.SetLocationMain(context.Background())
	var ae *AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AssertionError, got %T (%v)", err, err)
	}
}

func TestSysrootAndPaths(t *testing.T) {
	f := newFake(map[string]string{
		"show sysroot": "The current system root is \"./sysroot/\".\n",
	})
	d, _ := newTestDriver(t, f)
	ctx := context.Background()

	if err := d.SetSysroot(ctx, "./sysroot/"); err != nil {
		t.Fatal(err)
	}
	got, err := d.Sysroot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != "./sysroot/" {
		t.Errorf("Sysroot() = %q", got)
	}
	if err := d.SetSolibSearchPath(ctx, []string{"./sysroot/lib/", "/opt/bsp/lib/"}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.LoadBinary(ctx, "./bin"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.LoadCore(ctx, "./core"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"set sysroot ./sysroot/",
		"show sysroot",
		"set solib-search-path ./sysroot/lib/:/opt/bsp/lib/",
		"file ./bin",
		"core ./core",
	}
	if got := f.sentAfterSetup(); strings.Join(got, ";") != strings.Join(want, ";") {
		t.Errorf("sent %v, want %v", got, want)
	}
}

const infoSource = `Current source file is worker.c
Compilation directory is /home/dev/my/project/path
Located in /home/dev/my/project/path/worker.c
`

func TestSetCurrentSourceDir_StripsSuffix(t *testing.T) {
	f := newFake(map[string]string{"info source": infoSource})
	d, _ := newTestDriver(t, f)

	if err := d.SetCurrentSourceDir(context.Background(), "./src/", "my/project/path"); err != nil {
		t.Fatalf("SetCurrentSourceDir() error: %v", err)
	}
	sent := f.sentAfterSetup()
	if last := sent[len(sent)-1]; last != "set sub /home/dev/ ./src/" {
		t.Errorf("got %q", last)
	}
}

func TestSetCurrentSourceDir_NoSuffix(t *testing.T) {
	f := newFake(map[string]string{"info source": infoSource})
	d, _ := newTestDriver(t, f)

	if err := d.SetCurrentSourceDir(context.Background(), "/src", ""); err != nil {
		t.Fatal(err)
	}
	sent := f.sentAfterSetup()
	if last := sent[len(sent)-1]; last != "set sub /home/dev/my/project/path /src" {
		t.Errorf("got %q", last)
	}
}

func TestSetCurrentSourceDir_SuffixMismatch(t *testing.T) {
	f := newFake(map[string]string{"info source": infoSource})
	d, _ := newTestDriver(t, f)

	err := d.SetCurrentSourceDir(context.Background(), "./src/", "other/path")
	var ae *AssertionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AssertionError, got %T (%v)", err, err)
	}
	for _, cmd := range f.sent {
		if strings.HasPrefix(cmd, "set sub") {
			t.Errorf("no substitution expected after a failed check, sent %q", cmd)
		}
	}
}

func TestSourceDir_NoSymbols(t *testing.T) {
	f := newFake(map[string]string{"info source": "No current source file.\n"})
	d, _ := newTestDriver(t, f)

	_, err := d.SourceDir(context.Background())
	var ee *parser.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *parser.ExtractionError, got %T (%v)", err, err)
	}
}
