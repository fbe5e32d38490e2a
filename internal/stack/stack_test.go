package stack

import (
	"testing"

	"github.com/timvw/gdbdrive/internal/model"
)

func frame(num int, function, filename string) model.Frame {
	f := model.Frame{Num: num, Function: function}
	if filename != "" {
		f.Filename = &filename
	}
	return f
}

// workerStack is a typical blocked worker thread from a core dump.
func workerStack() model.Stack {
	return model.Stack{
		frame(0, "do_futex_wait", "sem_wait.c"),
		frame(1, "__new_sem_wait_slow", "sem_wait.c"),
		frame(2, "worker_loop", "/home/dev/app/src/worker.c"),
		frame(3, "start_thread", "/build/glibc-2.27/nptl/pthread_create.c"),
		frame(4, "??", "../sysdeps/unix/sysv/linux/x86_64/clone.S"),
	}
}

func functions(s model.Stack) []string {
	var out []string
	for _, f := range s {
		out = append(out, f.Function)
	}
	return out
}

func TestPrune_Front(t *testing.T) {
	c := New(model.DefaultDenylist())
	s := workerStack()

	if n := c.PruneFront(&s); n != 1 {
		t.Errorf("PruneFront: removed %d, want 1", n)
	}
	if s[0].Function != "__new_sem_wait_slow" {
		t.Errorf("front after prune: got %q", s[0].Function)
	}
	if len(s) != 4 {
		t.Errorf("len after prune: got %d, want 4", len(s))
	}
}

func TestPrune_BackUsesBasename(t *testing.T) {
	c := New(model.DefaultDenylist())
	s := workerStack()

	if n := c.PruneBack(&s); n != 2 {
		t.Errorf("PruneBack: removed %d, want 2", n)
	}
	got := functions(s)
	want := []string{"do_futex_wait", "__new_sem_wait_slow", "worker_loop"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrune_Idempotent(t *testing.T) {
	c := New(model.DefaultDenylist())
	for _, end := range []End{Front, Back} {
		s := workerStack()
		c.Prune(&s, end)
		before := len(s)
		if n := c.Prune(&s, end); n != 0 {
			t.Errorf("%s: second prune removed %d, want 0", end, n)
		}
		if len(s) != before {
			t.Errorf("%s: length changed from %d to %d", end, before, len(s))
		}
	}
}

func TestPrune_NeverEmpty(t *testing.T) {
	c := New([]model.DenyEntry{{Function: "a", File: "x.c"}, {Function: "b", File: "x.c"}})
	for _, end := range []End{Front, Back} {
		s := model.Stack{frame(0, "a", "x.c"), frame(1, "b", "x.c"), frame(2, "a", "/src/x.c")}
		if n := c.Prune(&s, end); n != 2 {
			t.Errorf("%s: removed %d, want 2", end, n)
		}
		if len(s) != 1 {
			t.Errorf("%s: len %d, want 1", end, len(s))
		}
	}
}

func TestPrune_SingleFrameUntouched(t *testing.T) {
	c := New(model.DefaultDenylist())
	s := model.Stack{frame(0, "start_thread", "pthread_create.c")}
	if n := c.PruneFront(&s); n != 0 {
		t.Errorf("removed %d from a single-frame stack", n)
	}
}

func TestPrune_EmptyStack(t *testing.T) {
	c := New(model.DefaultDenylist())
	var s model.Stack
	if n := c.PruneBack(&s); n != 0 {
		t.Errorf("removed %d from an empty stack", n)
	}
}

func TestDenied_FilenameAbsence(t *testing.T) {
	c := New([]model.DenyEntry{{Function: "clone", File: ""}, {Function: "poll", File: "poll.c"}})

	tests := []struct {
		name string
		f    model.Frame
		want bool
	}{
		{"no file matches empty entry", frame(0, "clone", ""), true},
		{"file does not match empty entry", frame(0, "clone", "clone.S"), false},
		{"missing file does not match file entry", frame(0, "poll", ""), false},
		{"basename matches", frame(0, "poll", "/usr/src/poll.c"), true},
		{"different function", frame(0, "select", "poll.c"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Denied(tt.f); got != tt.want {
				t.Errorf("Denied() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignature(t *testing.T) {
	f := model.Frame{Function: "worker_loop", Args: "arg=0x0"}
	first := Signature(f)
	if first != "worker_loop(arg=0x0)" {
		t.Errorf("got %q", first)
	}
	if second := Signature(f); second != first {
		t.Errorf("signature not stable: %q vs %q", first, second)
	}

	f.Args = "arg=0x1"
	if got := Signature(f); got != "worker_loop(arg=0x1)" {
		t.Errorf("after args change: got %q", got)
	}
}

func TestPopulateSignatures(t *testing.T) {
	s := model.Stack{
		{Num: 0, Function: "baz", Args: ""},
		{Num: 1, Function: "main", Args: "argc=1, argv=0x7ffd"},
	}
	PopulateSignatures(s)
	PopulateSignatures(s)
	if s[0].Signature != "baz()" {
		t.Errorf("frame 0: got %q", s[0].Signature)
	}
	if s[1].Signature != "main(argc=1, argv=0x7ffd)" {
		t.Errorf("frame 1: got %q", s[1].Signature)
	}
}
