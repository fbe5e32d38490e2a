package model

import (
	"fmt"
	"path"
)

// Location is gdb's selected execution point: a thread number and a frame
// index within that thread's stack.
type Location struct {
	// Thread is gdb's thread number (the "Id" column of "info threads").
	Thread int `json:"thread"`
	// Frame is the frame index, 0 being the innermost frame.
	Frame int `json:"frame"`
}

func (l Location) String() string {
	return fmt.Sprintf("Thread %d, Frame %d", l.Thread, l.Frame)
}

// Frame is a single backtrace entry.
type Frame struct {
	// Num is the frame number printed after '#'.
	Num int `json:"num"`
	// Function is the function name, "??" when gdb has no symbol.
	Function string `json:"function"`
	// Args is the raw text between the parentheses, possibly empty.
	Args string `json:"args"`
	// Filename is the source file from an "at <file>:<line>" clause.
	// Nil when the frame has no source location.
	Filename *string `json:"filename,omitempty"`
	// Line is the source line from an "at <file>:<line>" clause.
	Line *int `json:"line,omitempty"`
	// Library is the shared object from a "from <lib>" clause.
	// Only shared-library frames without debug info carry it.
	Library *string `json:"library,omitempty"`
	// Signature is the canonical display string, empty until computed by
	// the stack canonicalizer.
	Signature string `json:"signature,omitempty"`
}

// Basename returns the last element of the frame's filename and true, or
// "" and false when the frame has no filename.
func (f Frame) Basename() (string, bool) {
	if f.Filename == nil {
		return "", false
	}
	return path.Base(*f.Filename), true
}

// Stack is an ordered call stack. Index 0 is the innermost (most recent)
// frame and the last element the outermost, typically the process entry.
type Stack []Frame

// Innermost returns the frame at index 0. The stack must not be empty.
func (s Stack) Innermost() Frame {
	return s[0]
}

// Outermost returns the last frame. The stack must not be empty.
func (s Stack) Outermost() Frame {
	return s[len(s)-1]
}

// Thread is a single "info threads" entry.
type Thread struct {
	// Num is gdb's thread number, used with the "thread <n>" command.
	Num int `json:"num"`
	// TID is the kernel thread id (LWP).
	TID int `json:"tid"`
}

// ThreadInfo is a thread together with its canonicalized stack. A fresh
// snapshot is taken on every listing; nothing is kept between listings.
type ThreadInfo struct {
	Thread
	Stack Stack `json:"stack"`
	// StackStart is the number of frames pruned from the innermost end.
	StackStart *int `json:"stack_start,omitempty"`
	// StackEnd is the number of frames pruned from the outermost end.
	StackEnd *int `json:"stack_end,omitempty"`
}

// DenyEntry identifies a frame considered uninteresting: an exact function
// name and the basename of its source file. An empty File matches frames
// that have no filename at all.
type DenyEntry struct {
	Function string `yaml:"function" json:"function"`
	File     string `yaml:"file" json:"file"`
}

// DefaultDenylist returns the runtime frames pruned by default: futex and
// lock wait internals and the thread start trampolines of glibc.
func DefaultDenylist() []DenyEntry {
	return []DenyEntry{
		{Function: "do_futex_wait", File: "sem_wait.c"},
		{Function: "do_futex_timed_wait", File: "sem_timedwait.c"},
		{Function: "__lll_lock_wait", File: "lowlevellock.c"},
		{Function: "??", File: "clone.S"},
		{Function: "start_thread", File: "pthread_create.c"},
		{Function: "__nptl_deallocate_tsd", File: "pthread_create.c"},
	}
}
