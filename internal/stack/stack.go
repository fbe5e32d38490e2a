// Package stack canonicalizes gdb call stacks: it strips runtime noise from
// either end according to a denylist and assigns each remaining frame a
// display signature.
package stack

import (
	"github.com/timvw/gdbdrive/internal/model"
)

// End selects which end of a stack Prune inspects.
type End int

const (
	// Front is the innermost end (index 0).
	Front End = iota
	// Back is the outermost end (the last index).
	Back
)

func (e End) String() string {
	if e == Back {
		return "back"
	}
	return "front"
}

type denyKey struct {
	function string
	file     string
	hasFile  bool
}

// Canonicalizer prunes stacks against a fixed denylist. It holds no mutable
// state after construction and is safe for concurrent use.
type Canonicalizer struct {
	deny map[denyKey]struct{}
}

// New creates a Canonicalizer for the given denylist. An entry with an empty
// File matches frames without a filename.
func New(deny []model.DenyEntry) *Canonicalizer {
	c := &Canonicalizer{deny: make(map[denyKey]struct{}, len(deny))}
	for _, e := range deny {
		c.deny[denyKey{function: e.Function, file: e.File, hasFile: e.File != ""}] = struct{}{}
	}
	return c
}

// Denied reports whether a frame's (function, file basename) pair is on the
// denylist.
func (c *Canonicalizer) Denied(f model.Frame) bool {
	base, ok := f.Basename()
	_, denied := c.deny[denyKey{function: f.Function, file: base, hasFile: ok}]
	return denied
}

// Prune removes denied frames from the chosen end of s until a frame is kept
// or a single frame remains, and returns how many frames were removed. The
// remaining frames keep their order.
func (c *Canonicalizer) Prune(s *model.Stack, end End) int {
	popped := 0
	for len(*s) > 1 {
		i := 0
		if end == Back {
			i = len(*s) - 1
		}
		if !c.Denied((*s)[i]) {
			break
		}
		if end == Back {
			*s = (*s)[:i]
		} else {
			*s = (*s)[1:]
		}
		popped++
	}
	return popped
}

// PruneFront prunes the innermost end.
func (c *Canonicalizer) PruneFront(s *model.Stack) int {
	return c.Prune(s, Front)
}

// PruneBack prunes the outermost end.
func (c *Canonicalizer) PruneBack(s *model.Stack) int {
	return c.Prune(s, Back)
}

// Signature returns a frame's display string, "function(args)".
func Signature(f model.Frame) string {
	return f.Function + "(" + f.Args + ")"
}

// PopulateSignatures stores the signature on every frame of s.
func PopulateSignatures(s model.Stack) {
	for i := range s {
		s[i].Signature = Signature(s[i])
	}
}
