package parser

import (
	"iter"

	"github.com/timvw/gdbdrive/internal/model"
)

// BacktraceRule matches one "bt" line, e.g.
//
//	#0  foo (x=1) at bar.c:42
//	#1  0x00001234 in baz () from libbaz.so
//
// The address prefix is optional. The argument list ends at the first ')',
// nested parentheses are not handled. "at" and "from" clauses are both
// optional; gdb prints at most one of them.
var BacktraceRule = newRule("backtrace",
	`^#(?P<frame_num>[0-9]+) +(?:0x[0-9a-fA-F]+ in)? (?P<function_name>[^ ]+) \((?P<function_args>[^)\n]*)\)`+
		`(?: at (?P<filename>[^:\n]+):(?P<line>[0-9]+))?(?: from (?P<libname>.+))?`)

// ParseBacktrace extracts every frame from a "bt" reply, in output order.
func ParseBacktrace(text string) model.Stack {
	var stack model.Stack
	for f := range Frames(text) {
		stack = append(stack, f)
	}
	return stack
}

// Frames yields the frames of a "bt" reply one at a time.
func Frames(text string) iter.Seq[model.Frame] {
	re := BacktraceRule.re
	return func(yield func(model.Frame) bool) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			num, _ := submatch(re, text, m, "frame_num")
			fn, _ := submatch(re, text, m, "function_name")
			args, _ := submatch(re, text, m, "function_args")

			f := model.Frame{
				Num:      atoi(num),
				Function: fn,
				Args:     args,
			}
			if v, ok := submatch(re, text, m, "filename"); ok {
				f.Filename = &v
			}
			if v, ok := submatch(re, text, m, "line"); ok {
				line := atoi(v)
				f.Line = &line
			}
			if v, ok := submatch(re, text, m, "libname"); ok {
				f.Library = &v
			}
			if !yield(f) {
				return
			}
		}
	}
}
