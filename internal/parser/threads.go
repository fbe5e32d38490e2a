package parser

import (
	"iter"

	"github.com/timvw/gdbdrive/internal/model"
)

// ThreadRule matches one "info threads" line. The leading '*' marks the
// selected thread and is ignored. Core files print "LWP <tid>", live
// processes "Thread 0x... (LWP <tid>)".
var ThreadRule = newRule("threads",
	`^\*? +(?P<thread_num>[0-9]+) +(?:Thread 0x[0-9a-fA-F]+ \()?(?:LWP )?(?P<thread_id>[0-9]+)`)

// ThreadMatches yields the threads of an "info threads" reply in listing
// order. Records are built as the consumer pulls them.
func ThreadMatches(text string) iter.Seq[model.Thread] {
	re := ThreadRule.re
	return func(yield func(model.Thread) bool) {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			num, _ := submatch(re, text, m, "thread_num")
			tid, _ := submatch(re, text, m, "thread_id")
			if !yield(model.Thread{Num: atoi(num), TID: atoi(tid)}) {
				return
			}
		}
	}
}

// ParseThreads extracts every thread from an "info threads" reply.
func ParseThreads(text string) []model.Thread {
	var threads []model.Thread
	for th := range ThreadMatches(text) {
		threads = append(threads, th)
	}
	return threads
}
