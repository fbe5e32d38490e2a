// Package parser extracts typed records from gdb's textual replies.
//
// Every rule is a precompiled regular expression in multiline mode, so '^'
// and '$' anchor at line boundaries. Rules run over text that has already
// been captured by the session driver; nothing here touches the transport,
// which keeps every rule testable with literal fixtures.
//
// List rules (backtrace, thread list) match globally, left to right, and
// yield zero or more records. Scalar rules are single-shot: the caller issued
// a command that always prints the line when the debugger state is valid, so
// a missing match is reported as an *ExtractionError.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoMatch is wrapped by every *ExtractionError.
var ErrNoMatch = errors.New("pattern not found")

// ExtractionError reports that a scalar rule found nothing in a reply. It
// usually means the command was issued against invalid state (no core
// loaded, no symbols) or gdb printed an unfamiliar format.
type ExtractionError struct {
	// Rule is the name of the rule that failed.
	Rule string
	// Text is the reply that was searched.
	Text string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v in %q", e.Rule, ErrNoMatch, truncate(e.Text, 160))
}

func (e *ExtractionError) Unwrap() error { return ErrNoMatch }

// Rule is a named, precompiled extraction pattern.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

func newRule(name, expr string) Rule {
	return Rule{Name: name, re: regexp.MustCompile("(?m)" + expr)}
}

// String returns the rule's pattern.
func (r Rule) String() string { return r.re.String() }

// scalar returns the named group of the first match in text.
func (r Rule) scalar(text, group string) (string, error) {
	m := r.re.FindStringSubmatchIndex(text)
	if m == nil {
		return "", &ExtractionError{Rule: r.Name, Text: text}
	}
	v, ok := submatch(r.re, text, m, group)
	if !ok {
		return "", &ExtractionError{Rule: r.Name, Text: text}
	}
	return v, nil
}

// scalarInt is scalar followed by a decimal conversion.
func (r Rule) scalarInt(text, group string) (int, error) {
	s, err := r.scalar(text, group)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", r.Name, err)
	}
	return n, nil
}

// submatch returns the text of a named group for one match, reporting false
// when the group did not participate in the match.
func submatch(re *regexp.Regexp, text string, m []int, group string) (string, bool) {
	i := re.SubexpIndex(group)
	if i < 0 || m[2*i] < 0 {
		return "", false
	}
	return text[m[2*i]:m[2*i+1]], true
}

// atoi converts a run of digits already validated by a rule. Values that
// overflow an int yield 0.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
