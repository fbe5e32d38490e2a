package gdb

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/timvw/gdbdrive/internal/model"
)

// Column is one column of the thread summary table.
type Column struct {
	Header string
	Value  func(model.ThreadInfo) string
}

// DefaultColumns returns the standard summary columns: thread number,
// kernel thread id, the outermost frame and the innermost frame.
func DefaultColumns() []Column {
	return []Column{
		{Header: "Num", Value: func(t model.ThreadInfo) string { return strconv.Itoa(t.Num) }},
		{Header: "Thread Id", Value: func(t model.ThreadInfo) string { return strconv.Itoa(t.TID) }},
		{Header: "Start Function", Value: func(t model.ThreadInfo) string {
			if len(t.Stack) == 0 {
				return ""
			}
			return t.Stack.Outermost().Signature
		}},
		{Header: "Current Function", Value: func(t model.ThreadInfo) string {
			if len(t.Stack) == 0 {
				return ""
			}
			return t.Stack.Innermost().Signature
		}},
	}
}

// PrintThreadsSummary writes the default summary table for threads. With
// nil threads it collects a fresh ThreadSummary first.
func (d *Driver) PrintThreadsSummary(ctx context.Context, w io.Writer, threads []model.ThreadInfo) error {
	if threads == nil {
		var err error
		if threads, err = collect(d.ThreadSummary(ctx)); err != nil {
			return err
		}
	}
	return RenderSummary(w, threads, DefaultColumns())
}

// RenderSummary writes a header and one row per thread, last listed thread
// first. Every cell is padded to its column's widest value, header
// included, and followed by a tab.
func RenderSummary(w io.Writer, threads []model.ThreadInfo, cols []Column) error {
	widths := make([]int, len(cols))
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Header
		widths[i] = runewidth.StringWidth(c.Header)
	}

	rows := make([][]string, len(threads))
	for r, t := range threads {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.Value(t)
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
		rows[r] = row
	}

	var b strings.Builder
	writeRow(&b, header, widths)
	for r := len(rows) - 1; r >= 0; r-- {
		writeRow(&b, rows[r], widths)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		b.WriteString(runewidth.FillRight(cell, widths[i]))
		b.WriteByte('\t')
	}
	b.WriteByte('\n')
}
