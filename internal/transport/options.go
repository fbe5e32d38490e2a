package transport

import (
	"io"
	"os"
)

// Option configures a transport at start.
type Option func(*options)

type options struct {
	lineSep string
	log     io.Writer
	env     []string
	dir     string
	stdin   *os.File
	stdout  io.Writer
}

func defaultOptions() options {
	return options{
		lineSep: "\n",
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
}

// WithLineSep sets the terminator appended by SendLine. Default "\n".
func WithLineSep(sep string) Option {
	return func(o *options) { o.lineSep = sep }
}

// WithLog copies every byte the child writes to w.
func WithLog(w io.Writer) Option {
	return func(o *options) { o.log = w }
}

// WithEnv appends KEY=VALUE pairs to the child's inherited environment.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithDir sets the child's working directory.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithTerminal sets the operator's terminal used by Handoff. Defaults to
// os.Stdin and os.Stdout.
func WithTerminal(in *os.File, out io.Writer) Option {
	return func(o *options) {
		o.stdin = in
		o.stdout = out
	}
}
