package transport

import "fmt"

// Kinds accepted by Start.
const (
	KindPTY  = "pty"
	KindPipe = "pipe"
)

// Start launches name with args on the transport named by kind. An empty
// kind selects the PTY transport.
func Start(kind, name string, args []string, opts ...Option) (Transport, error) {
	switch kind {
	case "", KindPTY:
		return StartPTY(name, args, opts...)
	case KindPipe:
		return StartPipe(name, args, opts...)
	default:
		return nil, fmt.Errorf("unknown transport %q (supported: %s, %s)", kind, KindPTY, KindPipe)
	}
}
