package gdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/parser"
)

// LoadBinary runs "file <path>" and returns gdb's reply unchecked.
func (d *Driver) LoadBinary(ctx context.Context, path string) (string, error) {
	return d.SendCommand(ctx, "file "+path)
}

// LoadCore runs "core <path>" and returns gdb's reply unchecked.
func (d *Driver) LoadCore(ctx context.Context, path string) (string, error) {
	return d.SendCommand(ctx, "core "+path)
}

// SetSysroot sets the target system root.
func (d *Driver) SetSysroot(ctx context.Context, path string) error {
	_, err := d.SendCommand(ctx, "set sysroot "+path)
	return err
}

// Sysroot returns the system root as gdb reports it.
func (d *Driver) Sysroot(ctx context.Context) (string, error) {
	reply, err := d.SendCommand(ctx, "show sysroot")
	if err != nil {
		return "", err
	}
	return parser.ParseSysroot(reply)
}

// SetSolibSearchPath sets the shared library search path. gdb separates
// entries with ':'.
func (d *Driver) SetSolibSearchPath(ctx context.Context, paths []string) error {
	_, err := d.SendCommand(ctx, "set solib-search-path "+strings.Join(paths, ":"))
	return err
}

// PID returns the inferior's process id.
func (d *Driver) PID(ctx context.Context) (int, error) {
	reply, err := d.SendCommand(ctx, "info inferior")
	if err != nil {
		return 0, err
	}
	return parser.ParsePID(reply)
}

// Backtrace returns the selected thread's stack, innermost frame first.
func (d *Driver) Backtrace(ctx context.Context) (model.Stack, error) {
	reply, err := d.SendCommand(ctx, "bt")
	if err != nil {
		return nil, err
	}
	return parser.ParseBacktrace(reply), nil
}

// SetLocationMain selects the outermost frame of the main thread, the one
// whose kernel id equals the process id, and checks that it is main().
func (d *Driver) SetLocationMain(ctx context.Context) (model.Location, error) {
	pid, err := d.PID(ctx)
	if err != nil {
		return model.Location{}, err
	}

	threadNum := -1
	for th, err := range d.Threads(ctx) {
		if err != nil {
			return model.Location{}, err
		}
		if th.TID == pid {
			threadNum = th.Num
			break
		}
	}
	if threadNum < 0 {
		return model.Location{}, assertf("no thread has the process id %d", pid)
	}

	if err := d.SetThread(ctx, threadNum); err != nil {
		return model.Location{}, err
	}
	s, err := d.Backtrace(ctx)
	if err != nil {
		return model.Location{}, err
	}
	if len(s) == 0 {
		return model.Location{}, assertf("thread %d has no stack", threadNum)
	}
	outer := s.Outermost()
	if outer.Function != "main" {
		return model.Location{}, assertf("thread %d starts in %s, not main", threadNum, outer.Function)
	}
	if err := d.SetFrame(ctx, outer.Num); err != nil {
		return model.Location{}, err
	}
	return model.Location{Thread: threadNum, Frame: outer.Num}, nil
}

// SourceDir returns the compilation directory of the current source file.
func (d *Driver) SourceDir(ctx context.Context) (string, error) {
	reply, err := d.SendCommand(ctx, "info source")
	if err != nil {
		return "", err
	}
	return parser.ParseSourceDir(reply)
}

// SetCurrentSourceDir maps the directory the program was compiled in onto
// liveRoot. With a non-empty suffix the compilation directory must end in
// suffix, which is stripped first:
//
//	compiled in   /home/dev/this_project/my_app/src
//	sources in    /home/dev/debug/that_project/my_app/src
//	liveRoot      /home/dev/debug/that_project
//	suffix        my_app/src
func (d *Driver) SetCurrentSourceDir(ctx context.Context, liveRoot, suffix string) error {
	compiled, err := d.SourceDir(ctx)
	if err != nil {
		return err
	}
	if suffix != "" {
		root, ok := strings.CutSuffix(compiled, suffix)
		if !ok {
			return assertf("compilation directory %s does not end in %s", compiled, suffix)
		}
		compiled = root
	}
	return d.SetSourceSubpath(ctx, compiled, liveRoot)
}

// SetSourceSubpath adds a source path substitution.
func (d *Driver) SetSourceSubpath(ctx context.Context, compiledRoot, liveRoot string) error {
	_, err := d.SendCommand(ctx, fmt.Sprintf("set sub %s %s", compiledRoot, liveRoot))
	return err
}
