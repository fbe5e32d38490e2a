package parser

// Single-line rules, one per query command.
var (
	// PIDRule matches "info inferior": "* 1    process 4242     /bin/app".
	PIDRule = newRule("pid", `^\*? *[0-9]+ *process (?P<process_id>[0-9]+)`)
	// SysrootRule matches "show sysroot".
	SysrootRule = newRule("sysroot", `^The current system root is "(?P<sysroot>[^"]*)"\.`)
	// FrameRule matches the frame line printed by "frame" and "frame <n>".
	FrameRule = newRule("frame", `^#(?P<frame_num>[0-9]+)`)
	// SwitchedThreadRule matches the confirmation printed by "thread <n>".
	SwitchedThreadRule = newRule("switched-thread", `^\[Switching to thread (?P<thread_id>[0-9]+)`)
	// CurrentThreadRule matches the reply to a bare "thread".
	CurrentThreadRule = newRule("current-thread", `^\[Current thread is (?P<thread_id>[0-9]+)`)
	// SourceDirRule matches the compilation directory in "info source".
	SourceDirRule = newRule("source-dir", `^Compilation directory is (?P<source_dir>.*)$`)
)

// ParsePID returns the inferior's process id.
func ParsePID(text string) (int, error) {
	return PIDRule.scalarInt(text, "process_id")
}

// ParseSysroot returns the configured system root, possibly empty.
func ParseSysroot(text string) (string, error) {
	return SysrootRule.scalar(text, "sysroot")
}

// ParseFrameNum returns the selected frame number.
func ParseFrameNum(text string) (int, error) {
	return FrameRule.scalarInt(text, "frame_num")
}

// ParseSwitchedThread returns the thread gdb reports having switched to.
func ParseSwitchedThread(text string) (int, error) {
	return SwitchedThreadRule.scalarInt(text, "thread_id")
}

// ParseCurrentThread returns the currently selected thread.
func ParseCurrentThread(text string) (int, error) {
	return CurrentThreadRule.scalarInt(text, "thread_id")
}

// ParseSourceDir returns the compilation directory of the current source file.
func ParseSourceDir(text string) (string, error) {
	return SourceDirRule.scalar(text, "source_dir")
}
