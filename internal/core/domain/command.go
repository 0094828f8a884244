package domain

// Command is a single process invocation inside a stage root.
type Command struct {
	// Args is the program followed by its arguments.
	Args []string
	// Dir is the absolute working directory.
	Dir string
	// Env holds stage-level overrides applied on top of the hermetic base environment.
	Env map[string]string
	// PathPrefix lists directories prepended to PATH.
	PathPrefix []string
	// TTY runs the command attached to a pseudo-terminal.
	TTY bool
}
