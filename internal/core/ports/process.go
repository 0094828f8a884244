package ports

import (
	"os"
	"syscall"

	"go.trai.ch/slim/internal/core/domain"
)

// SpawnOptions configures how the supervised child is started.
type SpawnOptions struct {
	// NewProcessGroup starts the child as leader of its own process group.
	NewProcessGroup bool
	Stdin           *os.File
	Stdout          *os.File
	Stderr          *os.File
}

// ProcessTable is the supervisor's view of the operating system process table.
//
//go:generate mockgen -source=process.go -destination=mocks/mock_process.go -package=mocks
type ProcessTable interface {
	// Spawn starts argv as a child and returns its pid.
	Spawn(argv []string, opts SpawnOptions) (int, error)

	// Signal delivers sig to pid, or to the process group led by pid when group is set.
	Signal(pid int, sig syscall.Signal, group bool) error

	// Reap performs one non-blocking wait for any child.
	Reap() (domain.ReapResult, error)

	// BecomeSubreaper makes orphaned descendants reparent to this process.
	BecomeSubreaper() error
}
