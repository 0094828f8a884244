package domain

import (
	"slices"
	"syscall"
)

const (
	// SignalExitBase is added to the signal number when the child died from a signal.
	SignalExitBase = 128

	// ExitLaunchFailed is the supervisor status when the child could not be started.
	ExitLaunchFailed = 125

	// ExitUsage is the supervisor status for invalid invocations.
	ExitUsage = 2

	// ExitSupervisorFailed is the status when the supervisor itself fails after spawning.
	ExitSupervisorFailed = 1
)

// SupervisorState is the lifecycle state of the init supervisor.
type SupervisorState int

const (
	// StateInit is the state before the child has been spawned.
	StateInit SupervisorState = iota
	// StateSpawned is the state right after a successful spawn.
	StateSpawned
	// StateRunning is the state while the event loop forwards signals and reaps orphans.
	StateRunning
	// StateReaping is the state after the tracked child exited, while remaining children are drained.
	StateReaping
	// StateTerminated is the final state; the exit status is known.
	StateTerminated
)

func (s SupervisorState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSpawned:
		return "spawned"
	case StateRunning:
		return "running"
	case StateReaping:
		return "reaping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ReapKind tags the outcome of a single non-blocking wait.
type ReapKind int

const (
	// ReapExited means a child exited normally.
	ReapExited ReapKind = iota
	// ReapSignaled means a child was terminated by a signal.
	ReapSignaled
	// ReapNonePending means children exist but none has changed state.
	ReapNonePending
	// ReapNoChildren means there are no children left to wait for.
	ReapNoChildren
)

func (k ReapKind) String() string {
	switch k {
	case ReapExited:
		return "exited"
	case ReapSignaled:
		return "signaled"
	case ReapNonePending:
		return "none-pending"
	case ReapNoChildren:
		return "no-children"
	default:
		return "unknown"
	}
}

// ReapResult is the tagged result of one non-blocking wait for any child.
type ReapResult struct {
	Kind   ReapKind
	Pid    int
	Code   int
	Signal syscall.Signal
}

// Collected reports whether the result carries a reaped process.
func (r ReapResult) Collected() bool {
	return r.Kind == ReapExited || r.Kind == ReapSignaled
}

// ExitStatus converts the result to a shell-style exit status.
func (r ReapResult) ExitStatus() int {
	if r.Kind == ReapSignaled {
		return SignalExitBase + int(r.Signal)
	}
	return r.Code
}

// SignalMax is the highest signal number, SIGRTMAX on Linux.
const SignalMax = 64

// unforwardedSignals cannot be caught, are synchronous faults of the supervisor
// itself, stop a background process group, or are used by the Go runtime
// (SIGURG). SIGCHLD drives reaping instead of being relayed.
var unforwardedSignals = []syscall.Signal{
	syscall.SIGKILL,
	syscall.SIGSTOP,
	syscall.SIGSEGV,
	syscall.SIGBUS,
	syscall.SIGFPE,
	syscall.SIGILL,
	syscall.SIGTRAP,
	syscall.SIGSYS,
	syscall.SIGTTIN,
	syscall.SIGTTOU,
	syscall.SIGURG,
	syscall.SIGCHLD,
}

// ForwardedSignals are relayed from the supervisor to its child: every signal
// up to SignalMax that is not unforwarded, including SIGPWR and the realtime range.
var ForwardedSignals = forwardedSignals()

func forwardedSignals() []syscall.Signal {
	set := make([]syscall.Signal, 0, SignalMax)
	for sig := syscall.Signal(1); sig <= SignalMax; sig++ {
		if !slices.Contains(unforwardedSignals, sig) {
			set = append(set, sig)
		}
	}
	return set
}

// IsForwarded reports whether sig is relayed to the child.
func IsForwarded(sig syscall.Signal) bool {
	return sig >= 1 && sig <= SignalMax && !slices.Contains(unforwardedSignals, sig)
}
