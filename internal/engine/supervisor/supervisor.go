// Package supervisor implements the PID 1 init loop: it starts one child,
// relays signals to it, reaps every orphan and exits with the child's status.
package supervisor

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options configure the supervised child.
type Options struct {
	// ProcessGroup starts the child in its own process group and signals the whole group.
	ProcessGroup bool
	Stdin        *os.File
	Stdout       *os.File
	Stderr       *os.File
}

// Supervisor drives a single child through INIT, SPAWNED, RUNNING, REAPING and TERMINATED.
type Supervisor struct {
	procs  ports.ProcessTable
	logger ports.Logger
	opts   Options

	mu        sync.Mutex
	state     domain.SupervisorState
	pid       int
	outcome   *domain.ReapResult
	forwarded int
}

// New creates a new Supervisor.
func New(procs ports.ProcessTable, logger ports.Logger, opts Options) *Supervisor {
	return &Supervisor{
		procs:  procs,
		logger: logger,
		opts:   opts,
	}
}

// State returns the current lifecycle state.
func (s *Supervisor) State() domain.SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Forwarded returns how many signals were relayed to the child.
func (s *Supervisor) Forwarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forwarded
}

func (s *Supervisor) setState(state domain.SupervisorState) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	s.logger.Debug("supervisor " + prev.String() + " -> " + state.String())
}

// Run spawns argv and processes events until the child has exited and every
// reapable descendant was collected. It returns the exit status to terminate with.
//
// events must already be subscribed to SIGCHLD and the forwarded signals,
// otherwise a child that exits right after spawn may never be observed.
func (s *Supervisor) Run(argv []string, events <-chan os.Signal) (int, error) {
	if len(argv) == 0 {
		s.setState(domain.StateTerminated)
		return domain.ExitUsage, domain.ErrNoCommand
	}

	pid, err := s.procs.Spawn(argv, ports.SpawnOptions{
		NewProcessGroup: s.opts.ProcessGroup,
		Stdin:           s.opts.Stdin,
		Stdout:          s.opts.Stdout,
		Stderr:          s.opts.Stderr,
	})
	if err != nil {
		s.setState(domain.StateTerminated)
		return domain.ExitLaunchFailed, err
	}

	s.mu.Lock()
	s.pid = pid
	s.mu.Unlock()
	s.setState(domain.StateSpawned)
	s.logger.Debug("spawned " + strings.Join(argv, " ") + " as pid " + strconv.Itoa(pid))

	s.setState(domain.StateRunning)
	for s.State() == domain.StateRunning {
		sig, ok := <-events
		if !ok {
			s.setState(domain.StateTerminated)
			return domain.ExitSupervisorFailed, zerr.With(domain.ErrReapFailed, "reason", "event source closed")
		}

		if sys, ok := sig.(syscall.Signal); ok && sys != syscall.SIGCHLD {
			s.forward(sys)
		}

		// Every event reaps: a SIGCHLD dropped by a full queue must not stall the loop.
		if err := s.reap(); err != nil {
			s.setState(domain.StateTerminated)
			return domain.ExitSupervisorFailed, err
		}
	}

	s.setState(domain.StateTerminated)
	return s.outcome.ExitStatus(), nil
}

// reap collects exited children until none is pending. Once the tracked child
// is collected the remaining pass drains every other reapable descendant.
func (s *Supervisor) reap() error {
	for {
		res, err := s.procs.Reap()
		if err != nil {
			return zerr.Wrap(err, domain.ErrReapFailed.Error())
		}

		switch res.Kind {
		case domain.ReapNonePending:
			return nil
		case domain.ReapNoChildren:
			if s.outcome == nil {
				return zerr.With(domain.ErrReapFailed, "pid", s.pid)
			}
			return nil
		case domain.ReapExited, domain.ReapSignaled:
			if res.Pid != s.pid {
				s.logger.Debug("reaped orphan pid " + strconv.Itoa(res.Pid) + " (" + res.Kind.String() + ")")
				continue
			}
			s.outcome = &res
			s.logger.Debug("child pid " + strconv.Itoa(res.Pid) + " " + res.Kind.String() +
				" with status " + strconv.Itoa(res.ExitStatus()))
			s.setState(domain.StateReaping)
		}
	}
}

func (s *Supervisor) forward(sig syscall.Signal) {
	if !domain.IsForwarded(sig) {
		s.logger.Debug("ignoring signal " + sig.String())
		return
	}

	err := s.procs.Signal(s.pid, sig, s.opts.ProcessGroup)
	switch {
	case err == nil:
		s.mu.Lock()
		s.forwarded++
		s.mu.Unlock()
		s.logger.Debug("forwarded " + sig.String() + " to pid " + strconv.Itoa(s.pid))
	case errors.Is(err, syscall.ESRCH):
		// The child is already gone; the reap after this event collects it.
		s.logger.Debug("child pid " + strconv.Itoa(s.pid) + " gone, dropped " + sig.String())
	default:
		s.logger.Warn("failed to forward " + sig.String() + ": " + err.Error())
	}
}
