// Package proc exposes the operating system process table to the init supervisor.
package proc

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// Table implements ports.ProcessTable with raw wait and kill calls.
// Children are never waited for through os/exec; every exit is collected by Reap.
type Table struct{}

// NewTable creates a new Table.
func NewTable() *Table {
	return &Table{}
}

// Spawn starts argv with the given stdio descriptors and returns its pid.
func (t *Table) Spawn(argv []string, opts ports.SpawnOptions) (int, error) {
	if len(argv) == 0 {
		return 0, domain.ErrNoCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // the child command is the container entrypoint
	cmd.Stdin = orDefault(opts.Stdin, os.Stdin)
	cmd.Stdout = orDefault(opts.Stdout, os.Stdout)
	cmd.Stderr = orDefault(opts.Stderr, os.Stderr)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: opts.NewProcessGroup}

	if err := cmd.Start(); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrSpawnFailed.Error()), "command", argv[0])
	}

	pid := cmd.Process.Pid
	// The exit status is collected by Reap; drop the handle without waiting.
	_ = cmd.Process.Release()

	return pid, nil
}

// orDefault keeps the descriptor identity so the child shares the supervisor's stdio.
func orDefault(f, def *os.File) *os.File {
	if f != nil {
		return f
	}
	return def
}

// Signal delivers sig to pid, or to its process group when group is set.
// A target that no longer exists yields an error matching syscall.ESRCH.
func (t *Table) Signal(pid int, sig syscall.Signal, group bool) error {
	target := pid
	if group {
		target = -pid
	}
	return unix.Kill(target, sig)
}

// Reap performs one non-blocking wait for any child.
func (t *Table) Reap() (domain.ReapResult, error) {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return domain.ReapResult{Kind: domain.ReapNoChildren}, nil
		case err != nil:
			return domain.ReapResult{}, zerr.Wrap(err, domain.ErrReapFailed.Error())
		case pid == 0:
			return domain.ReapResult{Kind: domain.ReapNonePending}, nil
		}

		switch {
		case ws.Exited():
			return domain.ReapResult{Kind: domain.ReapExited, Pid: pid, Code: ws.ExitStatus()}, nil
		case ws.Signaled():
			return domain.ReapResult{Kind: domain.ReapSignaled, Pid: pid, Signal: ws.Signal()}, nil
		}
		// Stopped and continued states are only reported under ptrace; wait again.
	}
}
