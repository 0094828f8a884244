package supervisor_test

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/slim/internal/core/ports/mocks"
	"go.trai.ch/slim/internal/engine/supervisor"
	"go.uber.org/mock/gomock"
)

const childPid = 42

type outcome struct {
	code int
	err  error
}

func setupSupervisorTest(t *testing.T, opts supervisor.Options) (*supervisor.Supervisor, *mocks.MockProcessTable) {
	t.Helper()
	ctrl := gomock.NewController(t)
	procs := mocks.NewMockProcessTable(ctrl)

	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	return supervisor.New(procs, logger, opts), procs
}

// start runs the supervisor in the bubble and returns the channel its outcome is delivered on.
func start(s *supervisor.Supervisor, argv []string, events <-chan os.Signal) <-chan outcome {
	done := make(chan outcome, 1)
	go func() {
		code, err := s.Run(argv, events)
		done <- outcome{code: code, err: err}
	}()
	return done
}

func TestSupervisor_ForwardsSignalAndPropagatesStatus(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 4)

		gomock.InOrder(
			procs.EXPECT().Spawn([]string{"node", "server.js"}, ports.SpawnOptions{}).Return(childPid, nil),
			procs.EXPECT().Signal(childPid, syscall.SIGTERM, false).Return(nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 0}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"node", "server.js"}, events)
		synctest.Wait()
		assert.Equal(t, domain.StateRunning, s.State())

		events <- syscall.SIGTERM
		synctest.Wait()
		assert.Equal(t, 1, s.Forwarded())
		assert.Equal(t, domain.StateRunning, s.State())

		events <- syscall.SIGCHLD
		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 0, res.code)
		assert.Equal(t, domain.StateTerminated, s.State())
	})
}

func TestSupervisor_KilledChild(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 1)

		procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil)
		gomock.InOrder(
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapSignaled, Pid: childPid, Signal: syscall.SIGKILL}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"sleep", "60"}, events)
		events <- syscall.SIGCHLD

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 137, res.code)
	})
}

func TestSupervisor_ReapsOrphans(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 1)

		procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil)
		gomock.InOrder(
			// An orphaned grandchild exits while the child keeps running.
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: 100, Code: 1}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil),
			// The child exits; a second orphan is collected by the final drain.
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 3}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapSignaled, Pid: 101, Signal: syscall.SIGTERM}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"sh", "-c", "spawn-daemon"}, events)

		events <- syscall.SIGCHLD
		synctest.Wait()
		assert.Equal(t, domain.StateRunning, s.State(), "an orphan exit must not end supervision")

		events <- syscall.SIGCHLD
		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 3, res.code)
	})
}

func TestSupervisor_VanishedChildIsIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 2)

		gomock.InOrder(
			procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil),
			procs.EXPECT().Signal(childPid, syscall.SIGHUP, false).Return(syscall.ESRCH),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 0}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"true"}, events)
		events <- syscall.SIGHUP
		events <- syscall.SIGCHLD

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 0, res.code)
		assert.Equal(t, 0, s.Forwarded())
	})
}

func TestSupervisor_ProcessGroup(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{ProcessGroup: true})
		events := make(chan os.Signal, 2)

		gomock.InOrder(
			procs.EXPECT().Spawn(gomock.Any(), ports.SpawnOptions{NewProcessGroup: true}).Return(childPid, nil),
			procs.EXPECT().Signal(childPid, syscall.SIGINT, true).Return(nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapSignaled, Pid: childPid, Signal: syscall.SIGINT}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"make", "serve"}, events)
		events <- syscall.SIGINT
		events <- syscall.SIGCHLD

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 130, res.code)
	})
}

func TestSupervisor_UnforwardedSignals(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 4)

		procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil)
		procs.EXPECT().Signal(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		gomock.InOrder(
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil).Times(2),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 0}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"true"}, events)
		events <- syscall.SIGURG
		events <- syscall.SIGTTIN
		events <- syscall.SIGCHLD

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 0, s.Forwarded())
	})
}

func TestSupervisor_ReapsOnAnyEvent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 1)

		// The SIGCHLD for the exit was lost; the next signal still collects the child.
		gomock.InOrder(
			procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil),
			procs.EXPECT().Signal(childPid, syscall.SIGWINCH, false).Return(syscall.ESRCH),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 4}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"top"}, events)
		events <- syscall.SIGWINCH

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 4, res.code)
	})
}

func TestSupervisor_ForwardsRealtimeSignals(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 2)
		rtStop := syscall.Signal(37)

		gomock.InOrder(
			procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil),
			procs.EXPECT().Signal(childPid, rtStop, false).Return(nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNonePending}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapExited, Pid: childPid, Code: 0}, nil),
			procs.EXPECT().Reap().Return(domain.ReapResult{Kind: domain.ReapNoChildren}, nil),
		)

		done := start(s, []string{"/sbin/init"}, events)
		events <- rtStop
		events <- syscall.SIGCHLD

		res := <-done
		require.NoError(t, res.err)
		assert.Equal(t, 1, s.Forwarded())
	})
}

func TestSupervisor_LaunchFailure(t *testing.T) {
	s, procs := setupSupervisorTest(t, supervisor.Options{})
	spawnErr := errors.New("exec: \"missing\": executable file not found in $PATH")

	procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(0, spawnErr)
	procs.EXPECT().Reap().Times(0)

	code, err := s.Run([]string{"missing"}, make(chan os.Signal))
	assert.Equal(t, domain.ExitLaunchFailed, code)
	assert.ErrorIs(t, err, spawnErr)
	assert.Equal(t, domain.StateTerminated, s.State())
}

func TestSupervisor_NoCommand(t *testing.T) {
	s, procs := setupSupervisorTest(t, supervisor.Options{})
	procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Times(0)

	code, err := s.Run(nil, make(chan os.Signal))
	assert.Equal(t, domain.ExitUsage, code)
	assert.ErrorIs(t, err, domain.ErrNoCommand)
}

func TestSupervisor_ReapFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal, 1)
		reapErr := errors.New("wait4: invalid argument")

		procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil)
		procs.EXPECT().Reap().Return(domain.ReapResult{}, reapErr)

		done := start(s, []string{"true"}, events)
		events <- syscall.SIGCHLD

		res := <-done
		assert.Equal(t, domain.ExitSupervisorFailed, res.code)
		assert.ErrorIs(t, res.err, reapErr)
	})
}

func TestSupervisor_EventSourceClosed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, procs := setupSupervisorTest(t, supervisor.Options{})
		events := make(chan os.Signal)

		procs.EXPECT().Spawn(gomock.Any(), gomock.Any()).Return(childPid, nil)

		done := start(s, []string{"true"}, events)
		close(events)

		res := <-done
		assert.Equal(t, domain.ExitSupervisorFailed, res.code)
		assert.ErrorContains(t, res.err, domain.ErrReapFailed.Error())
	})
}
