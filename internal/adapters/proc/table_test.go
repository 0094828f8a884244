package proc_test

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/proc"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
)

// reapPid polls until pid has been collected.
func reapPid(t *testing.T, table *proc.Table, pid int) domain.ReapResult {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		res, err := table.Reap()
		require.NoError(t, err)
		if res.Collected() && res.Pid == pid {
			return res
		}
		if !res.Collected() {
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("pid %d was not reaped", pid)
	return domain.ReapResult{}
}

func TestTable_SpawnReap_Exited(t *testing.T) {
	table := proc.NewTable()

	pid, err := table.Spawn([]string{"sh", "-c", "exit 3"}, ports.SpawnOptions{})
	require.NoError(t, err)

	res := reapPid(t, table, pid)
	assert.Equal(t, domain.ReapExited, res.Kind)
	assert.Equal(t, 3, res.ExitStatus())
}

func TestTable_SpawnReap_Killed(t *testing.T) {
	table := proc.NewTable()

	pid, err := table.Spawn([]string{"sh", "-c", "kill -9 $$"}, ports.SpawnOptions{})
	require.NoError(t, err)

	res := reapPid(t, table, pid)
	assert.Equal(t, domain.ReapSignaled, res.Kind)
	assert.Equal(t, syscall.SIGKILL, res.Signal)
	assert.Equal(t, 137, res.ExitStatus())
}

func TestTable_Signal_Group(t *testing.T) {
	table := proc.NewTable()

	pid, err := table.Spawn([]string{"sleep", "30"}, ports.SpawnOptions{NewProcessGroup: true})
	require.NoError(t, err)

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)

	require.NoError(t, table.Signal(pid, syscall.SIGTERM, true))

	res := reapPid(t, table, pid)
	assert.Equal(t, domain.ReapSignaled, res.Kind)
	assert.Equal(t, syscall.SIGTERM, res.Signal)
	assert.Equal(t, 143, res.ExitStatus())
}

func TestTable_Signal_Gone(t *testing.T) {
	table := proc.NewTable()

	pid, err := table.Spawn([]string{"true"}, ports.SpawnOptions{})
	require.NoError(t, err)
	reapPid(t, table, pid)

	err = table.Signal(pid, syscall.SIGTERM, false)
	assert.ErrorIs(t, err, syscall.ESRCH)
}

func TestTable_Reap_NoChildren(t *testing.T) {
	table := proc.NewTable()

	res, err := table.Reap()
	require.NoError(t, err)
	assert.Equal(t, domain.ReapNoChildren, res.Kind)
}

func TestTable_Spawn_Failure(t *testing.T) {
	table := proc.NewTable()

	_, err := table.Spawn([]string{"/nonexistent/binary"}, ports.SpawnOptions{})
	assert.ErrorContains(t, err, domain.ErrSpawnFailed.Error())

	_, err = table.Spawn(nil, ports.SpawnOptions{})
	assert.ErrorIs(t, err, domain.ErrNoCommand)
}

func TestTable_Spawn_SharesStdio(t *testing.T) {
	table := proc.NewTable()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	pid, err := table.Spawn([]string{"sh", "-c", "echo shared"}, ports.SpawnOptions{Stdout: w})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reapPid(t, table, pid)

	buf := make([]byte, 64)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "shared\n", string(buf[:n]))
}
