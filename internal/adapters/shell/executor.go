// Package shell runs stage commands with a hermetic environment.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long output copying may outlive a canceled command.
const waitDelay = 5 * time.Second

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs the command and waits for it to complete.
// Output is written to stdout and stderr and mirrored line by line to the logger.
func (e *Executor) Execute(ctx context.Context, c *domain.Command, stdout, stderr io.Writer) error {
	if len(c.Args) == 0 {
		return nil
	}

	stdoutLog := &logWriter{logger: e.logger}
	stderrLog := &logWriter{logger: e.logger, stderr: true}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	cmd := command(ctx, c)

	var err error
	if c.TTY {
		err = runPTY(cmd, io.MultiWriter(stdoutLog, stdout))
	} else {
		cmd.Stdout = io.MultiWriter(stdoutLog, stdout)
		cmd.Stderr = io.MultiWriter(stderrLog, stderr)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		err = cmd.Run()
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "exit_code", exitCode)
		return zerr.With(err, "command", strings.Join(c.Args, " "))
	}

	return nil
}

func command(ctx context.Context, c *domain.Command) *exec.Cmd {
	name := c.Args[0]
	env := resolveEnvironment(os.Environ(), c.PathPrefix, c.Env)

	executable := name
	if !filepath.IsAbs(name) && !strings.Contains(name, "/") {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, c.Args[1:]...) //nolint:gosec // stage commands are user provided
	cmd.Args[0] = name
	cmd.Dir = c.Dir
	cmd.Env = env
	cmd.WaitDelay = waitDelay

	// Kill the whole process group so helpers started by the command die with it.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	return cmd
}

// runPTY starts cmd on a pseudo-terminal. A PTY merges both output streams.
func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()

	return err
}

type logWriter struct {
	logger ports.Logger
	stderr bool
	buf    []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r.
	msg := strings.TrimSuffix(string(line), "\r")

	// Package managers write progress and warnings to stderr, so it is not an error stream.
	if w.stderr {
		w.logger.Warn(msg)
		return
	}
	w.logger.Debug(msg)
}

// allowListedEnvVars are the host variables a stage command may inherit.
// Everything else a command sees comes from its stage definition.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges the allow-listed host environment, the PATH prefix
// and the stage overrides, in that order of priority. The result is sorted.
func resolveEnvironment(sysEnv, pathPrefix []string, stageEnv map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)

	if len(pathPrefix) > 0 {
		prefix := strings.Join(pathPrefix, string(os.PathListSeparator))
		if sysPath := envMap["PATH"]; sysPath != "" {
			envMap["PATH"] = prefix + string(os.PathListSeparator) + sysPath
		} else {
			envMap["PATH"] = prefix
		}
	}

	for k, v := range stageEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	return envMap
}

// lookPath searches for an executable in the PATH of env rather than the host's.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
