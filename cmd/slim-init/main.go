// Package main is the entry point of slim-init, the supervisor that runs as
// PID 1 of a runtime image. It starts one command, relays signals to it,
// reaps orphaned processes and exits with the command's status.
package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.trai.ch/slim/internal/adapters/logger"
	"go.trai.ch/slim/internal/adapters/proc"
	"go.trai.ch/slim/internal/build"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/slim/internal/engine/supervisor"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, proc.NewTable()))
}

// run returns the status the supervisor exits with. Nothing is ever written to stdout,
// which belongs to the supervised command.
func run(args []string, stderr io.Writer, procs ports.ProcessTable) int {
	log := logger.New()
	if l, ok := log.(*logger.Logger); ok {
		l.SetOutput(stderr)
		l.SetLevel(slog.LevelWarn)
	}

	status := domain.ExitUsage
	cmd := &cobra.Command{
		Use:           "slim-init [flags] [--] command [args...]",
		Short:         "Minimal init supervisor for runtime images",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, argv []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			pgroup, _ := cmd.Flags().GetBool("pgroup")
			if l, ok := log.(*logger.Logger); ok && verbose {
				l.SetLevel(slog.LevelDebug)
			}

			// Subscribe before spawning so an early exit or signal is queued, not lost.
			events := make(chan os.Signal, 64)
			signal.Notify(events, notifySet()...)
			defer signal.Stop(events)

			if os.Getpid() != 1 {
				if err := procs.BecomeSubreaper(); err != nil {
					log.Warn("orphans will not be reaped: " + err.Error())
				}
			}

			sup := supervisor.New(procs, log, supervisor.Options{
				ProcessGroup: pgroup,
				Stdin:        os.Stdin,
				Stdout:       os.Stdout,
				Stderr:       os.Stderr,
			})

			code, err := sup.Run(argv, events)
			status = code
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().Bool("pgroup", false, "Start the command in its own process group and signal the whole group")
	cmd.Flags().BoolP("verbose", "v", false, "Log supervisor events to stderr")

	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	executed := false
	cmd.PreRun = func(*cobra.Command, []string) { executed = true }

	if err := cmd.Execute(); err != nil {
		log.Error(err)
		if !executed {
			return domain.ExitUsage
		}
		return status
	}
	if !executed {
		// --help and --version
		return 0
	}
	return status
}

func notifySet() []os.Signal {
	set := make([]os.Signal, 0, len(domain.ForwardedSignals)+1)
	for _, sig := range domain.ForwardedSignals {
		set = append(set, sig)
	}
	return append(set, syscall.SIGCHLD)
}
