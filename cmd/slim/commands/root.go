// Package commands implements the CLI commands for slim.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/slim/internal/app"
	"go.trai.ch/slim/internal/build"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// EnvPrefix is the prefix of environment variables overriding global flags.
const EnvPrefix = "SLIM"

// CLI represents the command line interface for slim.
type CLI struct {
	app     Application
	logs    LogConfigurer
	config  *viper.Viper
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, opts app.BuildOptions) (*domain.BuildResult, error)
	Key(ctx context.Context, settings app.Settings) (domain.CacheKey, error)
	CacheList(ctx context.Context, settings app.Settings) ([]domain.CacheEntry, error)
	CachePrune(ctx context.Context, opts app.PruneOptions) (int, error)
	History(ctx context.Context, settings app.Settings) ([]domain.BuildInfo, error)
}

// LogConfigurer is implemented by loggers whose format and level can change at runtime.
type LogConfigurer interface {
	SetJSON(enable bool)
	SetLevel(level slog.Level)
}

// New creates a new CLI instance with the given app.
// logs may be nil when the logger cannot be reconfigured.
func New(a Application, logs LogConfigurer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "slim",
		Short:         "Staged builds of minimal, unprivileged runtime images",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", ".", "Directory to search for "+domain.ConfigFileName)
	flags.String("cache-dir", "", "Dependency cache directory (default <project>/"+domain.DefaultCachePath()+")")
	flags.String("work-dir", "", "Stage workspace directory (default <project>/"+domain.DefaultWorkPath()+")")
	flags.IntP("parallelism", "j", 0, "Maximum number of stages run at once (default one per CPU)")
	flags.String("metrics-file", "", "Write build metrics in Prometheus textfile format")
	flags.String("log-format", "auto", "Log format: auto, pretty, or json")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	// Persistent flags are merged before the version flag so -v stays with --verbose.
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	c := &CLI{
		app:     a,
		logs:    logs,
		config:  v,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return c.configureLogging()
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newKeyCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newHistoryCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// settings resolves the global flags, letting SLIM_* variables fill unset ones.
func (c *CLI) settings() app.Settings {
	return app.Settings{
		Dir:         c.config.GetString("dir"),
		CacheDir:    c.config.GetString("cache-dir"),
		WorkDir:     c.config.GetString("work-dir"),
		Parallelism: c.config.GetInt("parallelism"),
		MetricsFile: c.config.GetString("metrics-file"),
	}
}

func (c *CLI) configureLogging() error {
	if c.logs == nil {
		return nil
	}

	switch format := c.config.GetString("log-format"); format {
	case "auto":
		c.logs.SetJSON(!term.IsTerminal(int(os.Stderr.Fd())))
	case "pretty":
		c.logs.SetJSON(false)
	case "json":
		c.logs.SetJSON(true)
	default:
		return zerr.With(domain.ErrInvalidConfig, "log-format", format)
	}

	if c.config.GetBool("verbose") {
		c.logs.SetLevel(slog.LevelDebug)
	}
	return nil
}
