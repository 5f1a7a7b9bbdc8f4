package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/cyber-dojo/commander/internal/config"
	"github.com/cyber-dojo/commander/internal/logger"
	"github.com/cyber-dojo/commander/internal/service/common"
	"github.com/cyber-dojo/commander/internal/shell"
	"github.com/cyber-dojo/commander/internal/version"
)

// debugFlag enables the runner's command echo. It is honoured only as the first token.
const debugFlag = "--debug"

// Help is the top-level help text.
var Help = []string{
	"",
	fmt.Sprintf("Use: %s [--debug] COMMAND", common.Me),
	fmt.Sprintf("     %s --help", common.Me),
	"",
	"Commands:",
	"  clean        Removes dangling images and exited containers",
	"  down         Brings down the server",
	"  logs         Prints the logs from a service container",
	"  sh           Shells into a service container",
	"  start-point  Manages cyber-dojo start-points",
	"  up           Brings up the server",
	"  update       Updates the server and language images to their latest versions",
	"  version      Displays the version",
	"",
	fmt.Sprintf("Run '%s COMMAND --help' for more information on a command.", common.Me),
}

// executorFunc builds the runtime executor for the configured binary.
type executorFunc func(binary string, debug bool) shell.Executor

// newRunner is the production executorFunc.
func newRunner(binary string, debug bool) shell.Executor {
	return shell.New(binary, shell.WithDebug(debug))
}

// Execute runs the cyber-dojo CLI and exits with its status.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newRunner)

	stop()
	logger.Sync()
	os.Exit(code)
}

// run executes one invocation and returns its exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, newExecutor executorFunc) int {
	debug := len(args) > 0 && args[0] == debugFlag
	if debug {
		args = args[1:]
	}

	cfg, err := config.Load(os.Getenv(config.SettingsEnv))
	if err != nil {
		return common.ExitCode(stderr, err)
	}

	configureLogging(ctx, cfg, debug)

	env := &common.Env{
		Config: cfg,
		Exec:   newExecutor(cfg.Runtime, debug),
		Stdout: stdout,
		Stderr: stderr,
	}

	root := newRootCommand(env)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	logger.DebugKV(ctx, "Dispatching", "version", version.Short(), "args", args, "runtime", cfg.Runtime)

	return common.ExitCode(stderr, root.ExecuteContext(ctx))
}

// configureLogging applies --debug, then the environment, then the settings file.
func configureLogging(ctx context.Context, cfg *config.Config, debug bool) {
	if debug {
		logger.SetLevel(zapcore.DebugLevel)
		return
	}

	for _, value := range []string{os.Getenv(config.LogLevelEnv), cfg.LogLevel} {
		if value == "" {
			continue
		}

		level, ok := logger.ParseLogLevel(value)
		if !ok {
			logger.Warnf(ctx, "Unknown log level %q, keeping %s", value, logger.Level())
			continue
		}

		logger.SetLevel(level)

		return
	}
}

// newRootCommand builds the command tree bound to env.
func newRootCommand(env *common.Env) *cobra.Command {
	root := &cobra.Command{
		Use:                common.Me,
		Short:              "Manage a cyber-dojo server and its start-points.",
		Long:               common.HelpText(Help),
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		CompletionOptions:  cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(_ *cobra.Command, args []string) error {
			if common.NeedsHelp(args, 0) {
				common.ShowHelp(env.Stdout, Help)
				return nil
			}

			return common.UnknownArgument(env.Stderr, args[0])
		},
	}

	// `help` is not a cyber-dojo command.
	root.SetHelpCommand(&cobra.Command{
		Use:                "help",
		Hidden:             true,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return common.UnknownArgument(env.Stderr, "help")
		},
	})

	root.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", cmd.Long)
	})

	attachCommands(root, env)

	return root
}
