package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/cyber-dojo/commander/internal/service/common"
	"github.com/cyber-dojo/commander/internal/service/server"
	"github.com/cyber-dojo/commander/internal/service/startpoint"
	"github.com/cyber-dojo/commander/internal/service/updater"
	"github.com/cyber-dojo/commander/internal/version"
)

var errRuntimeVersion = errors.New("runtime version unavailable")

// handler runs one subcommand with its raw arguments.
type handler func(ctx context.Context, env *common.Env, args []string) error

// newCommand binds h to a cobra command that parses its own arguments.
func newCommand(env *common.Env, use, short string, help []string, h handler) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		Long:               common.HelpText(help),
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h(cmd.Context(), env, args)
		},
	}
}

// attachCommands registers every subcommand on root.
func attachCommands(root *cobra.Command, env *common.Env) {
	group := newCommand(env, "start-point", "Manage cyber-dojo start-points.", startpoint.GroupHelp, startpoint.Group)
	group.AddCommand(
		newCommand(env, "inspect", "Display details of a start-point.", startpoint.InspectHelp, startpoint.Inspect),
		newCommand(env, "ls", "List start-points.", startpoint.ListHelp, startpoint.List),
		newCommand(env, "rm", "Remove a start-point.", startpoint.RemoveHelp, startpoint.Remove),
	)

	root.AddCommand(
		newCommand(env, "clean", "Remove dangling images and exited containers.", server.CleanHelp, server.Clean),
		newCommand(env, "down", "Bring down the server.", server.DownHelp, server.Down),
		newCommand(env, "logs", "Print the logs of a service.", server.LogsHelp, server.Logs),
		newCommand(env, "sh", "Shell into a service.", server.ShHelp, server.Sh),
		group,
		newCommand(env, "up", "Bring up the server.", server.UpHelp, server.Up),
		newCommand(env, "update", "Pull the latest images.", updater.Help, updater.Run),
	)

	version.AttachCobraVersionCommand(root, runtimeVersion(env))
}

// runtimeVersion asks the runtime for its client version.
func runtimeVersion(env *common.Env) version.RuntimeVersion {
	return func(ctx context.Context) (string, error) {
		res, err := env.Exec.Run(ctx, "version", "--format", "{{.Client.Version}}")
		if err != nil {
			return "", err
		}

		if !res.OK() {
			return "", errRuntimeVersion
		}

		return res.Output, nil
	}
}
