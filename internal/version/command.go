package version

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyber-dojo/commander/internal/service/common"
)

// unknownRuntime is printed when the runtime version cannot be determined.
const unknownRuntime = "unknown"

// RuntimeVersion reports the client version of the container runtime.
type RuntimeVersion func(ctx context.Context) (string, error)

// Help is the help text of `version`.
var Help = []string{
	"",
	fmt.Sprintf("Use: %s version", common.Me),
	"",
	"Prints the cyber-dojo CLI build information and the container runtime client version",
}

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// It prints build info followed by the runtime client version.
func AttachCobraVersionCommand(root *cobra.Command, runtime RuntimeVersion) {
	root.AddCommand(&cobra.Command{
		Use:                "version",
		Short:              "Print version information.",
		Long:               common.HelpText(Help),
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if common.HasHelp(args) {
				common.ShowHelp(out, Help)
				return nil
			}

			if err := common.RejectExtra(cmd.ErrOrStderr(), args); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, Full())
			_, _ = fmt.Fprintf(out, "runtime client version: %s\n", runtimeVersion(cmd.Context(), runtime))

			return nil
		},
	})
}

func runtimeVersion(ctx context.Context, runtime RuntimeVersion) string {
	if runtime == nil {
		return unknownRuntime
	}

	if ctx == nil {
		ctx = context.Background()
	}

	v, err := runtime(ctx)
	if err != nil || strings.TrimSpace(v) == "" {
		return unknownRuntime
	}

	return strings.TrimSpace(v)
}
