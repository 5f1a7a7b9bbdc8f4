//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"io"

	"github.com/cyber-dojo/commander/internal/config"
	"github.com/cyber-dojo/commander/internal/shell"
)

// Me is the name the CLI is invoked as.
const Me = "cyber-dojo"

// Env is the execution context handed to every subcommand.
// It replaces process-wide state: the runtime executor already knows whether debug mode is on.
type Env struct {
	// Config holds the loaded settings.
	Config *config.Config
	// Exec runs container runtime commands.
	Exec shell.Executor
	// Stdout receives help text and command output.
	Stdout io.Writer
	// Stderr receives FAILED lines.
	Stderr io.Writer
}
