//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"io"
	"strings"
)

// HelpFlag requests a subcommand's help text.
const HelpFlag = "--help"

// NeedsHelp reports whether a required positional argument is absent or is HelpFlag.
func NeedsHelp(args []string, i int) bool {
	return i >= len(args) || args[i] == HelpFlag
}

// HasHelp reports whether any argument is HelpFlag.
func HasHelp(args []string) bool {
	for _, arg := range args {
		if arg == HelpFlag {
			return true
		}
	}

	return false
}

// RejectExtra reports every extra argument on its own FAILED line.
// Only the presence of the first one decides the outcome, as it always has.
func RejectExtra(w io.Writer, extra []string) error {
	for _, arg := range extra {
		_, _ = fmt.Fprintf(w, "FAILED: unknown argument [%s]\n", arg)
	}

	if len(extra) > 0 {
		return Failed()
	}

	return nil
}

// UnknownArgument reports a single unrecognised token.
func UnknownArgument(w io.Writer, arg string) error {
	return Fail(w, "unknown argument [%s]", arg)
}

// GetArg returns the value of the single --name=VALUE argument.
// Zero or several occurrences yield ok=false. Only the text between the first
// and second '=' is the value.
func GetArg(name string, args []string) (string, bool) {
	var values []string

	for _, arg := range args {
		if !strings.HasPrefix(arg, name+"=") {
			continue
		}

		parts := strings.Split(arg, "=")
		values = append(values, parts[1])
	}

	if len(values) != 1 {
		return "", false
	}

	return values[0], true
}

// HelpText joins help lines the way ShowHelp prints them, without the trailing blank line.
func HelpText(lines []string) string {
	return strings.Join(lines, "\n")
}

// ShowHelp prints each help line followed by a blank line.
func ShowHelp(w io.Writer, lines []string) {
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}

	_, _ = fmt.Fprintln(w)
}
