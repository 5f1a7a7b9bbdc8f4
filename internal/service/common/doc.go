// Package common holds what every cyber-dojo subcommand shares: the execution
// context (Env), the argument conventions (help, unknown arguments, NAME=VALUE
// options) and the error that carries an exit status back to main.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
