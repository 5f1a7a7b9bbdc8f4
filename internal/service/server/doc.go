// Package server implements the subcommands that drive the cyber-dojo server
// through the container runtime: up, down, logs, sh and clean.
//
// They hand the terminal to the runtime rather than capturing its output.
package server
