// Package shell runs container runtime commands for the cyber-dojo CLI.
//
// A Runner captures a command's standard output and exit status (Run), or
// hands the terminal to it (Stream). Nothing is cached and there is no
// timeout: a hung runtime blocks the invocation. With debug enabled every
// command line, its status and its captured output are echoed as they happen.
package shell
