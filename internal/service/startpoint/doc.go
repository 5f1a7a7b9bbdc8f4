// Package startpoint validates and inspects cyber-dojo start-point volumes.
//
// Validation is staged so the cheap checks run first: the volume must appear
// in the runtime's listing, then its inspect record must carry the start-point
// label. Only subcommands that need the manifest pay for the helper container
// that reads it.
package startpoint
