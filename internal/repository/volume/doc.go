// Package volume queries the container runtime's named volumes.
//
// Nothing is cached: every call asks the runtime, so the answers always
// reflect the runtime's current state.
package volume
