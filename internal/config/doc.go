// Package config defines the settings of the cyber-dojo CLI and provides
// helpers to load, validate and save them in YAML format.
//
// Every key is optional; Validate fills in the values the CLI has always used
// (docker as the runtime, the cyberdojo hub, the ten server service images).
package config
