// Package marker persists the update marker, a small YAML file recording which
// process is currently running `cyber-dojo update` and since when.
package marker
