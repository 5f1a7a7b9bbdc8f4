// Package updater implements `cyber-dojo update`: it pulls the latest server
// images, re-pulls every language image already present locally and, when a
// download URL is configured, replaces the CLI binary itself.
//
// Pulls run one after another on the terminal so their progress is visible.
// Their exit statuses are not checked; the runtime reports its own failures.
package updater
