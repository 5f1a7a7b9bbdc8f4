// Package logger wraps zap for the cyber-dojo CLI:
//   - a global sugared logger writing console lines to standard error,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and adjustment,
//   - a few leveled helpers (Debugf, InfoKV, WarnKV, ...).
//
// Standard output belongs to the commands being run, so nothing here ever
// writes to it.
package logger
