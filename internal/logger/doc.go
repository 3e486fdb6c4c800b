// Package logger wraps zap with a global sugared logger, a console encoder
// suited to CLI output, and context carriage so every deploy step logs
// through the scoped logger it receives (ToContext/FromContext/WithName).
// Convenience helpers (Infof, WarnKV, ErrorKV, ...) cover the common forms.
package logger
