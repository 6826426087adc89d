// Package logger builds the application's slog.Logger. Production emits
// JSON, staging plain key=value text, and development colorized output.
package logger
