// Package logger builds configured log/slog loggers (level, json/text
// format, static service attributes) for the guard and rate limiter. The
// guard uses it to log internal errors with full detail server-side while
// callers only ever see generic messages.
package logger
