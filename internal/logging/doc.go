// Package logging builds the slog logger used by the coven-chat binaries.
package logging
