package logger

import "log/slog"

// Component-specific logger functions

// DB returns a logger for catalog scanning and connection handling
func DB() *slog.Logger {
	return root.With("component", "db")
}

// Graph returns a logger for graph construction, inference and ordering
func Graph() *slog.Logger {
	return root.With("component", "graph")
}

// Config returns a logger for configuration loading
func Config() *slog.Logger {
	return root.With("component", "config")
}

// CLI returns a logger for CLI operations
func CLI() *slog.Logger {
	return root.With("component", "cli")
}
