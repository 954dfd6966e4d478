package labelmesh

import (
	"log/slog"

	"github.com/gogpu/labelmesh/internal/logger"
)

// SetLogger configures the logger for labelmesh and all its sub-packages.
// By default, labelmesh produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by labelmesh:
//   - [slog.LevelDebug]: internal diagnostics (dirty ranges, batches, uploads)
//   - [slog.LevelInfo]: scene lifecycle (fonts registered, scene closed)
//   - [slog.LevelWarn]: non-fatal issues (atlas full, failed font loads)
//
// Example:
//
//	labelmesh.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logger.Set(l)
}

// Logger returns the current logger used by labelmesh.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logger.L()
}
