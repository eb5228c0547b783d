// Package logger provides a structured logging interface for albumocr.
//
// It wraps zerolog with a small interface so pipeline stages can be handed a
// Logger explicitly and tests can substitute TestLogger or NewNopLogger.
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.GetLogger().WithField("album", cfg.Album.URL).Info("run started")
//
// Console output is written to stderr; the per-item report printed by the ui
// package stays on stdout. With logging.file set, lines are also appended to
// that file as JSON.
package logger
