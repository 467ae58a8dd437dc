// Package logger provides structured logging for bilifollow.
//
// It wraps zerolog behind a small Logger interface with field helpers:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("mid", 42).Info("Enriched entry")
//	logger.WithError(err).Error("Export failed")
//
// Console output is written to stderr; when a log file is configured every
// event is also appended to that file. TestLogger captures messages for tests.
package logger
