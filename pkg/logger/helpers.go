package logger

// LogRequest logs the outcome of one HTTP attempt against the API
func LogRequest(l Logger, url string, attempt, statusCode int, durationMs int64) {
	fields := map[string]interface{}{
		"url":         url,
		"attempt":     attempt,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode == 429:
		l.WarnWithFields("HTTP request rate limited", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	default:
		l.WarnWithFields("HTTP request failed", fields)
	}
}

// LogRateLimit logs a lowered concurrency ceiling
func LogRateLimit(l Logger, url string, newLimit int) {
	l.WithFields(map[string]interface{}{
		"url":       url,
		"new_limit": newLimit,
		"action":    "rate_limited",
	}).Warn("Rate limit reached, lowering concurrency")
}

// LogPageProgress logs pagination progress
func LogPageProgress(l Logger, page, totalPages, fetched int) {
	l.InfoWithFields("Fetched following page", map[string]interface{}{
		"page":        page,
		"total_pages": totalPages,
		"fetched":     fetched,
	})
}

// LogEnrichProgress logs enrichment progress
func LogEnrichProgress(l Logger, done, total, skipped int) {
	l.DebugWithFields("Enrichment progress", map[string]interface{}{
		"done":    done,
		"total":   total,
		"skipped": skipped,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(msg string)                                          {}
func (n nopLogger) Info(msg string)                                           {}
func (n nopLogger) Warn(msg string)                                           {}
func (n nopLogger) Error(msg string)                                          {}
func (n nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n nopLogger) WithError(err error) Logger                                { return n }
func (n nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
