package xlog

import "log/slog"

// Default returns the package default logger wrapped in RedactingHandler,
// used by any protocol component constructed without an explicit logger.
func Default() *slog.Logger {
	return slog.New(NewRedactingHandler(slog.Default().Handler()))
}

// OrDefault returns l if non-nil, otherwise Default().
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Default()
}

// WithPool returns a logger with a runspace-pool-id attribute attached.
func WithPool(l *slog.Logger, poolID string) *slog.Logger {
	return l.With(slog.String("pool_id", poolID))
}

// WithPipeline returns a logger with a pipeline-id attribute attached.
func WithPipeline(l *slog.Logger, pipelineID string) *slog.Logger {
	return l.With(slog.String("pipeline_id", pipelineID))
}
