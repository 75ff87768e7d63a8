package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// LoggingErrorHandler surfaces job failures in the application log so a
// stuck reconciliation or reindex does not fail silently.
type LoggingErrorHandler struct {
	Logger *slog.Logger
}

func NewLoggingErrorHandler(logger *slog.Logger) *LoggingErrorHandler {
	return &LoggingErrorHandler{Logger: logger}
}

func (h *LoggingErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.Error("job failed", "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", err)
	}
	return nil
}

func (h *LoggingErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	if h.Logger != nil {
		h.Logger.Error("job panicked", "job_id", job.ID, "kind", job.Kind, "attempt", job.Attempt, "error", fmt.Errorf("panic: %v", panicVal), "trace", trace)
	}
	return nil
}
