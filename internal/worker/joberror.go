package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/scriba/internal/conversion"
	"github.com/ternarybob/scriba/internal/limits"
	"github.com/ternarybob/scriba/internal/pipeline"
)

// JobError carries two views of one failure: DB is the concise
// user-facing message persisted into the document row, Log is the
// detailed operator-facing message.
type JobError struct {
	DB  string
	Log string
	Err error
}

func (e *JobError) Error() string {
	if e.Log != "" {
		return e.Log
	}
	return e.DB
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// jobErrorf wraps a low-level error with a user-facing message; the
// detailed side keeps the cause
func jobErrorf(err error, format string, args ...interface{}) *JobError {
	db := fmt.Sprintf(format, args...)
	jobErr := &JobError{DB: db, Err: err}
	if err != nil {
		jobErr.Log = db + ": " + err.Error()
	}
	return jobErr
}

// dbMessage picks the concise failure text for the document row
func dbMessage(err error) string {
	var jobErr *JobError
	if errors.As(err, &jobErr) && jobErr.DB != "" {
		return jobErr.DB
	}
	if limitErr, ok := limits.IsLimitError(err); ok {
		return limitErr.Message
	}
	var convErr *conversion.ConversionError
	if errors.As(err, &convErr) {
		return fmt.Sprintf("converter %s failed with exit code %d", convErr.Converter, convErr.ExitCode)
	}
	if errors.Is(err, pipeline.ErrStepInvariant) || errors.Is(err, pipeline.ErrUnknownStep) {
		return err.Error()
	}
	return "unexpected error during document generation"
}

// workerLog accumulates the timestamped processing report persisted
// into the document row on both terminal transitions
type workerLog struct {
	lines []string
}

func (w *workerLog) add(format string, args ...interface{}) {
	line := time.Now().UTC().Format("2006-01-02 15:04:05") + " " + fmt.Sprintf(format, args...)
	w.lines = append(w.lines, line)
}

func (w *workerLog) String() string {
	return strings.Join(w.lines, "\n")
}
