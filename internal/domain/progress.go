package domain

import "github.com/rs/zerolog"

// Stage identifies a phase of document processing for progress reporting.
type Stage string

const (
	StageInitialization Stage = "initialization"
	StageLoading        Stage = "loading"
	StagePreprocessing  Stage = "preprocessing"
	StageFinalization   Stage = "finalization"
	StageCompleted      Stage = "completed"
)

// ProgressInfo is a point-in-time progress snapshot. CurrentPage and
// TotalPages are zero when the stage has no page granularity.
type ProgressInfo struct {
	Stage       Stage
	CurrentPage int
	TotalPages  int
	Message     string
}

// Reporter receives progress updates during long-running operations.
// Implementations must be safe for concurrent use.
type Reporter interface {
	ReportProgress(operationName string, info ProgressInfo)
}

// LogReporter is a Reporter that writes progress to a logger.
type LogReporter struct {
	Log zerolog.Logger
}

func (r LogReporter) ReportProgress(operationName string, info ProgressInfo) {
	ev := r.Log.Info().
		Str("operation", operationName).
		Str("stage", string(info.Stage))
	if info.TotalPages > 0 {
		ev = ev.Int("current_page", info.CurrentPage).Int("total_pages", info.TotalPages)
	}
	ev.Msg(info.Message)
}
