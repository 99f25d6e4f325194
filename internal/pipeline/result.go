package pipeline

import (
	"errors"
	"fmt"
)

// StageID names a pipeline stage.
type StageID string

const (
	StageLoadArticle         StageID = "load_article"
	StageFetchSerp           StageID = "fetch_serp"
	StageFetchLinkCandidates StageID = "fetch_link_candidates"
	StageFetchCompetitors    StageID = "fetch_competitors"
	StageGenerateBrief       StageID = "generate_brief"
	StageGenerateContent     StageID = "generate_content"
	StagePlanImages          StageID = "plan_images"
	StageGenerateImages      StageID = "generate_images"
	StageInsertImages        StageID = "insert_images"
)

// Severity classifies a stage outcome.
type Severity int

const (
	// SeverityNone means the stage succeeded.
	SeverityNone Severity = iota
	// SeverityDegraded means the stage fell back to reduced output.
	SeverityDegraded
	// SeverityFatal aborts the run.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "ok"
	case SeverityDegraded:
		return "degraded"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Result is what a stage hands back to the driver.
type Result struct {
	State    PipelineState
	Err      error
	Severity Severity
}

// OK wraps a successful state.
func OK(s PipelineState) Result {
	return Result{State: s}
}

// Degraded wraps a fallback state together with the cause.
func Degraded(s PipelineState, err error) Result {
	return Result{State: s, Err: err, Severity: SeverityDegraded}
}

// Fatal aborts the run with err.
func Fatal(s PipelineState, err error) Result {
	return Result{State: s, Err: err, Severity: SeverityFatal}
}

// ErrNotAdditive is reported when a stage drops or overwrites earlier output.
var ErrNotAdditive = errors.New("stage modified state it does not own")

// StageError identifies the stage that aborted a run.
type StageError struct {
	Stage StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
