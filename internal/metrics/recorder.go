package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Build modes as reported in build_mode_total.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations must tolerate calls from concurrent render workers.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildMode(mode string)
	AddPagesRendered(n int)
	AddOutputsDeleted(n int)
	AddAssetsPublished(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildMode(string)                        {}
func (NoopRecorder) AddPagesRendered(int)                       {}
func (NoopRecorder) AddOutputsDeleted(int)                      {}
func (NoopRecorder) AddAssetsPublished(int)                     {}
