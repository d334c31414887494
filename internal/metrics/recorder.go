package metrics

import "time"

// ResultLabel enumerates per-unit and manifest write results.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultSkipped  ResultLabel = "skipped"
	ResultCanceled ResultLabel = "canceled"
)

// CycleOutcomeLabel enumerates final build-cycle states.
type CycleOutcomeLabel string

const (
	CycleSuccess CycleOutcomeLabel = "success"
	CyclePartial CycleOutcomeLabel = "partial"
	CycleFailed  CycleOutcomeLabel = "failed"
)

// Recorder defines observability hooks for build cycles and their units.
// Implementations must be safe for concurrent use: unit methods are called
// from build workers.
type Recorder interface {
	ObserveCycleDuration(d time.Duration)
	IncCycleOutcome(outcome CycleOutcomeLabel)
	ObserveUnitDuration(kind string, d time.Duration)
	IncUnitResult(kind string, result ResultLabel)
	SetSelected(n int)
	IncManifestWrite(result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCycleDuration(time.Duration)        {}
func (NoopRecorder) IncCycleOutcome(CycleOutcomeLabel)         {}
func (NoopRecorder) ObserveUnitDuration(string, time.Duration) {}
func (NoopRecorder) IncUnitResult(string, ResultLabel)         {}
func (NoopRecorder) SetSelected(int)                           {}
func (NoopRecorder) IncManifestWrite(ResultLabel)              {}
