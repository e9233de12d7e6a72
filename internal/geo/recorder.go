package geo

import "time"

// Recorder receives write-only events about lookups and batches.
type Recorder interface {
	LookupCompleted(kind OutcomeKind, elapsed time.Duration)
	BatchCompleted(status BatchStatus, size int)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) LookupCompleted(OutcomeKind, time.Duration) {}

func (NopRecorder) BatchCompleted(BatchStatus, int) {}
