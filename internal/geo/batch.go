package geo

import (
	"net/netip"

	"golang.org/x/sync/errgroup"
)

// BatchStatus classifies a batch by how many of its addresses succeeded.
type BatchStatus int

const (
	BatchNoInput BatchStatus = iota
	BatchAllSucceeded
	BatchAllFailed
	BatchPartialSuccess
)

func (s BatchStatus) String() string {
	switch s {
	case BatchNoInput:
		return "no_input"
	case BatchAllSucceeded:
		return "all_succeeded"
	case BatchAllFailed:
		return "all_failed"
	case BatchPartialSuccess:
		return "partial_success"
	default:
		return "unknown"
	}
}

// BatchResult holds one Result per input address, in input order.
type BatchResult struct {
	Results []Result
	Status  BatchStatus
}

// Successes returns the geolocated results in input order.
func (b BatchResult) Successes() []Result {
	out := make([]Result, 0, len(b.Results))
	for _, r := range b.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failures returns the failure of every failed address in input order.
func (b BatchResult) Failures() []Failure {
	out := make([]Failure, 0, len(b.Results))
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, *r.Failure)
		}
	}
	return out
}

// Orchestrator runs lookups over a list of addresses.
type Orchestrator struct {
	service     *Service
	recorder    Recorder
	concurrency int
}

// NewOrchestrator returns an Orchestrator running at most concurrency
// lookups at a time. Values below one run the batch sequentially.
func NewOrchestrator(service *Service, recorder Recorder, concurrency int) *Orchestrator {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{service: service, recorder: recorder, concurrency: concurrency}
}

// RunBatch geolocates every address. Each address yields exactly one Result
// at its input index; one address failing never affects another.
func (o *Orchestrator) RunBatch(addresses []string) BatchResult {
	results := make([]Result, len(addresses))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, raw := range addresses {
		g.Go(func() error {
			results[i] = o.resolveOne(raw)
			return nil
		})
	}
	_ = g.Wait()

	batch := BatchResult{Results: results, Status: classifyBatch(results)}
	o.recorder.BatchCompleted(batch.Status, len(addresses))
	return batch
}

func (o *Orchestrator) resolveOne(raw string) Result {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return Result{
			Address: raw,
			Failure: &Failure{Address: raw, Kind: FailureInvalidAddress, Message: err.Error()},
		}
	}

	out := o.service.LookupCountry(addr)
	if out.Kind == OutcomeFound {
		return Result{Address: raw, Country: out.Country}
	}
	return Result{
		Address: raw,
		Failure: &Failure{Address: raw, Kind: out.failureKind(), Message: out.Message},
	}
}

func classifyBatch(results []Result) BatchStatus {
	if len(results) == 0 {
		return BatchNoInput
	}
	var failed int
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	switch failed {
	case 0:
		return BatchAllSucceeded
	case len(results):
		return BatchAllFailed
	default:
		return BatchPartialSuccess
	}
}
