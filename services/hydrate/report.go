package hydrate

import "time"

// WorkerReport tallies the outcomes of one worker slice.
type WorkerReport struct {
	Processed int64
	Success   int64
	NotFound  int64
	Failure   int64
	CacheHits int64
}

// merge folds another slice's tallies into this one, producing the
// page-level aggregate.
func (w *WorkerReport) merge(o WorkerReport) {
	w.Processed += o.Processed
	w.Success += o.Success
	w.NotFound += o.NotFound
	w.Failure += o.Failure
	w.CacheHits += o.CacheHits
}

// RunReport aggregates every page of a pipeline run.
type RunReport struct {
	Pages     int
	Processed int64
	Success   int64
	NotFound  int64
	Failure   int64
	CacheHits int64
	Duration  time.Duration
}

func (r *RunReport) add(w WorkerReport) {
	r.Processed += w.Processed
	r.Success += w.Success
	r.NotFound += w.NotFound
	r.Failure += w.Failure
	r.CacheHits += w.CacheHits
}
