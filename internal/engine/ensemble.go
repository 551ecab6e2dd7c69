package engine

import (
	"context"
	"sync"
)

// Factory builds a fresh engine for one ensemble member. Engines hold
// per-run controller and plant state, so members must not share one.
type Factory func(idx int) (*Engine, error)

// Ensemble runs independent drive simulations concurrently, one engine per
// member. Useful for sweeping references or parameters across runs.
type Ensemble struct {
	factory Factory
	numRuns int
}

func NewEnsemble(factory Factory, numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Recorder, error) {
	recs := make([]*Recorder, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			eng, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			recs[idx], errs[idx] = eng.Run(ctx)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return recs, nil
}
