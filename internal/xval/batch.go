package xval

import (
	"context"
	"runtime"
	"sync"

	"github.com/ar-nair/kinval/internal/backend"
	"github.com/ar-nair/kinval/internal/reactor"
)

// Progress is emitted after each (condition, backend) run completes. Optional;
// a nil channel is ignored.
type Progress struct {
	ConditionIndex int
	Backend        string
	Err            error
}

// Batch runs every condition against every backend. Each run is an
// independent side-effect-free computation: the loaded mechanism is shared
// read-only and all scratch is per-run, so runs fan out across a bounded
// worker pool. Completion order never matters because results are keyed by
// (condition, backend) before assembly.
type Batch struct {
	backends   []backend.Backend
	conditions []*reactor.Condition
	workers    int

	progress chan<- Progress
}

func NewBatch(backends []backend.Backend, conditions []*reactor.Condition) *Batch {
	return &Batch{
		backends:   backends,
		conditions: conditions,
		workers:    runtime.NumCPU(),
	}
}

// SetWorkers bounds the worker pool; values below 1 are clamped to 1.
func (b *Batch) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	b.workers = n
}

// Notify sends a Progress event per completed run to ch.
func (b *Batch) Notify(ch chan<- Progress) { b.progress = ch }

// Run executes the batch and assembles one bundle per condition, in condition
// order. A failed run (typically an IntegrationError) lands in its own
// condition's bundle; sibling conditions are unaffected. Cancelling the
// context abandons unstarted runs; there are no side effects to clean up.
func (b *Batch) Run(ctx context.Context) []*Bundle {
	nc, nb := len(b.conditions), len(b.backends)

	type slot struct {
		res *backend.Result
		err error
	}
	slots := make([][]slot, nc)
	for i := range slots {
		slots[i] = make([]slot, nb)
	}

	type task struct{ ci, bi int }
	tasks := make(chan task)

	var wg sync.WaitGroup
	workers := b.workers
	if workers > nc*nb {
		workers = nc * nb
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tasks {
				res, err := b.backends[tk.bi].Run(ctx, b.conditions[tk.ci])
				slots[tk.ci][tk.bi] = slot{res: res, err: err}
				if b.progress != nil {
					b.progress <- Progress{
						ConditionIndex: tk.ci,
						Backend:        b.backends[tk.bi].Name(),
						Err:            err,
					}
				}
			}
		}()
	}

dispatch:
	for ci := 0; ci < nc; ci++ {
		for bi := 0; bi < nb; bi++ {
			select {
			case <-ctx.Done():
				break dispatch
			case tasks <- task{ci, bi}:
			}
		}
	}
	close(tasks)
	wg.Wait()

	bundles := make([]*Bundle, nc)
	for ci, cond := range b.conditions {
		results := make(map[string]*backend.Result)
		failures := make(map[string]error)
		for bi, be := range b.backends {
			s := slots[ci][bi]
			switch {
			case s.res != nil:
				results[be.Name()] = s.res
			case s.err != nil:
				failures[be.Name()] = s.err
			default:
				// run never started (cancelled batch)
				if err := ctx.Err(); err != nil {
					failures[be.Name()] = err
				}
			}
		}
		bundles[ci] = Assemble(cond, results, failures)
	}
	return bundles
}
