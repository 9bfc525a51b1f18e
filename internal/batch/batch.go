// Package batch reads many sheets concurrently.
//
// Every input is read independently on a bounded pool of workers. Results come
// back in input order, and a sheet that fails is reported in its own slot
// without stopping the others.
package batch

import (
	"context"
	"errors"
	"image"
	"log"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
)

// Item is one sheet to read.
type Item struct {
	Name string
	Load func() (image.Image, error)
}

// Result is the outcome for one item: exactly one of Reading and Rejection
// is set.
type Result struct {
	Name      string
	Reading   *omr.Reading
	Rejection *omr.Rejection
	Err       error
}

// Reader is the part of *omr.Reader a batch needs.
type Reader interface {
	Read(img image.Image) (*omr.Reading, error)
}

// Runner reads batches with a fixed worker count.
type Runner struct {
	reader  Reader
	workers int

	// OnResult, if set, is called from the worker goroutine as each item
	// finishes. It must be safe for concurrent use.
	OnResult func(index int, r Result)
}

// DefaultWorkers returns the number of logical CPUs, falling back to
// runtime.NumCPU when the host does not report it.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// NewRunner returns a runner using reader. workers < 1 selects
// DefaultWorkers.
func NewRunner(reader Reader, workers int) *Runner {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	return &Runner{reader: reader, workers: workers}
}

// Workers returns the configured pool size.
func (r *Runner) Workers() int { return r.workers }

// Run reads every item and returns one result per item, in order.
//
// Cancelling ctx stops new items from being started; items that never ran
// are returned with ctx's error. Run itself only fails with that error.
func (r *Runner) Run(ctx context.Context, items []Item) ([]Result, error) {
	results := make([]Result, len(items))
	for i, it := range items {
		results[i].Name = it.Name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	// Go blocks while every worker is busy, so the context is checked before
	// each dispatch.
	for i := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = r.readOne(items[i])
			if r.OnResult != nil {
				r.OnResult(i, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Reading == nil && results[i].Rejection == nil {
				results[i].Err = err
				results[i].Rejection = omr.RejectionOf(err)
			}
		}
		return results, err
	}
	return results, nil
}

func (r *Runner) readOne(it Item) Result {
	res := Result{Name: it.Name}

	img, err := it.Load()
	if err != nil {
		var de *imaging.DecodeError
		if !errors.As(err, &de) {
			err = &omr.InputError{Source: it.Name, Err: err}
		}
		return reject(res, err)
	}

	reading, err := r.reader.Read(img)
	if err != nil {
		return reject(res, err)
	}
	res.Reading = reading
	return res
}

func reject(res Result, err error) Result {
	res.Err = err
	res.Rejection = omr.RejectionOf(err)
	log.Printf("Rejected %s: %s", res.Name, res.Rejection.Message)
	return res
}
