package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/models"
)

// State is a task's position in its lifecycle. Once dispatched a task
// runs to a terminal state; there is no cancellation.
type State string

const (
	StateBuilt         State = "built"
	StateDispatched    State = "dispatched"
	StateTransferred   State = "transferred"
	StatePostProcessed State = "postprocessed"
	StateFailed        State = "failed"
)

// Result is the per-task outcome of an orchestration run. Err may be set
// on a Transferred result when only post-processing failed; the staged
// file is left in place for manual inspection.
type Result struct {
	Task  models.TransferTask
	State State
	Err   error
}

// Orchestrator fans transfer tasks out across a bounded worker pool.
// Workers share no mutable state; the catalog is not touched here.
type Orchestrator struct {
	fetcher  Fetcher
	archiver Archiver
	workers  int64
	retry    int
	slow     []string
}

func NewOrchestrator(fetcher Fetcher, archiver Archiver, cfg config.Config) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		archiver: archiver,
		workers:  int64(cfg.Workers),
		retry:    cfg.Retry,
		slow:     cfg.SlowEndpoints,
	}
}

// Run dispatches tasks in order over the pool and returns one result per
// task, index-aligned with the input. Completion order is unordered and
// one failing task never aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, tasks []models.TransferTask) []Result {
	sem := semaphore.NewWeighted(o.workers)
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Task: task, State: StateBuilt, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, task models.TransferTask) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = o.process(task)
		}(i, task)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) process(task models.TransferTask) Result {
	res := Result{Task: task, State: StateDispatched}

	resource, err := o.fetcher.Request(task)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("remote request for %s: %w", task.StagingPath, err)
		return res
	}

	url := resource.Location
	if task.Endpoint != "" {
		for _, slow := range o.slow {
			if strings.Contains(url, slow) {
				url = strings.Replace(url, slow, task.Endpoint, 1)
			}
		}
	}

	log.Printf("Downloading %s to %s", url, task.StagingPath)
	if err := o.fetcher.Fetch(url, task.StagingPath); err != nil {
		log.Printf("Initial transfer of %s: %v", task.StagingPath, err)
	}
	if err := o.settle(url, task.StagingPath, resource.Size); err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}
	res.State = StateTransferred

	if err := o.archiver.Process(task.StagingPath, task.DestDir); err != nil {
		// transfer stands; the staged file stays put for inspection
		res.Err = fmt.Errorf("post-processing %s: %w", task.StagingPath, err)
		return res
	}
	res.State = StatePostProcessed
	return res
}

// settle resumes the transfer until the staged file reaches the expected
// size or the retry ceiling is hit. A partial file is not cleaned up.
func (o *Orchestrator) settle(url, dest string, want int64) error {
	if fileSize(dest) == want {
		return nil
	}
	for n := 0; n < o.retry; n++ {
		log.Printf("Resuming download %d of %s", n+1, dest)
		if err := o.fetcher.Resume(url, dest); err != nil {
			log.Printf("Resume %d of %s: %v", n+1, dest, err)
		}
		if fileSize(dest) == want {
			return nil
		}
	}
	return fmt.Errorf("transfer of %s incomplete after %d resume attempts: have %d bytes, want %d",
		dest, o.retry, fileSize(dest), want)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
