package fetch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/models"
)

// fakeFetcher serves a fixed resource and moves bytes by writing `first`
// on Fetch and appending `chunk` on each Resume.
type fakeFetcher struct {
	mu       sync.Mutex
	resource Resource
	reqErr   map[string]error
	first    []byte
	chunk    []byte
	resumes  int
	urls     []string
}

func (f *fakeFetcher) Request(task models.TransferTask) (Resource, error) {
	if err := f.reqErr[task.DatasetID]; err != nil {
		return Resource{}, err
	}
	return f.resource, nil
}

func (f *fakeFetcher) Fetch(url, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return os.WriteFile(dest, f.first, 0o644)
}

func (f *fakeFetcher) Resume(url, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	fh, err := os.OpenFile(dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = fh.Write(f.chunk)
	return err
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls [][2]string
	err   error
}

func (a *fakeArchiver) Process(staged, destDir string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, [2]string{staged, destDir})
	return a.err
}

func testTask(t *testing.T) models.TransferTask {
	t.Helper()
	return models.TransferTask{
		DatasetID:   "sis-extreme-indices-cmip6",
		StagingPath: filepath.Join(t.TempDir(), "archive.tgz"),
		DestDir:     t.TempDir(),
	}
}

func TestRunCompleteTransfer(t *testing.T) {
	content := []byte("full-archive")
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://cds/cache/archive.tgz", Size: int64(len(content))},
		first:    content,
	}
	archiver := &fakeArchiver{}
	orch := NewOrchestrator(fetcher, archiver, config.Config{Workers: 2, Retry: 3})

	task := testTask(t)
	results := orch.Run(context.Background(), []models.TransferTask{task})
	require.Len(t, results, 1)

	assert.Equal(t, StatePostProcessed, results[0].State)
	assert.NoError(t, results[0].Err)
	assert.Zero(t, fetcher.resumes)
	require.Len(t, archiver.calls, 1)
	assert.Equal(t, [2]string{task.StagingPath, task.DestDir}, archiver.calls[0])
}

func TestRunResumesUntilSizeMatches(t *testing.T) {
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://cds/cache/archive.tgz", Size: 8},
		first:    []byte("1234"), // half on the first pass
		chunk:    []byte("56"),   // a quarter per resume
	}
	orch := NewOrchestrator(fetcher, &fakeArchiver{}, config.Config{Workers: 1, Retry: 5})

	results := orch.Run(context.Background(), []models.TransferTask{testTask(t)})
	require.Len(t, results, 1)
	assert.Equal(t, StatePostProcessed, results[0].State)
	assert.Equal(t, 2, fetcher.resumes)
}

func TestRunStopsAtRetryCeiling(t *testing.T) {
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://cds/cache/archive.tgz", Size: 100},
		first:    []byte("short"),
	}
	archiver := &fakeArchiver{}
	orch := NewOrchestrator(fetcher, archiver, config.Config{Workers: 1, Retry: 3})

	results := orch.Run(context.Background(), []models.TransferTask{testTask(t)})
	require.Len(t, results, 1)

	assert.Equal(t, StateFailed, results[0].State)
	assert.ErrorContains(t, results[0].Err, "3 resume attempts")
	assert.Equal(t, 3, fetcher.resumes)
	// post-processing never runs on an incomplete file
	assert.Empty(t, archiver.calls)
}

func TestRunRequestFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		reqErr: map[string]error{"sis-extreme-indices-cmip6": assert.AnError},
	}
	orch := NewOrchestrator(fetcher, &fakeArchiver{}, config.Config{Workers: 1, Retry: 3})

	results := orch.Run(context.Background(), []models.TransferTask{testTask(t)})
	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
	assert.ErrorIs(t, results[0].Err, assert.AnError)
	assert.Empty(t, fetcher.urls)
}

func TestRunArchiverFailureKeepsTransfer(t *testing.T) {
	content := []byte("full-archive")
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://cds/cache/archive.tgz", Size: int64(len(content))},
		first:    content,
	}
	orch := NewOrchestrator(fetcher, &fakeArchiver{err: assert.AnError},
		config.Config{Workers: 1, Retry: 3})

	task := testTask(t)
	results := orch.Run(context.Background(), []models.TransferTask{task})
	require.Len(t, results, 1)

	assert.Equal(t, StateTransferred, results[0].State)
	assert.ErrorIs(t, results[0].Err, assert.AnError)
	// the staged file stays put for inspection
	assert.FileExists(t, task.StagingPath)
}

func TestRunSwapsSlowEndpoint(t *testing.T) {
	content := []byte("full-archive")
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://136.156.152.1/cache/archive.tgz", Size: int64(len(content))},
		first:    content,
	}
	orch := NewOrchestrator(fetcher, &fakeArchiver{}, config.Config{
		Workers: 1, Retry: 3, SlowEndpoints: []string{"136.156.152.1"},
	})

	task := testTask(t)
	task.Endpoint = "110.0.0.1"
	results := orch.Run(context.Background(), []models.TransferTask{task})
	require.Len(t, results, 1)

	assert.Equal(t, StatePostProcessed, results[0].State)
	require.Len(t, fetcher.urls, 1)
	assert.Equal(t, "http://110.0.0.1/cache/archive.tgz", fetcher.urls[0])
}

func TestRunBatchSurvivesOneFailure(t *testing.T) {
	content := []byte("full-archive")
	fetcher := &fakeFetcher{
		resource: Resource{Location: "http://cds/cache/archive.tgz", Size: int64(len(content))},
		first:    content,
		reqErr:   map[string]error{"broken-dataset": assert.AnError},
	}
	orch := NewOrchestrator(fetcher, &fakeArchiver{}, config.Config{Workers: 2, Retry: 3})

	bad := testTask(t)
	bad.DatasetID = "broken-dataset"
	good := testTask(t)
	results := orch.Run(context.Background(), []models.TransferTask{bad, good})
	require.Len(t, results, 2)

	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, StatePostProcessed, results[1].State)
	assert.Equal(t, "broken-dataset", results[0].Task.DatasetID)
}
