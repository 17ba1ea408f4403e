// Package scheduler runs one upload per file under a concurrency cap.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/storage"
	"golang.org/x/sync/semaphore"
)

const DefaultConcurrency = 4

type Scheduler struct {
	client storage.Client
	limit  int64
	logger logging.Logger
}

func New(client storage.Client, limit int, logger logging.Logger) *Scheduler {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scheduler{client: client, limit: int64(limit), logger: logger}
}

// Run uploads entries in order, never holding more than the configured
// number of uploads in flight. It returns identifier → reference for every
// upload that succeeded. After the first failure no further uploads start;
// those already running finish and the failure is returned as an
// *common.UploadError alongside the partial results.
func (s *Scheduler) Run(ctx context.Context, session storage.Session, entries []models.FileEntry, progress chan<- models.Progress) (map[string]string, error) {
	sem := semaphore.NewWeighted(s.limit)

	var (
		mu       sync.Mutex
		results  = make(map[string]string, len(entries))
		firstErr error
		failed   atomic.Bool
		inFlight atomic.Int64
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
		failed.Store(true)
	}

	for _, e := range entries {
		if failed.Load() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			fail(&common.UploadError{ID: e.ID, Path: e.Path, Err: err})
			break
		}
		// a slot may have been freed by the failing upload itself
		if failed.Load() {
			sem.Release(1)
			break
		}

		go func(e models.FileEntry) {
			defer sem.Release(1)

			n := inFlight.Add(1)
			s.logger.Debug(ctx, "upload started", "id", e.ID, "path", e.Path, "size", e.Size, "in_flight", n)

			ref, err := s.client.Upload(ctx, session, e.ID, e.Path, progress)
			inFlight.Add(-1)

			if err != nil {
				s.logger.Error(ctx, "upload failed", "id", e.ID, "path", e.Path, "err", err)
				fail(&common.UploadError{ID: e.ID, Path: e.Path, Err: err})
				return
			}

			s.logger.Debug(ctx, "upload finished", "id", e.ID, "path", e.Path)
			mu.Lock()
			results[e.ID] = ref
			mu.Unlock()
		}(e)
	}

	// taking every slot waits for the remaining uploads
	_ = sem.Acquire(context.Background(), s.limit)
	sem.Release(s.limit)

	return results, firstErr
}
