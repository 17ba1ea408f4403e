// Package uploader orchestrates one run: discovery, session acquisition,
// bounded concurrent uploads with aggregated progress, and the final report.
package uploader

import (
	"context"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/discovery"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dmitrijs2005/gofileup/internal/progress"
	"github.com/dmitrijs2005/gofileup/internal/report"
	"github.com/dmitrijs2005/gofileup/internal/scheduler"
	"github.com/dmitrijs2005/gofileup/internal/storage"
)

const finishLabel = "Uploaded"

// Outcome describes a finished or aborted run. On failure Results holds
// whatever completed before the abort and Lines is empty.
type Outcome struct {
	Backend     string
	Entries     map[string]models.FileEntry
	Results     map[string]string
	TotalSize   int64
	Transferred int64
	Lines       []report.Line
}

type Uploader struct {
	client      storage.Client
	display     progress.Display
	discoverer  *discovery.Discoverer
	concurrency int
	logger      logging.Logger
}

func New(client storage.Client, display progress.Display, discoverer *discovery.Discoverer, concurrency int, logger logging.Logger) *Uploader {
	if logger == nil {
		logger = logging.Discard()
	}
	if discoverer == nil {
		discoverer = discovery.NewDiscoverer(discovery.WithLogger(logger))
	}
	return &Uploader{
		client:      client,
		display:     display,
		discoverer:  discoverer,
		concurrency: concurrency,
		logger:      logger,
	}
}

// UploadDir uploads every eligible file under root. A tree without eligible
// files is a successful run with no lines and no session.
func (u *Uploader) UploadDir(ctx context.Context, root string) (*Outcome, error) {
	res, err := u.discoverer.Discover(ctx, root)
	if err != nil {
		return nil, err
	}
	u.logger.Info(ctx, "discovery finished", "path", root, "files", len(res.Entries), "size", res.TotalSize)

	if len(res.Entries) == 0 {
		u.logger.Warn(ctx, "nothing to upload", "path", root)
		return &Outcome{Backend: u.client.Name(), Entries: res.Entries, Results: map[string]string{}}, nil
	}

	return u.run(ctx, res, func(ctx context.Context, sess storage.Session, sender chan<- models.Progress) (map[string]string, error) {
		return scheduler.New(u.client, u.concurrency, u.logger).Run(ctx, sess, res.Sorted(), sender)
	})
}

// UploadFile uploads a single named file directly, without the pool.
func (u *Uploader) UploadFile(ctx context.Context, path string) (*Outcome, error) {
	res, err := u.discoverer.Stat(path)
	if err != nil {
		return nil, err
	}

	e := res.Sorted()[0]
	return u.run(ctx, res, func(ctx context.Context, sess storage.Session, sender chan<- models.Progress) (map[string]string, error) {
		results := map[string]string{}
		ref, err := u.client.Upload(ctx, sess, e.ID, e.Path, sender)
		if err != nil {
			return results, &common.UploadError{ID: e.ID, Path: e.Path, Err: err}
		}
		results[e.ID] = ref
		return results, nil
	})
}

type dispatchFunc func(ctx context.Context, sess storage.Session, sender chan<- models.Progress) (map[string]string, error)

func (u *Uploader) run(ctx context.Context, res *discovery.Result, dispatch dispatchFunc) (*Outcome, error) {
	sess, err := u.client.AcquireSession(ctx)
	if err != nil {
		return nil, &common.SessionError{Backend: u.client.Name(), Err: err}
	}
	defer func() {
		if err := sess.Close(); err != nil {
			u.logger.Warn(ctx, "closing session", "backend", u.client.Name(), "err", err)
		}
	}()
	u.logger.Info(ctx, "session acquired", "backend", u.client.Name(), "endpoint", sess.Endpoint())

	stream := progress.NewStream()
	agg := progress.NewAggregator(u.display, res.TotalSize, finishLabel, u.logger)

	aggDone := make(chan int64, 1)
	go func() {
		aggDone <- agg.Run(ctx, stream.Messages())
	}()

	results, runErr := dispatch(ctx, sess, stream.Sender())

	// every upload has returned, so no sender is left
	stream.Close()
	transferred := <-aggDone

	out := &Outcome{
		Backend:     u.client.Name(),
		Entries:     res.Entries,
		Results:     results,
		TotalSize:   res.TotalSize,
		Transferred: transferred,
	}
	if runErr != nil {
		return out, runErr
	}

	out.Lines, err = report.Build(res.Entries, results)
	if err != nil {
		return out, err
	}
	return out, nil
}
