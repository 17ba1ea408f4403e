package app

import (
	"context"
	"os"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/discovery"
	"github.com/dmitrijs2005/gofileup/internal/display"
	"github.com/dmitrijs2005/gofileup/internal/history"
	"github.com/dmitrijs2005/gofileup/internal/report"
	"github.com/dmitrijs2005/gofileup/internal/uploader"
	"golang.org/x/term"
)

// Upload uploads path, a directory or a single file, and prints one
// "<path> <reference>" line per file on success.
func (a *App) Upload(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &common.DiscoveryError{Path: path, Err: err}
	}

	client, err := a.newClient(a.config, a.logger)
	if err != nil {
		return err
	}

	d := discovery.NewDiscoverer(
		discovery.WithExcludeExtensions(a.config.ExcludeExtensions...),
		discovery.WithLogger(a.logger),
	)

	disp := a.newDisplay()
	u := uploader.New(client, disp, d, a.config.Concurrency, a.logger.With("backend", client.Name()))

	var out *uploader.Outcome
	switch {
	case info.IsDir():
		out, err = u.UploadDir(ctx, path)
	case info.Mode().IsRegular():
		out, err = u.UploadFile(ctx, path)
	default:
		err = &common.DiscoveryError{Path: path, Err: common.ErrInvalidPath}
	}
	disp.Close()

	if out != nil {
		a.recordHistory(ctx, out)
	}
	if err != nil {
		return err
	}
	return report.Write(a.stdout, out.Lines)
}

// recordHistory journals successful uploads. Failures are only logged.
func (a *App) recordHistory(ctx context.Context, out *uploader.Outcome) {
	if a.config.HistoryDB == "" || len(out.Results) == 0 {
		return
	}

	// the run may have been cancelled, the journal write should still happen
	ctx = context.WithoutCancel(ctx)

	j, err := history.Open(ctx, a.config.HistoryDB)
	if err != nil {
		a.logger.Warn(ctx, "history unavailable", "path", a.config.HistoryDB, "err", err)
		return
	}
	defer j.Close()

	records := history.Records(out.Entries, out.Results, out.Backend, a.now())
	if err := j.RecordAll(ctx, records); err != nil {
		a.logger.Warn(ctx, "history not recorded", "records", len(records), "err", err)
	}
}

// pickDisplay chooses the animated bar on a terminal, plain lines otherwise.
func (a *App) pickDisplay() closingDisplay {
	if a.config.Quiet {
		return display.Nop{}
	}
	if f, ok := a.stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 0
		}
		return display.NewTerminal(f, width)
	}
	return display.NewLines(a.stderr)
}
