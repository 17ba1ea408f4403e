package app

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/history"
)

// History prints the most recent uploads, newest first.
func (a *App) History(ctx context.Context, limit int) error {
	if a.config.HistoryDB == "" {
		return fmt.Errorf("%w: history is disabled (empty -H)", common.ErrInvalidConfig)
	}

	j, err := history.Open(ctx, a.config.HistoryDB)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	return history.Write(a.stdout, records)
}
