package progress

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dustin/go-humanize"
)

// Display renders aggregate progress. Implementations are driven from a
// single goroutine.
type Display interface {
	SetTotal(total int64)
	SetPosition(pos int64)
	Finish(label, summary string)
}

// Aggregator folds per-file cumulative counts into one position.
type Aggregator struct {
	display   Display
	totalSize int64
	label     string
	logger    logging.Logger

	perFile  map[string]int64
	finished bool
}

func NewAggregator(display Display, totalSize int64, label string, logger logging.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{
		display:   display,
		totalSize: totalSize,
		label:     label,
		logger:    logger,
		perFile:   make(map[string]int64),
	}
}

// Run consumes messages until the channel is closed and returns the final
// aggregate. The latest count for an identifier replaces the previous one.
func (a *Aggregator) Run(ctx context.Context, messages <-chan models.Progress) int64 {
	a.display.SetTotal(a.totalSize)

	var total int64
	for msg := range messages {
		prev, seen := a.perFile[msg.ID]
		if seen && msg.Bytes < prev {
			a.logger.Warn(ctx, "progress went backwards", "id", msg.ID, "previous", prev, "current", msg.Bytes)
		}
		a.perFile[msg.ID] = msg.Bytes

		total = 0
		for _, n := range a.perFile {
			total += n
		}
		a.display.SetPosition(total)

		if !a.finished && total >= a.totalSize {
			a.finished = true
			a.display.Finish(a.label, Summary(total, len(a.perFile)))
		}
	}
	return total
}

// Summary is the human readable completion line for count files.
func Summary(bytes int64, count int) string {
	noun := "files"
	if count == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%s in %d %s", humanize.IBytes(uint64(bytes)), count, noun)
}
