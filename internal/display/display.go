// Package display renders aggregate upload progress. Terminal draws an
// animated bar for interactive sessions, Lines prints a line every ten
// percent for logs and pipes, and Nop draws nothing.
package display

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

type Nop struct{}

func (Nop) SetTotal(int64)        {}
func (Nop) SetPosition(int64)     {}
func (Nop) Finish(string, string) {}
func (Nop) Close()                {}

// Lines writes plain progress lines at every 10% step.
type Lines struct {
	w     io.Writer
	total int64
	step  int
}

func NewLines(w io.Writer) *Lines {
	return &Lines{w: w, step: -1}
}

func (l *Lines) SetTotal(total int64) {
	l.total = total
	l.step = -1
}

func (l *Lines) SetPosition(pos int64) {
	if l.total <= 0 {
		return
	}
	pct := int(pos * 100 / l.total)
	if pct > 100 {
		pct = 100
	}
	step := pct / 10
	if step <= l.step {
		return
	}
	l.step = step
	fmt.Fprintf(l.w, "progress: %3d%% (%s / %s)\n", step*10, humanize.IBytes(uint64(pos)), humanize.IBytes(uint64(l.total)))
}

func (l *Lines) Finish(label, summary string) {
	fmt.Fprintf(l.w, "%s: %s\n", label, summary)
}

func (l *Lines) Close() {}
