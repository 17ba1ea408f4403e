// Package report joins upload results back to the discovered paths.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/models"
)

type Line struct {
	Path      string
	Reference string
}

// Build returns one line per result, sorted by path. A result whose
// identifier was never discovered is an error.
func Build(entries map[string]models.FileEntry, results map[string]string) ([]Line, error) {
	lines := make([]Line, 0, len(results))
	for id, ref := range results {
		e, ok := entries[id]
		if !ok {
			return nil, fmt.Errorf("result for identifier %q: %w", id, common.ErrNotFound)
		}
		lines = append(lines, Line{Path: e.Path, Reference: ref})
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Path < lines[j].Path
	})
	return lines, nil
}

func Write(w io.Writer, lines []Line) error {
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", l.Path, l.Reference); err != nil {
			return err
		}
	}
	return nil
}
