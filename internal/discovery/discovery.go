// Package discovery walks a directory tree and turns every eligible file into
// a models.FileEntry keyed by a generated identifier.
//
// Symbolic links are followed (cycles are detected and walked once). An entry
// whose metadata cannot be read aborts the whole walk with a
// common.DiscoveryError; nothing is silently skipped except directories,
// non-regular files and files whose extension is excluded.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/logging"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/google/uuid"
)

// DefaultExcludeExtensions lists auxiliary files left behind by editors and
// partial downloads.
var DefaultExcludeExtensions = []string{".tmp", ".part", ".crdownload", ".swp", ".DS_Store"}

// Result is the outcome of a walk.
type Result struct {
	Entries   map[string]models.FileEntry
	TotalSize int64
}

// Sorted returns the entries ordered by path.
func (r *Result) Sorted() []models.FileEntry {
	out := make([]models.FileEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithExcludeExtensions replaces the exclusion set. Extensions are matched
// case-insensitively; a missing leading dot is added.
func WithExcludeExtensions(exts ...string) Option {
	return func(d *Discoverer) {
		d.exclude = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			d.exclude[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(gen func() string) Option {
	return func(d *Discoverer) {
		d.newID = gen
	}
}

// WithLogger attaches a logger for skipped entries.
func WithLogger(l logging.Logger) Option {
	return func(d *Discoverer) {
		d.logger = l
	}
}

type Discoverer struct {
	exclude map[string]struct{}
	newID   func() string
	logger  logging.Logger
}

func NewDiscoverer(opts ...Option) *Discoverer {
	d := &Discoverer{
		newID:  uuid.NewString,
		logger: logging.Discard(),
	}
	WithExcludeExtensions(DefaultExcludeExtensions...)(d)

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Excluded reports whether path carries an excluded extension.
func (d *Discoverer) Excluded(path string) bool {
	_, ok := d.exclude[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Discover walks root and returns every retained file.
func (d *Discoverer) Discover(ctx context.Context, root string) (*Result, error) {
	root = filepath.Clean(root)

	res := &Result{Entries: make(map[string]models.FileEntry)}
	visited := make(map[string]struct{})

	if err := d.walk(ctx, root, visited, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Stat builds a single-entry result for an explicitly named file. The
// exclusion set does not apply.
func (d *Discoverer) Stat(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &common.DiscoveryError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &common.DiscoveryError{Path: path, Err: common.ErrInvalidPath}
	}

	e := models.FileEntry{ID: d.newID(), Path: path, Size: info.Size()}
	return &Result{
		Entries:   map[string]models.FileEntry{e.ID: e},
		TotalSize: e.Size,
	}, nil
}

func (d *Discoverer) walk(ctx context.Context, dir string, visited map[string]struct{}, res *Result) error {
	if err := ctx.Err(); err != nil {
		return &common.DiscoveryError{Path: dir, Err: err}
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return &common.DiscoveryError{Path: dir, Err: err}
	}
	if _, seen := visited[resolved]; seen {
		d.logger.Debug(ctx, "directory already walked", "path", dir, "target", resolved)
		return nil
	}
	visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &common.DiscoveryError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// os.Stat follows links, so a dangling one fails here.
		info, err := os.Stat(path)
		if err != nil {
			return &common.DiscoveryError{Path: path, Err: err}
		}

		switch {
		case info.IsDir():
			if err := d.walk(ctx, path, visited, res); err != nil {
				return err
			}
		case !info.Mode().IsRegular():
			d.logger.Debug(ctx, "skipping non-regular file", "path", path, "mode", info.Mode().String())
		case d.Excluded(path):
			d.logger.Debug(ctx, "skipping excluded file", "path", path)
		default:
			id := d.newID()
			if _, dup := res.Entries[id]; dup {
				return &common.DiscoveryError{Path: path, Err: fmt.Errorf("duplicate identifier %q", id)}
			}
			res.Entries[id] = models.FileEntry{ID: id, Path: path, Size: info.Size()}
			res.TotalSize += info.Size()
		}
	}

	return nil
}
