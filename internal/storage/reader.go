package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// ProgressReader counts bytes read from r and publishes the running total
// on progress after every read. A nil progress channel disables reporting.
type ProgressReader struct {
	ctx      context.Context
	r        io.Reader
	id       string
	progress chan<- models.Progress
	read     atomic.Int64
	reported bool
}

func NewProgressReader(ctx context.Context, r io.Reader, id string, progress chan<- models.Progress) *ProgressReader {
	return &ProgressReader{ctx: ctx, r: r, id: id, progress: progress}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := p.r.Read(b)
	if n > 0 {
		p.read.Add(int64(n))
		p.publish()
	}
	// empty files still report once so the aggregator sees them
	if errors.Is(err, io.EOF) && !p.reported {
		p.publish()
	}
	return n, err
}

// Count returns the number of bytes read so far. It is safe to call while
// another goroutine is reading.
func (p *ProgressReader) Count() int64 {
	return p.read.Load()
}

func (p *ProgressReader) publish() {
	p.reported = true
	if p.progress == nil {
		return
	}
	select {
	case p.progress <- models.Progress{ID: p.id, Bytes: p.read.Load()}:
	case <-p.ctx.Done():
	}
}

// Source is an opened local file ready to be streamed to a backend.
type Source struct {
	*ProgressReader

	File        *os.File
	Name        string
	Size        int64
	ContentType string
}

// OpenSource opens path, records its current size and detects its content
// type. The caller must Close it.
func OpenSource(ctx context.Context, path, id string, progress chan<- models.Progress) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectReader(f); err == nil {
		contentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rewind: %w", err)
	}

	return &Source{
		ProgressReader: NewProgressReader(ctx, f, id, progress),
		File:           f,
		Name:           info.Name(),
		Size:           info.Size(),
		ContentType:    contentType,
	}, nil
}

// Verify fails with ErrSizeMismatch when the bytes streamed differ from
// the size seen when the file was opened.
func (s *Source) Verify() error {
	if s.Count() != s.Size {
		return fmt.Errorf("%w: sent %d bytes, file has %d", ErrSizeMismatch, s.Count(), s.Size)
	}
	return nil
}

func (s *Source) Close() error {
	return s.File.Close()
}
