// Package models defines the records exchanged between discovery, the
// scheduler, the progress aggregator and the history journal.
package models

import "time"

// FileEntry is a discovered file. It is immutable once discovery returns;
// other components refer to it by ID.
type FileEntry struct {
	ID   string
	Path string
	Size int64
}

// Progress is a cumulative byte count for one upload. For a fixed ID the
// values never decrease.
type Progress struct {
	ID    string
	Bytes int64
}

// UploadRecord is a journal row for a completed upload.
type UploadRecord struct {
	ID         string
	Path       string
	Size       int64
	Reference  string
	Backend    string
	UploadedAt time.Time
}
