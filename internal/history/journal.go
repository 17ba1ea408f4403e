// Package history keeps a local SQLite journal of completed uploads.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/dbx"
	"github.com/dmitrijs2005/gofileup/internal/filex"
	"github.com/dmitrijs2005/gofileup/internal/history/migrations"
	"github.com/dmitrijs2005/gofileup/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Journal is the history database.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// RecordAll stores records in a single transaction: all or none.
func (j *Journal) RecordAll(ctx context.Context, records []models.UploadRecord) error {
	if len(records) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, rec := range records {
			if err := repo.Insert(ctx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (j *Journal) Recent(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	return NewSQLiteRepository(j.db).List(ctx, limit)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Records builds journal entries for the successful results of one run.
func Records(entries map[string]models.FileEntry, results map[string]string, backend string, at time.Time) []models.UploadRecord {
	out := make([]models.UploadRecord, 0, len(results))
	for id, ref := range results {
		e, ok := entries[id]
		if !ok {
			continue
		}
		out = append(out, models.UploadRecord{
			ID:         id,
			Path:       e.Path,
			Size:       e.Size,
			Reference:  ref,
			Backend:    backend,
			UploadedAt: at,
		})
	}
	return out
}

// Write prints one line per record: time, size, path and reference.
func Write(w io.Writer, records []models.UploadRecord) error {
	for _, r := range records {
		_, err := fmt.Fprintf(w, "%s %8s %s %s\n",
			r.UploadedAt.Local().Format(time.DateTime), humanize.IBytes(uint64(r.Size)), r.Path, r.Reference)
		if err != nil {
			return err
		}
	}
	return nil
}
