package history

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gofileup/internal/dbx"
	"github.com/dmitrijs2005/gofileup/internal/models"
)

// Repository stores upload records.
type Repository interface {
	// Insert adds a record. Identifiers are unique.
	Insert(ctx context.Context, rec models.UploadRecord) error

	// List returns up to limit records, newest first. A limit below one
	// returns every record.
	List(ctx context.Context, limit int) ([]models.UploadRecord, error)
}

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec models.UploadRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, path, size, reference, backend, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Path, rec.Size, rec.Reference, rec.Backend, rec.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert upload %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, path, size, reference, backend, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC, path ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var out []models.UploadRecord
	for rows.Next() {
		var (
			rec models.UploadRecord
			ts  string
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.Size, &rec.Reference, &rec.Backend, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		rec.UploadedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("bad uploaded_at for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload rows: %w", err)
	}
	return out, nil
}
