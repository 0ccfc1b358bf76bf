package uploads

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/platform/httpx"
)

// Repository persists upload records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) List(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, filename, kind, size, row_count, uploaded_by, note, created_at
		FROM uploads ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Kind, &rec.Size, &rec.RowCount, &rec.UploadedBy, &rec.Note, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, input Input) (Record, error) {
	rec := Record{
		Filename: input.Filename, Kind: input.Kind, Size: input.Size,
		RowCount: input.RowCount, UploadedBy: input.UploadedBy, Note: input.Note,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO uploads (filename, kind, size, row_count, uploaded_by, note)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		input.Filename, input.Kind, input.Size, input.RowCount, input.UploadedBy, input.Note,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return Record{}, db.MapError(err)
	}
	return rec, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
