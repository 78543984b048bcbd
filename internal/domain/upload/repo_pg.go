package upload

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medassist/medassist/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, category, original_name, stored_name, size_bytes, mime_type, created_at`

func scanUpload(row pgx.Row) (*Upload, error) {
	var u Upload
	err := row.Scan(&u.ID, &u.Category, &u.OriginalName, &u.StoredName,
		&u.SizeBytes, &u.MimeType, &u.CreatedAt)
	return &u, err
}

func (r *repoPG) Create(ctx context.Context, u *Upload) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO uploads (category, original_name, stored_name, size_bytes, mime_type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at`,
		u.Category, u.OriginalName, u.StoredName, u.SizeBytes, u.MimeType).
		Scan(&u.ID, &u.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Upload, error) {
	return scanUpload(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM uploads WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Upload, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+cols+` FROM uploads ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	return err
}
