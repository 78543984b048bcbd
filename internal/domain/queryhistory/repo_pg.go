package queryhistory

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

const cols = `id, query, response, context_type, confidence, sources, patient_id,
	query_type, tokens_used, processing_time_ms, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Query, &e.Response, &e.ContextType, &e.Confidence,
		&e.Sources, &e.PatientID, &e.QueryType, &e.TokensUsed, &e.ProcessingTimeMs, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	if e.Sources == nil {
		e.Sources = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO query_history (query, response, context_type, confidence, sources,
			patient_id, query_type, tokens_used, processing_time_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, created_at`,
		e.Query, e.Response, e.ContextType, e.Confidence, e.Sources,
		e.PatientID, e.QueryType, e.TokensUsed, e.ProcessingTimeMs).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, limit int, patientID *int64) ([]*Entry, error) {
	query := `SELECT ` + cols + ` FROM query_history`
	args := []interface{}{}
	if patientID != nil {
		query += ` WHERE patient_id = $1`
		args = append(args, *patientID)
	}
	if patientID != nil {
		query += ` ORDER BY created_at DESC LIMIT $2`
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
	}
	args = append(args, limit)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
