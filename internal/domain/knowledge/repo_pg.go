package knowledge

import (
	"context"
	"strconv"
	"strings"

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

const cols = `id, title, content, category, keywords, source, relevance_score, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Title, &e.Content, &e.Category, &e.Keywords,
		&e.Source, &e.RelevanceScore, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_knowledge (title, content, category, keywords, source, relevance_score)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		e.Title, e.Content, e.Category, e.Keywords, e.Source, e.RelevanceScore).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *repoPG) UpdateSearchIndex(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_knowledge
		SET search_tsv = to_tsvector('english',
			title || ' ' || content || ' ' || coalesce(category, '') || ' ' || array_to_string(keywords, ' '))
		WHERE id = $1`, id)
	return err
}

func (r *repoPG) SearchFullText(ctx context.Context, tokens []string, category string, limit int) ([]*Entry, error) {
	tsquery := strings.Join(tokens, " | ")
	query := `SELECT ` + cols + ` FROM medical_knowledge WHERE search_tsv @@ to_tsquery('english', $1)`
	args := []interface{}{tsquery}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY relevance_score DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	return r.collect(ctx, query, args)
}

func (r *repoPG) SearchSubstring(ctx context.Context, raw string, category string, limit int) ([]*Entry, error) {
	pattern := "%" + raw + "%"
	query := `SELECT ` + cols + ` FROM medical_knowledge
		WHERE (title ILIKE $1 OR content ILIKE $1 OR array_to_string(keywords, ' ') ILIKE $1)`
	args := []interface{}{pattern}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY relevance_score DESC LIMIT ` + placeholder(len(args)+1)
	args = append(args, limit)

	return r.collect(ctx, query, args)
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_knowledge`).Scan(&n)
	return n, err
}

func (r *repoPG) collect(ctx context.Context, query string, args []interface{}) ([]*Entry, error) {
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

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
