package analytics

import (
	"context"
	"fmt"

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

func (r *repoPG) PatientStats(ctx context.Context) (*PatientStats, error) {
	var s PatientStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours'),
			COUNT(*) FILTER (WHERE gender = 'male'),
			COUNT(*) FILTER (WHERE gender = 'female'),
			COUNT(*) FILTER (WHERE gender NOT IN ('male','female')),
			COALESCE(ROUND(AVG(date_part('year', age(dob)))), 0)
		FROM patients`).
		Scan(&s.Total, &s.Recent,
			&s.GenderDistribution.Male, &s.GenderDistribution.Female, &s.GenderDistribution.Other,
			&s.AverageAge)
	if err != nil {
		return nil, fmt.Errorf("aggregating patient stats: %w", err)
	}
	return &s, nil
}

func (r *repoPG) QueryStats(ctx context.Context) (*QueryStats, error) {
	s := QueryStats{ByType: make(map[string]int)}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours'),
			COALESCE(AVG(confidence), 0),
			COALESCE(ROUND(AVG(processing_time_ms)), 0),
			COALESCE(ROUND(AVG(tokens_used)), 0)
		FROM query_history`).
		Scan(&s.Total, &s.Recent, &s.AvgConfidence, &s.AvgProcessingTimeMs, &s.AvgTokensUsed)
	if err != nil {
		return nil, fmt.Errorf("aggregating query stats: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT COALESCE(query_type, 'unknown'), COUNT(*)
		FROM query_history GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("grouping queries by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var queryType string
		var count int
		if err := rows.Scan(&queryType, &count); err != nil {
			return nil, err
		}
		s.ByType[queryType] = count
	}
	return &s, rows.Err()
}

func (r *repoPG) PaymentStats(ctx context.Context) (*PaymentStats, error) {
	s := PaymentStats{
		AmountByMethod: make(map[string]float64),
		AmountByStatus: make(map[string]float64),
	}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at > now() - interval '24 hours'),
			COALESCE(SUM(amount), 0)
		FROM payments`).
		Scan(&s.Total, &s.Recent, &s.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("aggregating payment stats: %w", err)
	}

	if err := r.sumInto(ctx, `SELECT method, COALESCE(SUM(amount),0) FROM payments GROUP BY method`, s.AmountByMethod); err != nil {
		return nil, fmt.Errorf("summing payments by method: %w", err)
	}
	if err := r.sumInto(ctx, `SELECT status, COALESCE(SUM(amount),0) FROM payments GROUP BY status`, s.AmountByStatus); err != nil {
		return nil, fmt.Errorf("summing payments by status: %w", err)
	}
	return &s, nil
}

func (r *repoPG) sumInto(ctx context.Context, query string, dest map[string]float64) error {
	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var sum float64
		if err := rows.Scan(&key, &sum); err != nil {
			return err
		}
		dest[key] = sum
	}
	return rows.Err()
}

func (r *repoPG) AgeGroups(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT CASE
			WHEN date_part('year', age(dob)) <= 18 THEN '0-18'
			WHEN date_part('year', age(dob)) <= 35 THEN '19-35'
			WHEN date_part('year', age(dob)) <= 50 THEN '36-50'
			WHEN date_part('year', age(dob)) <= 65 THEN '51-65'
			ELSE '65+'
		END, COUNT(*)
		FROM patients GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("bucketing patient ages: %w", err)
	}
	defer rows.Close()

	groups := map[string]int{"0-18": 0, "19-35": 0, "36-50": 0, "51-65": 0, "65+": 0}
	for rows.Next() {
		var group string
		var count int
		if err := rows.Scan(&group, &count); err != nil {
			return nil, err
		}
		groups[group] = count
	}
	return groups, rows.Err()
}

func (r *repoPG) TopConditions(ctx context.Context, limit int) ([]NameCount, error) {
	return r.topUnnested(ctx, "conditions", limit)
}

func (r *repoPG) TopMedications(ctx context.Context, limit int) ([]NameCount, error) {
	return r.topUnnested(ctx, "medications", limit)
}

// topUnnested ranks the elements of a patients text[] column by how many
// rows carry them. column is always one of the two fixed names above,
// never user input.
func (r *repoPG) topUnnested(ctx context.Context, column string, limit int) ([]NameCount, error) {
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT item, COUNT(*) AS n
		FROM patients, unnest(%s) AS item
		GROUP BY item ORDER BY n DESC, item LIMIT $1`, column), limit)
	if err != nil {
		return nil, fmt.Errorf("ranking %s: %w", column, err)
	}
	defer rows.Close()

	var out []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Value); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}

func (r *repoPG) QueryTrend(ctx context.Context, days int) ([]DailyCount, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT to_char(date_trunc('day', created_at), 'YYYY-MM-DD'), COUNT(*)
		FROM query_history
		WHERE created_at > now() - make_interval(days => $1)
		GROUP BY 1 ORDER BY 1`, days)
	if err != nil {
		return nil, fmt.Errorf("building query trend: %w", err)
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
