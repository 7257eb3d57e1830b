package vitals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medhealth/medhealth/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const createdAtCol = `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`

const vitalsCols = `id, temperature, heart_rate, COALESCE(status, ''), ` + createdAtCol

func (r *repoPG) Create(ctx context.Context, v *VitalsLog) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO vitals_logs (temperature, heart_rate, status)
		VALUES ($1, $2, $3)
		RETURNING id, `+createdAtCol,
		v.Temperature, v.HeartRate, v.Status).Scan(&v.ID, &v.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*VitalsLog, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+vitalsCols+` FROM vitals_logs
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list vitals: %w", err)
	}
	defer rows.Close()

	var items []*VitalsLog
	for rows.Next() {
		var v VitalsLog
		if err := rows.Scan(&v.ID, &v.Temperature, &v.HeartRate, &v.Status, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vitals: %w", err)
		}
		items = append(items, &v)
	}
	return items, rows.Err()
}
