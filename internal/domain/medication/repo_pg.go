package medication

import (
	"context"
	"errors"
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

// created_at is stored as timestamptz and read back as an RFC 3339 UTC string.
const createdAtCol = `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`

// =========== Medication Repository ===========

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

func (r *medicationRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medCols = `id, name, schedule_time, active, ` + createdAtCol

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.Name, &m.ScheduleTime, &m.Active, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medications (name, schedule_time, active)
		VALUES ($1, $2, TRUE)
		RETURNING id, active, `+createdAtCol,
		m.Name, m.ScheduleTime).Scan(&m.ID, &m.Active, &m.CreatedAt)
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id int) (*Medication, error) {
	return scanMed(r.conn(ctx).QueryRow(ctx, `SELECT `+medCols+` FROM medications WHERE id = $1`, id))
}

func (r *medicationRepoPG) ListActive(ctx context.Context) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medCols+` FROM medications WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		m, err := scanMed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *medicationRepoPG) Deactivate(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE medications SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate medication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =========== Medication Log Repository ===========

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const logCols = `id, medication_id, COALESCE(medication_name, ''), COALESCE(scheduled_time, ''),
	COALESCE(actual_time, ''), COALESCE(status, ''), temperature, heart_rate, ` + createdAtCol

func scanLog(row pgx.Row) (*MedicationLog, error) {
	var l MedicationLog
	err := row.Scan(&l.ID, &l.MedicationID, &l.MedicationName, &l.ScheduledTime,
		&l.ActualTime, &l.Status, &l.Temperature, &l.HeartRate, &l.CreatedAt)
	return &l, err
}

func (r *logRepoPG) Create(ctx context.Context, l *MedicationLog) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medication_logs (medication_id, medication_name, scheduled_time, actual_time,
			status, temperature, heart_rate)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id, `+createdAtCol,
		l.MedicationID, l.MedicationName, l.ScheduledTime, l.ActualTime,
		l.Status, l.Temperature, l.HeartRate).Scan(&l.ID, &l.CreatedAt)
}

func (r *logRepoPG) List(ctx context.Context, limit, offset int) ([]*MedicationLog, error) {
	return r.query(ctx, `SELECT `+logCols+` FROM medication_logs
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *logRepoPG) ListByMedication(ctx context.Context, medicationID, limit, offset int) ([]*MedicationLog, error) {
	return r.query(ctx, `SELECT `+logCols+` FROM medication_logs WHERE medication_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, medicationID, limit, offset)
}

func (r *logRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*MedicationLog, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list medication logs: %w", err)
	}
	defer rows.Close()

	var items []*MedicationLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication log: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
