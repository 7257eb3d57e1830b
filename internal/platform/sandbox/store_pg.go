package sandbox

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medhealth/medhealth/internal/platform/db"
)

// PGStore writes seed rows with pgx. Outside InTx it falls back to the pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (s *PGStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTx(ctx, s.pool, fn)
}

func (s *PGStore) Clear(ctx context.Context) error {
	tx := db.TxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("clear requires a transaction")
	}
	_, err := tx.Exec(ctx, `TRUNCATE medication_logs, vitals_logs, medications RESTART IDENTITY`)
	return err
}

func (s *PGStore) InsertMedication(ctx context.Context, med SeedMedication) (int, error) {
	var id int
	err := s.conn(ctx).QueryRow(ctx,
		`INSERT INTO medications (name, schedule_time, active) VALUES ($1, $2, TRUE) RETURNING id`,
		med.Name, med.ScheduleTime).Scan(&id)
	return id, err
}

func (s *PGStore) InsertMedicationLog(ctx context.Context, medicationID int, name string, row LogRow) error {
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO medication_logs
			(medication_id, medication_name, scheduled_time, actual_time, status, temperature, heart_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		medicationID, name, row.ScheduledTime, row.ActualTime, row.Status, row.Temperature, row.HeartRate, row.At)
	return err
}

func (s *PGStore) InsertVitals(ctx context.Context, row VitalsRow) error {
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO vitals_logs (temperature, heart_rate, status, created_at) VALUES ($1, $2, $3, $4)`,
		row.Temperature, row.HeartRate, row.Status, row.At)
	return err
}
