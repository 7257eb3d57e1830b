// Package sandbox generates a reproducible week of medication and vitals
// history for demos and local development.
package sandbox

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/medhealth/medhealth/pkg/fhirmodels"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	Days        int
	Medications []SeedMedication

	// TakenRatio is the probability that a scheduled dose is logged as taken.
	TakenRatio float64
	// VitalsRatio is the probability that a taken dose carries vitals.
	VitalsRatio float64

	MinVitalsPerDay int
	MaxVitalsPerDay int

	// Keep leaves existing rows in place instead of clearing the tables.
	Keep bool
	Seed int64
}

// SeedMedication is one medication on the demo schedule.
type SeedMedication struct {
	Name         string
	ScheduleTime string
}

// DefaultSeedConfig returns the demo schedule: four daily medications over
// the past seven days.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Days: 7,
		Medications: []SeedMedication{
			{Name: "Aspirin", ScheduleTime: "08:00"},
			{Name: "Vitamin D", ScheduleTime: "12:00"},
			{Name: "Blood Pressure Med", ScheduleTime: "18:00"},
			{Name: "Evening Supplement", ScheduleTime: "20:00"},
		},
		TakenRatio:      0.75,
		VitalsRatio:     0.6,
		MinVitalsPerDay: 2,
		MaxVitalsPerDay: 4,
		Seed:            time.Now().UnixNano(),
	}
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Medications    int `json:"medications"`
	MedicationLogs int `json:"medication_logs"`
	Taken          int `json:"taken"`
	Missed         int `json:"missed"`
	VitalsLogs     int `json:"vitals_logs"`
}

// LogRow is a generated medication log. At is the row's created_at.
type LogRow struct {
	MedicationIndex int
	ScheduledTime   string
	ActualTime      string
	Status          string
	Temperature     *float64
	HeartRate       *int
	At              time.Time
}

// VitalsRow is a generated standalone vitals reading.
type VitalsRow struct {
	Temperature float64
	HeartRate   int
	Status      string
	At          time.Time
}

// DataGenerator produces rows from a seeded RNG so runs are reproducible.
type DataGenerator struct {
	rng *rand.Rand
	now time.Time
}

// NewDataGenerator returns a generator anchored at now.
func NewDataGenerator(seed int64, now time.Time) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: now.UTC(),
	}
}

func (g *DataGenerator) intBetween(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// oneDecimal draws from [lo, hi] rounded to a tenth.
func (g *DataGenerator) oneDecimal(lo, hi float64) float64 {
	return math.Round((lo+g.rng.Float64()*(hi-lo))*10) / 10
}

func (g *DataGenerator) day(offset int) time.Time {
	d := g.now.AddDate(0, 0, -offset)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// MedicationLogs generates one log per medication per day, oldest first.
func (g *DataGenerator) MedicationLogs(cfg SeedConfig) ([]LogRow, error) {
	var rows []LogRow
	for offset := cfg.Days; offset >= 1; offset-- {
		day := g.day(offset)
		for i, med := range cfg.Medications {
			sched, err := time.Parse("15:04", med.ScheduleTime)
			if err != nil {
				return nil, fmt.Errorf("medication %q: invalid schedule time %q", med.Name, med.ScheduleTime)
			}
			scheduled := day.Add(time.Duration(sched.Hour())*time.Hour + time.Duration(sched.Minute())*time.Minute)

			row := LogRow{
				MedicationIndex: i,
				ScheduledTime:   med.ScheduleTime,
				Status:          fhirmodels.LogStatusMissed,
				ActualTime:      med.ScheduleTime,
				At:              scheduled,
			}

			if g.rng.Float64() < cfg.TakenRatio {
				actual := scheduled.Add(time.Duration(g.intBetween(-10, 30)) * time.Minute)
				row.Status = fhirmodels.LogStatusTaken
				row.ActualTime = actual.Format("15:04")
				row.At = actual

				if g.rng.Float64() < cfg.VitalsRatio {
					temp := g.oneDecimal(36.0, 37.5)
					hr := g.intBetween(65, 85)
					row.Temperature = &temp
					row.HeartRate = &hr
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// VitalsLogs generates standalone readings between 08:00 and 22:45 each day.
func (g *DataGenerator) VitalsLogs(cfg SeedConfig) []VitalsRow {
	var rows []VitalsRow
	for offset := cfg.Days; offset >= 1; offset-- {
		day := g.day(offset)
		n := g.intBetween(cfg.MinVitalsPerDay, cfg.MaxVitalsPerDay)
		for j := 0; j < n; j++ {
			at := day.Add(time.Duration(g.intBetween(8, 22))*time.Hour +
				time.Duration(15*g.rng.Intn(4))*time.Minute)
			temp := g.oneDecimal(36.2, 37.3)
			hr := g.intBetween(60, 90)
			rows = append(rows, VitalsRow{
				Temperature: temp,
				HeartRate:   hr,
				Status:      ClassifyVitals(temp, hr),
				At:          at,
			})
		}
	}
	return rows
}

// ClassifyVitals tags a reading abnormal outside 36.0-37.5 C or 60-100 bpm.
func ClassifyVitals(temperature float64, heartRate int) string {
	if temperature < 36.0 || temperature > 37.5 || heartRate < 60 || heartRate > 100 {
		return fhirmodels.VitalsStatusAbnormal
	}
	return fhirmodels.VitalsStatusNormal
}

// Store persists generated rows. Run calls every method inside one
// transaction.
type Store interface {
	Clear(ctx context.Context) error
	InsertMedication(ctx context.Context, med SeedMedication) (int, error)
	InsertMedicationLog(ctx context.Context, medicationID int, name string, row LogRow) error
	InsertVitals(ctx context.Context, row VitalsRow) error
	// InTx runs fn in a single transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Seeder writes a generated history through a Store.
type Seeder struct {
	store  Store
	cfg    SeedConfig
	now    func() time.Time
	logger zerolog.Logger
}

// NewSeeder returns a Seeder for cfg.
func NewSeeder(store Store, cfg SeedConfig, logger zerolog.Logger) *Seeder {
	return &Seeder{store: store, cfg: cfg, now: time.Now, logger: logger}
}

// Run seeds the database. Nothing is written if any insert fails.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	gen := NewDataGenerator(s.cfg.Seed, s.now())
	logs, err := gen.MedicationLogs(s.cfg)
	if err != nil {
		return nil, err
	}
	vitalsRows := gen.VitalsLogs(s.cfg)

	result := &SeedResult{}
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if !s.cfg.Keep {
			if err := s.store.Clear(ctx); err != nil {
				return fmt.Errorf("clear existing data: %w", err)
			}
			s.logger.Info().Msg("cleared existing medication and vitals data")
		}

		ids := make([]int, len(s.cfg.Medications))
		for i, med := range s.cfg.Medications {
			id, err := s.store.InsertMedication(ctx, med)
			if err != nil {
				return fmt.Errorf("insert medication %q: %w", med.Name, err)
			}
			ids[i] = id
			result.Medications++
			s.logger.Debug().Str("name", med.Name).Str("schedule_time", med.ScheduleTime).Int("id", id).Msg("added medication")
		}

		for _, row := range logs {
			med := s.cfg.Medications[row.MedicationIndex]
			if err := s.store.InsertMedicationLog(ctx, ids[row.MedicationIndex], med.Name, row); err != nil {
				return fmt.Errorf("insert medication log: %w", err)
			}
			result.MedicationLogs++
			if row.Status == fhirmodels.LogStatusTaken {
				result.Taken++
			} else {
				result.Missed++
			}
		}

		for _, row := range vitalsRows {
			if err := s.store.InsertVitals(ctx, row); err != nil {
				return fmt.Errorf("insert vitals: %w", err)
			}
			result.VitalsLogs++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("medications", result.Medications).
		Int("medication_logs", result.MedicationLogs).
		Int("taken", result.Taken).
		Int("missed", result.Missed).
		Int("vitals_logs", result.VitalsLogs).
		Msg("sample data added")
	return result, nil
}
