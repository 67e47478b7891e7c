package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/nutrivida/clinic-scheduling/internal/db"
	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, db.Options{DSN: dsn})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	nutritionists, err := seedNutritionists(context.Background(), pool, 12)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed nutritionists")
	}
	patients, err := seedPatients(context.Background(), pool, 400)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAppointments(context.Background(), pool, nutritionists, patients); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedNutritionists(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding nutritionists")

	specialties := []string{
		"Sports Nutrition",
		"Clinical Nutrition",
		"Pediatric Nutrition",
		"Weight Management",
		"Eating Disorders",
		"Oncology Nutrition",
		"Geriatric Nutrition",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO nutritionists (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 100
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, id, gofakeit.Name(), gofakeit.Email())
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// seedAppointments fills roughly a third of each nutritionist's grid for
// the coming week so availability queries have something to chew on.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, nutritionists, patients []uuid.UUID) error {
	logger.Info().Msg("seeding appointments")

	catalog := schedule.DefaultCatalog()
	types := []schedule.AppointmentType{
		schedule.TypeInitial, schedule.TypeFollowup,
		schedule.TypeAssessment, schedule.TypeConsultation,
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	total := 0

	for _, nutriID := range nutritionists {
		for day := 0; day < 7; day++ {
			date := today.AddDate(0, 0, day)
			for _, slot := range catalog.SlotsForDate(date) {
				if gofakeit.Number(0, 2) != 0 {
					continue
				}
				patientID := patients[gofakeit.Number(0, len(patients)-1)]
				apptType := types[gofakeit.Number(0, len(types)-1)]

				_, err := pool.Exec(ctx, `
					INSERT INTO appointments (
						id, patient_id, nutritionist_id, date, start_time,
						duration_minutes, appointment_type, status, reminder_type,
						created_at, updated_at
					)
					VALUES ($1, $2, $3, $4, $5::time, 30, $6, 'scheduled', 'push', now(), now())
				`, uuid.New(), patientID, nutriID, date, slot.Time.String(), apptType)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	logger.Info().Int("count", total).Msg("appointments seeded")
	return nil
}
