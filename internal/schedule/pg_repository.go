package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// storeErr wraps infrastructure failures so callers can errors.Is them
// against ErrStoreUnavailable while keeping the underlying cause in the
// chain for errors.As inspection.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, storeErr("scan patient", err)
	}
	return &p, nil
}

func scanNutritionist(row pgx.Row) (*Nutritionist, error) {
	var n Nutritionist
	err := row.Scan(&n.ID, &n.Name, &n.Specialty, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNutritionistNotFound
		}
		return nil, storeErr("scan nutritionist", err)
	}
	return &n, nil
}

const appointmentColumns = `
	id, patient_id, nutritionist_id, date, start_time::text, duration_minutes,
	appointment_type, status, reminder_type, remind_at, reminder_sent_at,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var startTime string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.NutritionistID,
		&a.Date,
		&startTime,
		&a.DurationMinutes,
		&a.Type,
		&a.Status,
		&a.ReminderType,
		&a.RemindAt,
		&a.ReminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, storeErr("scan appointment", err)
	}

	a.StartTime, err = ParseTimeOfDay(startTime)
	if err != nil {
		return nil, storeErr("parse stored start time", err)
	}
	return &a, nil
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetNutritionistByID(ctx context.Context, id uuid.UUID) (*Nutritionist, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM nutritionists
		WHERE id = $1
	`, id)
	return scanNutritionist(row)
}

func (r *PgRepository) ListNutritionists(ctx context.Context) ([]Nutritionist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM nutritionists
		ORDER BY name
	`)
	if err != nil {
		return nil, storeErr("list nutritionists", err)
	}
	defer rows.Close()

	var result []Nutritionist
	for rows.Next() {
		n, err := scanNutritionist(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list nutritionists", err)
	}
	return result, nil
}

func (r *PgRepository) BookedIntervals(ctx context.Context, nutritionistID uuid.UUID, date time.Time) ([]BookedInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_time::text, duration_minutes
		FROM appointments
		WHERE nutritionist_id = $1
		  AND date = $2
		  AND status <> 'cancelled'
		ORDER BY start_time
	`, nutritionistID, date)
	if err != nil {
		return nil, storeErr("query booked intervals", err)
	}
	defer rows.Close()

	var result []BookedInterval
	for rows.Next() {
		var raw string
		var minutes int
		if err := rows.Scan(&raw, &minutes); err != nil {
			return nil, storeErr("scan booked interval", err)
		}
		start, err := ParseTimeOfDay(raw)
		if err != nil {
			return nil, storeErr("parse booked start time", err)
		}
		result = append(result, BookedInterval{Start: start, DurationMinutes: minutes})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query booked intervals", err)
	}
	return result, nil
}

func (r *PgRepository) HasOverlap(ctx context.Context, nutritionistID uuid.UUID, date time.Time, start TimeOfDay, durationMinutes int) (bool, error) {
	var overlaps bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE nutritionist_id = $1
			  AND date = $2
			  AND status <> 'cancelled'
			  AND start_time < $3::time + make_interval(mins => $4)
			  AND start_time + make_interval(mins => duration_minutes) > $3::time
		)
	`, nutritionistID, date, start.String(), durationMinutes).Scan(&overlaps)
	if err != nil {
		return false, storeErr("query overlap", err)
	}
	return overlaps, nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, nutritionist_id, date, start_time, duration_minutes,
			appointment_type, status, reminder_type, remind_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5::time, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.NutritionistID, a.Date, a.StartTime.String(),
		a.DurationMinutes, a.Type, a.Status, a.ReminderType, a.RemindAt)

	created, err := scanAppointment(row)
	if err != nil {
		// The insert error surfaces through Scan; a unique violation on
		// the non-cancelled (nutritionist, date, start_time) index is the
		// authoritative conflict verdict.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, start_time DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, storeErr("list appointments by patient", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsForDay(ctx context.Context, nutritionistID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE nutritionist_id = $1
		  AND date = $2
		ORDER BY start_time
	`, nutritionistID, date)
	if err != nil {
		return nil, storeErr("list appointments for day", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) FindDueReminders(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND reminder_type <> 'none'
		  AND remind_at IS NOT NULL
		  AND remind_at <= $1
		  AND reminder_sent_at IS NULL
	`, now)
	if err != nil {
		return nil, storeErr("find due reminders", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = $2,
		    updated_at = now()
		WHERE id = $1
		  AND reminder_sent_at IS NULL
	`, id, at)
	if err != nil {
		return storeErr("mark reminder sent", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return storeErr("insert event log", err)
	}
	return nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate appointments", err)
	}
	return result, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
