package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrNutritionistNotFound = errors.New("nutritionist not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")

	// ErrSlotTaken is the storage layer's verdict: the unique index on
	// (nutritionist_id, date, start_time) for non-cancelled rows rejected
	// the insert. It is the authoritative double-booking signal.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrStoreUnavailable wraps infrastructure failures talking to the
	// store. It is never conflated with an empty-but-successful read.
	ErrStoreUnavailable = errors.New("appointment store unavailable")
)

// BookedInterval is an existing booking's occupied time range on a day,
// spanning [Start, End()).
type BookedInterval struct {
	Start           TimeOfDay
	DurationMinutes int
}

func (b BookedInterval) End() TimeOfDay {
	return b.Start.Add(b.DurationMinutes)
}

// Repository contains all store interactions the service needs.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetNutritionistByID(ctx context.Context, id uuid.UUID) (*Nutritionist, error)
	ListNutritionists(ctx context.Context) ([]Nutritionist, error)

	// Availability reads, filtered to non-cancelled appointments. The
	// intervals carry duration so the calculator can block every slot an
	// existing booking covers, not only its start slot.
	BookedIntervals(ctx context.Context, nutritionistID uuid.UUID, date time.Time) ([]BookedInterval, error)
	HasOverlap(ctx context.Context, nutritionistID uuid.UUID, date time.Time, start TimeOfDay, durationMinutes int) (bool, error)

	// Booking and lifecycle.
	InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsForDay(ctx context.Context, nutritionistID uuid.UUID, date time.Time) ([]Appointment, error)

	// Reminder worker.
	FindDueReminders(ctx context.Context, now time.Time) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error

	InsertEvent(ctx context.Context, ev EventLog) error
}
