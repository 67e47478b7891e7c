package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/nutrivida/clinic-scheduling/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventReminderSent         = "REMINDER_SENT"
)

var (
	ErrUnauthenticated = errors.New("no authenticated session")
	ErrForbidden       = errors.New("operation not allowed for this session")

	// ErrInvalidInput covers malformed candidates: unknown duration or
	// type, a start time that is not a catalog slot for that date, or a
	// slot too close to closing to host the duration.
	ErrInvalidInput = errors.New("invalid booking input")

	// ErrScheduleBusy means another booking holds this schedule's lock
	// right now; the caller should retry shortly.
	ErrScheduleBusy = errors.New("schedule is being booked, retry")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// BookingRequest is a fully specified candidate appointment. The patient
// comes from the session, never from the request body.
type BookingRequest struct {
	NutritionistID uuid.UUID
	Date           time.Time
	StartTime      TimeOfDay
	Duration       Duration
	Type           AppointmentType
	Reminder       ReminderType
	ReminderLead   ReminderLead
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	catalog *Catalog
	log     zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, catalog *Catalog, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		catalog: catalog,
		log:     log,
	}
}

// GetAvailableSlots computes the day's slot list with availability flags
// for the given duration and nutritionist. It is a snapshot read: no
// caching, no mutation, stale the moment a concurrent booking lands. A
// store failure is reported as ErrStoreUnavailable, never as an empty
// (all-available) day.
func (s *Service) GetAvailableSlots(ctx context.Context, sess Session, date time.Time, d Duration, nutritionistID uuid.UUID) ([]TimeSlot, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !d.Valid() {
		return nil, fmt.Errorf("%w: unknown duration %q", ErrInvalidInput, d)
	}
	if nutritionistID == uuid.Nil {
		return nil, fmt.Errorf("%w: nutritionist is required", ErrInvalidInput)
	}

	slots := s.catalog.SlotsForDate(date)
	if len(slots) == 0 {
		return slots, nil
	}

	booked, err := s.repo.BookedIntervals(ctx, nutritionistID, date)
	if err != nil {
		return nil, err
	}

	return AvailableSlots(slots, coveredSlots(slots, booked), d), nil
}

// BookAppointment commits a reservation. Validation happens before any
// store interaction; the overlap pre-check and the insert run inside a
// per-(nutritionist, date) lock, and the storage layer's unique index is
// the final arbiter under concurrency. Exactly one appointment row
// exists on success, zero on any failure.
func (s *Service) BookAppointment(ctx context.Context, sess Session, req BookingRequest) (*Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPatientByID(ctx, sess.UserID); err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetNutritionistByID(ctx, req.NutritionistID); err != nil {
		return nil, fmt.Errorf("load nutritionist: %w", err)
	}

	var created *Appointment
	book := func(lockCtx context.Context) error {
		overlap, err := s.repo.HasOverlap(lockCtx, req.NutritionistID, req.Date, req.StartTime, req.Duration.Minutes())
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlap {
			return ErrSlotTaken
		}

		appt, err := s.repo.InsertAppointment(lockCtx, s.buildAppointment(sess, req))
		if err != nil {
			return err
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"patient_id":      sess.UserID.String(),
			"nutritionist_id": req.NutritionistID.String(),
			"date":            FormatDate(req.Date),
			"start_time":      req.StartTime.String(),
			"duration":        string(req.Duration),
		})
		return nil
	}

	err := s.locker.WithScheduleLock(ctx, req.NutritionistID, FormatDate(req.Date), book)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		return nil, ErrScheduleBusy
	case errors.Is(err, redisclient.ErrLockerDown):
		// Degraded path: without the lock the pre-check can race, but
		// the unique index still rejects a same-slot double booking.
		s.log.Warn().Err(err).Msg("booking without schedule lock")
		if err := book(ctx); err != nil {
			return nil, err
		}
		return created, nil
	default:
		return nil, err
	}
}

func (s *Service) validateBooking(req BookingRequest) error {
	if req.NutritionistID == uuid.Nil {
		return fmt.Errorf("%w: nutritionist is required", ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if !req.Duration.Valid() {
		return fmt.Errorf("%w: unknown duration %q", ErrInvalidInput, req.Duration)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown appointment type %q", ErrInvalidInput, req.Type)
	}
	if req.Reminder != "" && !req.Reminder.Valid() {
		return fmt.Errorf("%w: unknown reminder type %q", ErrInvalidInput, req.Reminder)
	}
	if req.ReminderLead != "" && !req.ReminderLead.Valid() {
		return fmt.Errorf("%w: unknown reminder lead %q", ErrInvalidInput, req.ReminderLead)
	}

	idx, ok := s.catalog.Contains(req.Date, req.StartTime)
	if !ok {
		return fmt.Errorf("%w: %s is not a slot on %s", ErrInvalidInput, req.StartTime.Short(), FormatDate(req.Date))
	}
	// Same bound the availability calculator enforces: the duration must
	// fit inside the day's slot list.
	if idx+req.Duration.SlotSpan() > s.catalog.DayLength(req.Date) {
		return fmt.Errorf("%w: %s duration does not fit at %s", ErrInvalidInput, req.Duration, req.StartTime.Short())
	}
	return nil
}

func (s *Service) buildAppointment(sess Session, req BookingRequest) *Appointment {
	reminder := req.Reminder
	if reminder == "" {
		reminder = ReminderPush
	}
	lead := req.ReminderLead
	if lead == "" {
		lead = Lead30Min
	}

	a := &Appointment{
		PatientID:       sess.UserID,
		NutritionistID:  req.NutritionistID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.Duration.Minutes(),
		Type:            req.Type,
		Status:          StatusScheduled,
		ReminderType:    reminder,
	}
	if reminder != ReminderNone {
		startAt := req.Date.Add(time.Duration(req.StartTime) * time.Minute)
		remindAt := startAt.Add(-lead.Duration())
		a.RemindAt = &remindAt
	}
	return a
}

// CancelAppointment moves a scheduled appointment to cancelled, freeing
// its slot for subsequent availability queries. Patients may cancel only
// their own appointments.
func (s *Service) CancelAppointment(ctx context.Context, sess Session, id uuid.UUID) (*Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.PatientID != sess.UserID && !sess.CanManageSchedule() {
		return nil, ErrForbidden
	}
	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status changed between the read and the update.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"by": sess.UserID.String(),
	})
	return updated, nil
}

// CompleteAppointment marks a scheduled appointment completed. Only a
// nutritionist or admin session may do this.
func (s *Service) CompleteAppointment(ctx context.Context, sess Session, id uuid.UUID) (*Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !sess.CanManageSchedule() {
		return nil, ErrForbidden
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			if _, getErr := s.repo.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"by": sess.UserID.String(),
	})
	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, sess Session, id uuid.UUID) (*Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != sess.UserID && !sess.CanManageSchedule() {
		return nil, ErrForbidden
	}
	return appt, nil
}

func (s *Service) ListPatientAppointments(ctx context.Context, sess Session, limit, offset int) ([]Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListAppointmentsByPatient(ctx, sess.UserID, limit, offset)
}

// DaySchedule returns a nutritionist's appointments for one date, the
// dashboard view.
func (s *Service) DaySchedule(ctx context.Context, sess Session, nutritionistID uuid.UUID, date time.Time) ([]Appointment, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !sess.CanManageSchedule() {
		return nil, ErrForbidden
	}
	return s.repo.ListAppointmentsForDay(ctx, nutritionistID, date)
}

func (s *Service) ListNutritionists(ctx context.Context, sess Session) ([]Nutritionist, error) {
	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListNutritionists(ctx)
}

// DispatchDueReminders is called periodically by the reminder worker.
// Delivery itself (push/email) belongs to an external collaborator; this
// marks the reminder consumed and records the event so a worker restart
// cannot re-send.
func (s *Service) DispatchDueReminders(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.FindDueReminders(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find due reminders: %w", err)
	}

	sent := 0
	for _, appt := range due {
		if err := s.repo.MarkReminderSent(ctx, appt.ID, now); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue // another worker got it first
			}
			s.log.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("mark reminder sent")
			continue
		}
		s.logEvent(ctx, appt.ID, EventReminderSent, map[string]any{
			"reminder_type": string(appt.ReminderType),
			"date":          FormatDate(appt.Date),
			"start_time":    appt.StartTime.String(),
		})
		sent++
	}
	return sent, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Stringer("appointment_id", appointmentID).Msg("insert event log")
	}
}
