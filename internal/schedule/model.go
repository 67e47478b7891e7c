package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type AppointmentType string

const (
	TypeInitial      AppointmentType = "initial"
	TypeFollowup     AppointmentType = "followup"
	TypeAssessment   AppointmentType = "assessment"
	TypeConsultation AppointmentType = "consultation"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeInitial, TypeFollowup, TypeAssessment, TypeConsultation:
		return true
	}
	return false
}

// Duration is the closed set of appointment lengths the clinic offers.
type Duration string

const (
	Duration30 Duration = "30min"
	Duration45 Duration = "45min"
	Duration60 Duration = "60min"
)

func (d Duration) Valid() bool {
	switch d {
	case Duration30, Duration45, Duration60:
		return true
	}
	return false
}

func (d Duration) Minutes() int {
	switch d {
	case Duration30:
		return 30
	case Duration45:
		return 45
	case Duration60:
		return 60
	}
	return 0
}

// SlotSpan is the number of consecutive base slots the duration consumes:
// a 45-minute appointment blocks its own slot plus the next, a 60-minute
// one its own slot plus the next two.
func (d Duration) SlotSpan() int {
	switch d {
	case Duration30:
		return 1
	case Duration45:
		return 2
	case Duration60:
		return 3
	}
	return 0
}

type ReminderType string

const (
	ReminderPush  ReminderType = "push"
	ReminderEmail ReminderType = "email"
	ReminderNone  ReminderType = "none"
)

func (r ReminderType) Valid() bool {
	switch r {
	case ReminderPush, ReminderEmail, ReminderNone:
		return true
	}
	return false
}

// ReminderLead is how far ahead of the appointment the reminder fires.
type ReminderLead string

const (
	Lead30Min ReminderLead = "30min"
	Lead1Hour ReminderLead = "1hour"
	Lead1Day  ReminderLead = "1day"
)

func (l ReminderLead) Valid() bool {
	switch l {
	case Lead30Min, Lead1Hour, Lead1Day:
		return true
	}
	return false
}

func (l ReminderLead) Duration() time.Duration {
	switch l {
	case Lead30Min:
		return 30 * time.Minute
	case Lead1Hour:
		return time.Hour
	case Lead1Day:
		return 24 * time.Hour
	}
	return 0
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Nutritionist struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeSlot is one bookable start time in a day's catalog. Available is
// computed per query, never persisted.
type TimeSlot struct {
	ID        string
	Time      TimeOfDay
	Available bool
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	NutritionistID  uuid.UUID
	Date            time.Time // calendar date, midnight UTC
	StartTime       TimeOfDay
	DurationMinutes int
	Type            AppointmentType
	Status          AppointmentStatus
	ReminderType    ReminderType
	RemindAt        *time.Time
	ReminderSentAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// End returns the exclusive end of the appointment's interval.
func (a *Appointment) End() TimeOfDay {
	return a.StartTime.Add(a.DurationMinutes)
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// ParseDate parses an ISO calendar date (no time component) into a
// midnight-UTC time.Time, the single representation used internally.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

func FormatDate(d time.Time) string {
	return d.Format("2006-01-02")
}
