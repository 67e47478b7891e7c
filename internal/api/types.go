package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

type BookAppointmentRequest struct {
	NutritionistID string `json:"nutritionist_id"`
	Date           string `json:"date"`       // YYYY-MM-DD
	StartTime      string `json:"start_time"` // HH:MM or HH:MM:SS
	Duration       string `json:"duration"`   // 30min | 45min | 60min
	Type           string `json:"appointment_type"`
	ReminderType   string `json:"reminder_type,omitempty"`
	ReminderLead   string `json:"reminder_lead,omitempty"`
}

type SlotResponse struct {
	ID        string `json:"id"`
	Time      string `json:"time"` // HH:MM:SS
	Available bool   `json:"available"`
}

type SlotListResponse struct {
	Date     string         `json:"date"`
	Duration string         `json:"duration"`
	Slots    []SlotResponse `json:"slots"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	NutritionistID  uuid.UUID  `json:"nutritionist_id"`
	Date            string     `json:"date"`
	StartTime       string     `json:"start_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Type            string     `json:"appointment_type"`
	Status          string     `json:"status"`
	ReminderType    string     `json:"reminder_type"`
	RemindAt        *time.Time `json:"remind_at,omitempty"`
}

type NutritionistResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponses(slots []schedule.TimeSlot) []SlotResponse {
	out := make([]SlotResponse, len(slots))
	for i, s := range slots {
		out[i] = SlotResponse{
			ID:        s.ID,
			Time:      s.Time.String(),
			Available: s.Available,
		}
	}
	return out
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		NutritionistID:  a.NutritionistID,
		Date:            schedule.FormatDate(a.Date),
		StartTime:       a.StartTime.String(),
		DurationMinutes: a.DurationMinutes,
		Type:            string(a.Type),
		Status:          string(a.Status),
		ReminderType:    string(a.ReminderType),
		RemindAt:        a.RemindAt,
	}
}

func toAppointmentResponses(appts []schedule.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, len(appts))
	for i := range appts {
		out[i] = toAppointmentResponse(&appts[i])
	}
	return out
}
