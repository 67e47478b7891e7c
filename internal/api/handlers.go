package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

func listSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		date, err := schedule.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		duration := schedule.Duration(q.Get("duration"))
		if duration == "" {
			duration = schedule.Duration30
		}
		nutritionistID, err := uuid.Parse(q.Get("nutritionist_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_nutritionist_id", "nutritionist_id must be a valid UUID")
			return
		}

		slots, err := svc.GetAvailableSlots(r.Context(), GetSession(r.Context()), date, duration, nutritionistID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SlotListResponse{
			Date:     schedule.FormatDate(date),
			Duration: string(duration),
			Slots:    toSlotResponses(slots),
		})
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		nutritionistID, err := uuid.Parse(req.NutritionistID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_nutritionist_id", "nutritionist_id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		startTime, err := schedule.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM or HH:MM:SS")
			return
		}

		appt, err := svc.BookAppointment(r.Context(), GetSession(r.Context()), schedule.BookingRequest{
			NutritionistID: nutritionistID,
			Date:           date,
			StartTime:      startTime,
			Duration:       schedule.Duration(req.Duration),
			Type:           schedule.AppointmentType(req.Type),
			Reminder:       schedule.ReminderType(req.ReminderType),
			ReminderLead:   schedule.ReminderLead(req.ReminderLead),
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), GetSession(r.Context()), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), GetSession(r.Context()), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.CompleteAppointment(r.Context(), GetSession(r.Context()), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		appts, err := svc.ListPatientAppointments(r.Context(), GetSession(r.Context()), limit, offset)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func dayScheduleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nutritionistID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_nutritionist_id", "id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.DaySchedule(r.Context(), GetSession(r.Context()), nutritionistID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func listNutritionistsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nutritionists, err := svc.ListNutritionists(r.Context(), GetSession(r.Context()))
		if err != nil {
			handleServiceError(w, err)
			return
		}

		out := make([]NutritionistResponse, len(nutritionists))
		for i, n := range nutritionists {
			out[i] = NutritionistResponse{ID: n.ID, Name: n.Name, Specialty: n.Specialty}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleServiceError maps the service's error taxonomy onto HTTP. Every
// kind stays distinct; in particular a store outage is 503, never an
// empty 200.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid session is required")
	case errors.Is(err, schedule.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, schedule.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, schedule.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_conflict", "the slot was booked by someone else, pick another")
	case errors.Is(err, schedule.ErrScheduleBusy):
		writeError(w, http.StatusConflict, "schedule_busy", "the schedule is being booked right now, retry shortly")
	case errors.Is(err, schedule.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, schedule.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, schedule.ErrNutritionistNotFound):
		writeError(w, http.StatusNotFound, "nutritionist_not_found", err.Error())
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the appointment store is unreachable, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
