package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

// stubService lets each test script the service layer's answer while the
// real middleware, routing and error mapping run.
type stubService struct {
	slots    func(sess schedule.Session, date time.Time, d schedule.Duration, nutritionistID uuid.UUID) ([]schedule.TimeSlot, error)
	book     func(sess schedule.Session, req schedule.BookingRequest) (*schedule.Appointment, error)
	cancel   func(sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error)
	complete func(sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error)
}

func (s *stubService) GetAvailableSlots(_ context.Context, sess schedule.Session, date time.Time, d schedule.Duration, nutritionistID uuid.UUID) ([]schedule.TimeSlot, error) {
	return s.slots(sess, date, d, nutritionistID)
}

func (s *stubService) BookAppointment(_ context.Context, sess schedule.Session, req schedule.BookingRequest) (*schedule.Appointment, error) {
	return s.book(sess, req)
}

func (s *stubService) CancelAppointment(_ context.Context, sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error) {
	return s.cancel(sess, id)
}

func (s *stubService) CompleteAppointment(_ context.Context, sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error) {
	return s.complete(sess, id)
}

func (s *stubService) GetAppointment(context.Context, schedule.Session, uuid.UUID) (*schedule.Appointment, error) {
	return nil, schedule.ErrAppointmentNotFound
}

func (s *stubService) ListPatientAppointments(context.Context, schedule.Session, int, int) ([]schedule.Appointment, error) {
	return nil, nil
}

func (s *stubService) DaySchedule(context.Context, schedule.Session, uuid.UUID, time.Time) ([]schedule.Appointment, error) {
	return nil, nil
}

func (s *stubService) ListNutritionists(context.Context, schedule.Session) ([]schedule.Nutritionist, error) {
	return nil, nil
}

func newTestRouter(svc BookingService) http.Handler {
	return NewRouter(RouterConfig{
		Service: svc,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
	})
}

func TestListSlots(t *testing.T) {
	nutriID := uuid.New()
	svc := &stubService{
		slots: func(sess schedule.Session, date time.Time, d schedule.Duration, id uuid.UUID) ([]schedule.TimeSlot, error) {
			if !sess.Authenticated() {
				return nil, schedule.ErrUnauthenticated
			}
			if id != nutriID {
				t.Errorf("nutritionist id = %s, want %s", id, nutriID)
			}
			return []schedule.TimeSlot{
				{ID: "1", Time: schedule.MustTimeOfDay("09:00"), Available: false},
				{ID: "2", Time: schedule.MustTimeOfDay("09:30"), Available: true},
			}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/slots?date=2024-06-10&duration=30min&nutritionist_id="+nutriID.String(), nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var body SlotListResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Slots) != 2 {
		t.Fatalf("slot count = %d, want 2", len(body.Slots))
	}
	if body.Slots[0].Time != "09:00:00" || body.Slots[0].Available {
		t.Errorf("slot[0] = %+v, want 09:00:00 unavailable", body.Slots[0])
	}
	if !body.Slots[1].Available {
		t.Errorf("slot[1] = %+v, want available", body.Slots[1])
	}
}

func TestListSlotsBadDate(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/slots?date=junk&nutritionist_id="+uuid.NewString(), nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBookAppointmentRoundTrip(t *testing.T) {
	patientID := uuid.New()
	nutriID := uuid.New()

	svc := &stubService{
		book: func(sess schedule.Session, req schedule.BookingRequest) (*schedule.Appointment, error) {
			if sess.UserID != patientID {
				t.Errorf("session user = %s, want %s", sess.UserID, patientID)
			}
			if req.StartTime != schedule.MustTimeOfDay("09:00") {
				t.Errorf("start time = %s, want 09:00:00", req.StartTime)
			}
			return &schedule.Appointment{
				ID:              uuid.New(),
				PatientID:       sess.UserID,
				NutritionistID:  req.NutritionistID,
				Date:            req.Date,
				StartTime:       req.StartTime,
				DurationMinutes: req.Duration.Minutes(),
				Type:            req.Type,
				Status:          schedule.StatusScheduled,
				ReminderType:    schedule.ReminderPush,
			}, nil
		},
	}
	router := newTestRouter(svc)

	payload := `{
		"nutritionist_id": "` + nutriID.String() + `",
		"date": "2024-06-10",
		"start_time": "09:00",
		"duration": "30min",
		"appointment_type": "followup"
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(payload))
	req.Header.Set("X-User-ID", patientID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}

	var body AppointmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.StartTime != "09:00:00" {
		t.Errorf("start_time = %q, want normalized 09:00:00", body.StartTime)
	}
	if body.Status != "scheduled" {
		t.Errorf("status = %q, want scheduled", body.Status)
	}
}

func TestBookAppointmentErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"conflict", schedule.ErrSlotTaken, http.StatusConflict, "slot_conflict"},
		{"busy", schedule.ErrScheduleBusy, http.StatusConflict, "schedule_busy"},
		{"invalid", schedule.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"outage", schedule.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{"unauthenticated", schedule.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{
				book: func(schedule.Session, schedule.BookingRequest) (*schedule.Appointment, error) {
					return nil, tc.serviceErr
				},
			}
			router := newTestRouter(svc)

			payload := `{
				"nutritionist_id": "` + uuid.NewString() + `",
				"date": "2024-06-10",
				"start_time": "09:00:00",
				"duration": "30min",
				"appointment_type": "followup"
			}`
			req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(payload))
			req.Header.Set("X-User-ID", uuid.NewString())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error != tc.wantCode {
				t.Errorf("error code = %q, want %q", body.Error, tc.wantCode)
			}
		})
	}
}

func TestBookAppointmentWithoutSession(t *testing.T) {
	svc := &stubService{
		book: func(sess schedule.Session, _ schedule.BookingRequest) (*schedule.Appointment, error) {
			if sess.Authenticated() {
				t.Error("expected empty session")
			}
			return nil, schedule.ErrUnauthenticated
		},
	}
	router := newTestRouter(svc)

	payload := `{
		"nutritionist_id": "` + uuid.NewString() + `",
		"date": "2024-06-10",
		"start_time": "09:00",
		"duration": "30min",
		"appointment_type": "followup"
	}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBookAppointmentMalformedBody(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{not json"))
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCancelAppointment(t *testing.T) {
	apptID := uuid.New()
	svc := &stubService{
		cancel: func(sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error) {
			if id != apptID {
				t.Errorf("cancel id = %s, want %s", id, apptID)
			}
			return &schedule.Appointment{
				ID:           apptID,
				Status:       schedule.StatusCancelled,
				ReminderType: schedule.ReminderPush,
			}, nil
		},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/appointments/"+apptID.String()+"/cancel", nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
}
