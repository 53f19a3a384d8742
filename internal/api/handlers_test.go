package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

// stubBooking returns canned results so handler tests can focus on request
// parsing and the error-to-status mapping.
type stubBooking struct {
	detail *booking.AppointmentDetail
	list   []booking.AppointmentDetail
	err    error

	gotPatientID uuid.UUID
	gotDoctorID  uuid.UUID
	gotDay       string
	gotSlotIndex int
	gotStatus    booking.AppointmentStatus
}

func (s *stubBooking) CreateAppointment(ctx context.Context, patientID, doctorID uuid.UUID, day string, slotIndex int, reason string) (*booking.AppointmentDetail, error) {
	s.gotPatientID = patientID
	s.gotDoctorID = doctorID
	s.gotDay = day
	s.gotSlotIndex = slotIndex
	return s.detail, s.err
}

func (s *stubBooking) RescheduleAppointment(ctx context.Context, id uuid.UUID, newDay string, newSlotIndex int) (*booking.AppointmentDetail, error) {
	s.gotDay = newDay
	s.gotSlotIndex = newSlotIndex
	return s.detail, s.err
}

func (s *stubBooking) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status booking.AppointmentStatus) (*booking.AppointmentDetail, error) {
	s.gotStatus = status
	return s.detail, s.err
}

func (s *stubBooking) GetAppointment(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error) {
	return s.detail, s.err
}

func (s *stubBooking) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]booking.AppointmentDetail, error) {
	return s.list, s.err
}

func (s *stubBooking) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]booking.AppointmentDetail, error) {
	return s.list, s.err
}

type stubRules struct {
	rules []booking.AvailabilityRule
	err   error
}

func (s *stubRules) ListRules(ctx context.Context, doctorID uuid.UUID) ([]booking.AvailabilityRule, error) {
	return s.rules, s.err
}

func (s *stubRules) UpsertRule(ctx context.Context, rule booking.AvailabilityRule) (*booking.AvailabilityRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &rule, nil
}

func (s *stubRules) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []booking.AvailabilityRule) ([]booking.AvailabilityRule, error) {
	return rules, s.err
}

func (s *stubRules) DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error {
	return s.err
}

type stubProjector struct {
	status map[string]booking.SlotStatusSummary
	slots  []int
	err    error
}

func (s *stubProjector) DoctorSlotStatus(ctx context.Context, doctorID uuid.UUID) (map[string]booking.SlotStatusSummary, error) {
	return s.status, s.err
}

func (s *stubProjector) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error) {
	return s.slots, s.err
}

func newTestRouter(b BookingService, rules AvailabilityService, p SlotProjector) http.Handler {
	return NewRouter(RouterConfig{
		Booking:   b,
		Rules:     rules,
		Projector: p,
		Log:       zerolog.Nop(),
	})
}

func sampleDetail() *booking.AppointmentDetail {
	return &booking.AppointmentDetail{
		Appointment: booking.Appointment{
			ID:        uuid.New(),
			PatientID: uuid.New(),
			DoctorID:  uuid.New(),
			Day:       "monday",
			SlotIndex: 2,
			Reason:    "checkup",
			Status:    booking.StatusScheduled,
		},
		DoctorName: "Dr. Adams",
	}
}

func createBody(doctorID string, slotIndex int) *bytes.Buffer {
	return bytes.NewBufferString(fmt.Sprintf(
		`{"doctor_id":%q,"day":"monday","slotIndex":%d,"reason":"checkup"}`, doctorID, slotIndex))
}

func TestCreateAppointment_Created(t *testing.T) {
	svc := &stubBooking{detail: sampleDetail()}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	patientID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/appointments", createBody(uuid.NewString(), 2))
	req.Header.Set(userIDHeader, patientID.String())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotPatientID != patientID {
		t.Errorf("patient id not taken from %s header", userIDHeader)
	}
	if svc.gotSlotIndex != 2 {
		t.Errorf("expected slot index 2, got %d", svc.gotSlotIndex)
	}

	var resp AppointmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DoctorName != "Dr. Adams" {
		t.Errorf("expected enriched doctor name, got %q", resp.DoctorName)
	}
}

func TestCreateAppointment_MissingUserHeader(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", createBody(uuid.NewString(), 0))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateAppointment_BadDoctorID(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", createBody("not-a-uuid", 0))
	req.Header.Set(userIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateAppointment_BlankReason(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	body := bytes.NewBufferString(fmt.Sprintf(
		`{"doctor_id":%q,"day":"monday","slotIndex":0,"reason":"   "}`, uuid.NewString()))
	req := httptest.NewRequest(http.MethodPost, "/appointments", body)
	req.Header.Set(userIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateAppointment_MissingSlotIndexReachesService(t *testing.T) {
	svc := &stubBooking{err: &booking.Error{Kind: booking.KindInvalidSlot, Message: "slot index is required"}}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	body := bytes.NewBufferString(fmt.Sprintf(
		`{"doctor_id":%q,"day":"monday","reason":"checkup"}`, uuid.NewString()))
	req := httptest.NewRequest(http.MethodPost, "/appointments", body)
	req.Header.Set(userIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if svc.gotSlotIndex != -1 {
		t.Errorf("missing slotIndex should flow through as -1, got %d", svc.gotSlotIndex)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// Each failure kind must land on its contract status so clients can retry
// conflicts without treating them as caller bugs.
func TestBookingErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind       booking.ErrorKind
		wantStatus int
	}{
		{booking.KindInvalidDay, http.StatusBadRequest},
		{booking.KindInvalidSlot, http.StatusBadRequest},
		{booking.KindInvalidStatus, http.StatusBadRequest},
		{booking.KindSundayHoliday, http.StatusConflict},
		{booking.KindNoAvailability, http.StatusConflict},
		{booking.KindSlotTaken, http.StatusConflict},
		{booking.KindNotFound, http.StatusNotFound},
		{booking.KindValidationError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			svc := &stubBooking{err: &booking.Error{Kind: tc.kind, Message: "rejected"}}
			router := newTestRouter(svc, &stubRules{}, &stubProjector{})

			req := httptest.NewRequest(http.MethodPost, "/appointments", createBody(uuid.NewString(), 0))
			req.Header.Set(userIDHeader, uuid.NewString())
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("kind %s: expected %d, got %d", tc.kind, tc.wantStatus, rec.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error != string(tc.kind) {
				t.Errorf("expected error code %s, got %s", tc.kind, resp.Error)
			}
		})
	}
}

// Internal faults must not leak their cause to the caller.
func TestValidationErrorHidesDetail(t *testing.T) {
	svc := &stubBooking{err: &booking.Error{
		Kind:    booking.KindValidationError,
		Message: "validation failed due to an internal error",
	}}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodPost, "/appointments", createBody(uuid.NewString(), 0))
	req.Header.Set(userIDHeader, uuid.NewString())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Message != "internal error" {
		t.Errorf("expected generic message, got %q", resp.Message)
	}
}

func TestGetAppointment_BadID(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodGet, "/appointments/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReschedule_SlotTaken(t *testing.T) {
	svc := &stubBooking{err: &booking.Error{Kind: booking.KindSlotTaken, Message: "slot already booked"}}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	body := bytes.NewBufferString(`{"day":"tuesday","slotIndex":1}`)
	req := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/reschedule", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestStatusShorthandRoutes(t *testing.T) {
	cases := map[string]booking.AppointmentStatus{
		"confirm":  booking.StatusConfirmed,
		"complete": booking.StatusCompleted,
		"cancel":   booking.StatusCancelled,
	}

	for route, want := range cases {
		svc := &stubBooking{detail: sampleDetail()}
		router := newTestRouter(svc, &stubRules{}, &stubProjector{})

		req := httptest.NewRequest(http.MethodPatch, "/appointments/"+uuid.NewString()+"/"+route, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", route, rec.Code)
		}
		if svc.gotStatus != want {
			t.Errorf("%s: expected status %s, got %s", route, want, svc.gotStatus)
		}
	}
}

func TestUpdateStatus_PassesToken(t *testing.T) {
	svc := &stubBooking{detail: sampleDetail()}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	body := bytes.NewBufferString(`{"status":"confirmed"}`)
	req := httptest.NewRequest(http.MethodPatch, "/appointments/"+uuid.NewString()+"/status", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotStatus != booking.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", svc.gotStatus)
	}
}

func TestListPatientAppointments_WrapsList(t *testing.T) {
	svc := &stubBooking{list: []booking.AppointmentDetail{*sampleDetail(), *sampleDetail()}}
	router := newTestRouter(svc, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodGet, "/patients/"+uuid.NewString()+"/appointments", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Appointments []AppointmentResponse `json:"appointments"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Appointments) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(resp.Appointments))
	}
}

func TestSlotStatusRoute(t *testing.T) {
	projector := &stubProjector{status: map[string]booking.SlotStatusSummary{
		"sunday": {Status: booking.DayHoliday},
		"monday": {Status: booking.DayAvailable, SlotsAvailable: 3, TotalSlots: 5},
	}}
	router := newTestRouter(&stubBooking{}, &stubRules{}, projector)

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/slot-status", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]booking.SlotStatusSummary
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["sunday"].Status != booking.DayHoliday {
		t.Errorf("expected sunday holiday, got %+v", resp["sunday"])
	}
	if resp["monday"].SlotsAvailable != 3 {
		t.Errorf("expected 3 available monday slots, got %+v", resp["monday"])
	}
}

func TestAvailableSlots_RequiresDay(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/slots", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without day param, got %d", rec.Code)
	}
}

func TestAvailableSlots_NormalizesDayInResponse(t *testing.T) {
	projector := &stubProjector{slots: []int{0, 2, 4}}
	router := newTestRouter(&stubBooking{}, &stubRules{}, projector)

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/slots?day=MONDAY", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Day            string `json:"day"`
		AvailableSlots []int  `json:"availableSlots"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Day != "monday" {
		t.Errorf("expected normalized day, got %q", resp.Day)
	}
	if len(resp.AvailableSlots) != 3 {
		t.Errorf("expected 3 slots, got %v", resp.AvailableSlots)
	}
}

func TestUpsertAvailability_SundayConflict(t *testing.T) {
	rules := &stubRules{err: &booking.Error{Kind: booking.KindSundayHoliday, Message: "clinic holiday"}}
	router := newTestRouter(&stubBooking{}, rules, &stubProjector{})

	body := bytes.NewBufferString(`{"day_of_week":"sunday","totalSlots":5}`)
	req := httptest.NewRequest(http.MethodPost, "/doctors/"+uuid.NewString()+"/availability", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReplaceAvailability_OK(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	body := bytes.NewBufferString(`{"availability":[{"day_of_week":"monday","totalSlots":5},{"day_of_week":"friday","totalSlots":8}]}`)
	req := httptest.NewRequest(http.MethodPut, "/doctors/"+uuid.NewString()+"/availability", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Availability []AvailabilityRuleResponse `json:"availability"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Availability) != 2 {
		t.Errorf("expected 2 rules, got %d", len(resp.Availability))
	}
}

func TestDeleteAvailability_NoContent(t *testing.T) {
	router := newTestRouter(&stubBooking{}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodDelete,
		"/doctors/"+uuid.NewString()+"/availability/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(&stubBooking{detail: sampleDetail()}, &stubRules{}, &stubProjector{})

	req := httptest.NewRequest(http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
	if strings.TrimSpace(rec.Body.String()) == "" {
		t.Error("expected a response body")
	}
}
