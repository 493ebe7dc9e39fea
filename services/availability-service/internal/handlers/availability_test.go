package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
)

type fakeStore struct {
	schedules  []model.ClassSchedule
	exceptions map[string][]model.ScheduleException
	listErr    error
}

func (f *fakeStore) ListClassSchedules(_ context.Context, _ string) ([]model.ClassSchedule, error) {
	return f.schedules, f.listErr
}

func (f *fakeStore) GetSchedule(_ context.Context, scheduleID string) (model.ClassSchedule, error) {
	for _, sched := range f.schedules {
		if sched.ID == scheduleID {
			return sched, nil
		}
	}
	return model.ClassSchedule{}, pgx.ErrNoRows
}

func (f *fakeStore) ListExceptions(_ context.Context, _ []string) (map[string][]model.ScheduleException, error) {
	return f.exceptions, nil
}

func testHandler(t *testing.T, store *fakeStore, pol policy.Policy, now time.Time) *AvailabilityHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	return NewAvailabilityHandler(store, policy.NewStaticProvider(pol), nil, clock.Fixed(now), logger)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Tuesday, before the same-day cutoff.
	return time.Date(2025, 6, 10, 10, 0, 0, 0, loc)
}

func maxDaysPolicy(n int) policy.Policy {
	pol := policy.Default()
	pol.Mode = policy.ModeMaxDaysAhead
	pol.MaxDaysAhead = n
	return pol
}

type availabilityResponse struct {
	Dates   []model.AvailableDate `json:"dates"`
	Skipped []struct {
		ScheduleID string `json:"schedule_id"`
		Reason     string `json:"reason"`
	} `json:"skipped"`
}

func TestClassAvailability(t *testing.T) {
	store := &fakeStore{
		schedules: []model.ClassSchedule{
			{ID: "s1", ClassID: "c1", DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00", IsActive: true},
		},
	}
	h := testHandler(t, store, maxDaysPolicy(14), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?class_id=c1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := []string{"2025-06-10", "2025-06-17"}
	if len(resp.Dates) != len(want) {
		t.Fatalf("expected %d dates, got %+v", len(want), resp.Dates)
	}
	for i, d := range resp.Dates {
		if d.Date != want[i] {
			t.Fatalf("date %d: expected %s, got %s", i, want[i], d.Date)
		}
	}
	if !resp.Dates[0].IsNextAvailable || resp.Dates[1].IsNextAvailable {
		t.Fatalf("expected only the first date flagged next available: %+v", resp.Dates)
	}
}

func TestClassAvailabilityMissingParams(t *testing.T) {
	h := testHandler(t, &fakeStore{}, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?class_id=c1", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing franchise_id, got %d", rec.Code)
	}
}

func TestClassAvailabilityBadAge(t *testing.T) {
	h := testHandler(t, &fakeStore{}, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?class_id=c1&franchise_id=f1&participant_age=x", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad participant_age, got %d", rec.Code)
	}
}

func TestClassAvailabilityAgeFilter(t *testing.T) {
	minAge, maxAge := 5, 8
	store := &fakeStore{
		schedules: []model.ClassSchedule{
			{ID: "s1", ClassID: "c1", DayOfWeek: 2, StartTime: "10:00", EndTime: "11:00", IsActive: true, MinAge: &minAge, MaxAge: &maxAge},
		},
	}
	h := testHandler(t, store, maxDaysPolicy(14), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?class_id=c1&franchise_id=f1&participant_age=12", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Dates) != 0 {
		t.Fatalf("expected no dates for ineligible age, got %+v", resp.Dates)
	}
}

func TestClassAvailabilityEmptyIsOK(t *testing.T) {
	h := testHandler(t, &fakeStore{}, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/availability?class_id=c1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for class with no schedules, got %d", rec.Code)
	}
	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Dates == nil || len(resp.Dates) != 0 {
		t.Fatalf("expected empty dates array, got %+v", resp.Dates)
	}
}

func TestScheduleDates(t *testing.T) {
	store := &fakeStore{
		schedules: []model.ClassSchedule{
			{ID: "s1", ClassID: "c1", DayOfWeek: 4, StartTime: "16:00", EndTime: "17:00", IsActive: true},
		},
	}
	h := testHandler(t, store, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/schedule-dates?schedule_id=s1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ScheduleDates(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var dates []model.AvailableDate
	if err := json.Unmarshal(rec.Body.Bytes(), &dates); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(dates) != 1 || dates[0].Date != "2025-06-12" {
		t.Fatalf("expected next Thursday only, got %+v", dates)
	}
}

func TestScheduleDatesNotFound(t *testing.T) {
	h := testHandler(t, &fakeStore{}, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/schedule-dates?schedule_id=missing&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ScheduleDates(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestScheduleDatesInactive(t *testing.T) {
	store := &fakeStore{
		schedules: []model.ClassSchedule{
			{ID: "s1", ClassID: "c1", DayOfWeek: 4, StartTime: "16:00", EndTime: "17:00", IsActive: false},
		},
	}
	h := testHandler(t, store, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/schedule-dates?schedule_id=s1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ScheduleDates(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for inactive schedule, got %d", rec.Code)
	}
	var dates []model.AvailableDate
	if err := json.Unmarshal(rec.Body.Bytes(), &dates); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(dates) != 0 {
		t.Fatalf("expected empty dates for inactive schedule, got %+v", dates)
	}
}

func TestScheduleDatesInvalidSchedule(t *testing.T) {
	store := &fakeStore{
		schedules: []model.ClassSchedule{
			{ID: "s1", ClassID: "c1", DayOfWeek: 9, StartTime: "16:00", EndTime: "17:00", IsActive: true},
		},
	}
	h := testHandler(t, store, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/schedule-dates?schedule_id=s1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ScheduleDates(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for invalid schedule, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := testHandler(t, &fakeStore{}, policy.Default(), fixedNow(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/availability?class_id=c1&franchise_id=f1", nil)
	rec := httptest.NewRecorder()
	h.ClassAvailability(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestEvaluationKeyCanonicalizesAge(t *testing.T) {
	now := fixedNow(t)
	loc := now.Location()

	padded, err := strconv.Atoi("07")
	if err != nil {
		t.Fatalf("atoi: %v", err)
	}
	plain := 7
	if got, want := evaluationKey("f1", "c1", &padded, now, loc), evaluationKey("f1", "c1", &plain, now, loc); got != want {
		t.Fatalf("expected identical keys for equal ages, got %+v vs %+v", got, want)
	}

	keyed := evaluationKey("f1", "c1", &plain, now, loc)
	if keyed.ParticipantAge != "7" {
		t.Fatalf("expected canonical age %q, got %q", "7", keyed.ParticipantAge)
	}
	if noAge := evaluationKey("f1", "c1", nil, now, loc); noAge.ParticipantAge != "" {
		t.Fatalf("expected empty age component, got %q", noAge.ParticipantAge)
	}
}
