package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/booking"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/cache"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/storage"
)

// ScheduleStore is the schedule/exception lookup the handlers read from.
type ScheduleStore interface {
	ListClassSchedules(ctx context.Context, classID string) ([]model.ClassSchedule, error)
	GetSchedule(ctx context.Context, scheduleID string) (model.ClassSchedule, error)
	ListExceptions(ctx context.Context, scheduleIDs []string) (map[string][]model.ScheduleException, error)
}

type AvailabilityHandler struct {
	store    ScheduleStore
	policies policy.Provider
	cache    *cache.AvailabilityCache // nil disables caching
	clock    clock.Clock
	logger   *slog.Logger
}

func NewAvailabilityHandler(store ScheduleStore, policies policy.Provider, availCache *cache.AvailabilityCache, clk clock.Clock, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		store:    store,
		policies: policies,
		cache:    availCache,
		clock:    clk,
		logger:   logger,
	}
}

// ClassAvailability returns the bookable dates for a class, merged across its
// schedules. An empty list is a normal outcome, not an error.
func (h *AvailabilityHandler) ClassAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	classID := strings.TrimSpace(r.URL.Query().Get("class_id"))
	franchiseID := strings.TrimSpace(r.URL.Query().Get("franchise_id"))
	if classID == "" || franchiseID == "" {
		http.Error(w, "class_id and franchise_id are required", http.StatusBadRequest)
		return
	}

	var participantAge *int
	if raw := strings.TrimSpace(r.URL.Query().Get("participant_age")); raw != "" {
		age, err := strconv.Atoi(raw)
		if err != nil || age < 0 {
			http.Error(w, "invalid participant_age", http.StatusBadRequest)
			return
		}
		participantAge = &age
	}

	ctx := r.Context()
	pol, err := h.policies.BookingPolicy(ctx, franchiseID)
	if err != nil {
		h.logger.Error("booking policy lookup failed", "err", err, "franchise_id", franchiseID)
		http.Error(w, "failed to load booking policy", http.StatusInternalServerError)
		return
	}
	loc, err := pol.Location()
	if err != nil {
		h.logger.Error("booking policy has invalid timezone", "err", err, "franchise_id", franchiseID)
		http.Error(w, "invalid booking policy", http.StatusInternalServerError)
		return
	}

	now := h.clock.Now()
	cacheKey := evaluationKey(franchiseID, classID, participantAge, now, loc)
	if h.cache != nil {
		if payload, ok, err := h.cache.Get(ctx, cacheKey); err != nil {
			h.logger.Warn("availability cache read failed", "err", err)
		} else if ok {
			writeJSONBytes(w, payload)
			return
		}
	}

	schedules, err := h.store.ListClassSchedules(ctx, classID)
	if err != nil {
		http.Error(w, "failed to load schedules", http.StatusInternalServerError)
		return
	}

	ids := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		if sched.IsActive {
			ids = append(ids, sched.ID)
		}
	}
	exceptions, err := h.store.ListExceptions(ctx, ids)
	if err != nil {
		http.Error(w, "failed to load schedule exceptions", http.StatusInternalServerError)
		return
	}

	res, err := booking.ComputeAvailability(booking.Request{
		Schedules:            schedules,
		ExceptionsBySchedule: exceptions,
		Policy:               pol,
		ParticipantAge:       participantAge,
	}, now)
	if err != nil {
		h.logger.Error("availability evaluation rejected policy", "err", err, "franchise_id", franchiseID)
		http.Error(w, "invalid booking policy", http.StatusInternalServerError)
		return
	}
	for _, diag := range res.Skipped {
		h.logger.Warn("schedule skipped", "schedule_id", diag.ScheduleID, "reason", diag.Reason, "class_id", classID)
	}

	body, err := json.Marshal(res)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, body); err != nil {
			h.logger.Warn("availability cache write failed", "err", err)
		}
	}
	writeJSONBytes(w, body)
}

// ScheduleDates returns the bookable dates of one schedule, for date pickers
// bound to a specific class time slot.
func (h *AvailabilityHandler) ScheduleDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	scheduleID := strings.TrimSpace(r.URL.Query().Get("schedule_id"))
	franchiseID := strings.TrimSpace(r.URL.Query().Get("franchise_id"))
	if scheduleID == "" || franchiseID == "" {
		http.Error(w, "schedule_id and franchise_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sched, err := h.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "schedule not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	if !sched.IsActive {
		writeJSON(w, []model.AvailableDate{})
		return
	}

	exceptions, err := h.store.ListExceptions(ctx, []string{sched.ID})
	if err != nil {
		http.Error(w, "failed to load schedule exceptions", http.StatusInternalServerError)
		return
	}

	pol, err := h.policies.BookingPolicy(ctx, franchiseID)
	if err != nil {
		h.logger.Error("booking policy lookup failed", "err", err, "franchise_id", franchiseID)
		http.Error(w, "failed to load booking policy", http.StatusInternalServerError)
		return
	}

	dates, err := booking.ResolveSingleSchedule(sched, exceptions[sched.ID], pol, h.clock.Now())
	if err != nil {
		h.logger.Warn("schedule cannot be evaluated", "err", err, "schedule_id", scheduleID)
		http.Error(w, "schedule cannot be evaluated", http.StatusUnprocessableEntity)
		return
	}
	if dates == nil {
		dates = []model.AvailableDate{}
	}
	writeJSON(w, dates)
}

// evaluationKey canonicalizes the age through the parsed int so spellings
// like "07" and "7" share one cache entry.
func evaluationKey(franchiseID, classID string, age *int, now time.Time, loc *time.Location) cache.Key {
	ageKey := ""
	if age != nil {
		ageKey = strconv.Itoa(*age)
	}
	return cache.Key{
		FranchiseID:    franchiseID,
		ClassID:        classID,
		Day:            clock.DateString(now, loc),
		ParticipantAge: ageKey,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, body)
}

func writeJSONBytes(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
