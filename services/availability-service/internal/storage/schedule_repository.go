package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jsprice87/fill-the-field-sub001/libs/db"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/model"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

const scheduleColumns = `
	cs.id::text,
	cs.class_id::text,
	cs.day_of_week,
	to_char(cs.start_time, 'HH24:MI'),
	to_char(cs.end_time, 'HH24:MI'),
	cs.date_start,
	cs.date_end,
	cs.is_active,
	c.min_age,
	c.max_age,
	COALESCE(l.timezone, '')`

// ListClassSchedules returns every schedule of a class, with the class's age
// bounds and the location timezone denormalized onto each row so the engine
// needs no further lookups.
func (r *ScheduleRepository) ListClassSchedules(ctx context.Context, classID string) ([]model.ClassSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM class_schedules cs
		JOIN classes c ON c.id = cs.class_id
		JOIN locations l ON l.id = c.location_id
		WHERE cs.class_id = $1
		ORDER BY cs.day_of_week ASC, cs.start_time ASC
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []model.ClassSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) GetSchedule(ctx context.Context, scheduleID string) (model.ClassSchedule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM class_schedules cs
		JOIN classes c ON c.id = cs.class_id
		JOIN locations l ON l.id = c.location_id
		WHERE cs.id = $1
	`, scheduleID)
	return scanSchedule(row)
}

// ListExceptions loads the cancellation rows for a set of schedules, grouped
// by schedule id. Duplicate rows per date are preserved; the engine resolves
// them (any cancelled row wins).
func (r *ScheduleRepository) ListExceptions(ctx context.Context, scheduleIDs []string) (map[string][]model.ScheduleException, error) {
	if len(scheduleIDs) == 0 {
		return map[string][]model.ScheduleException{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT class_schedule_id::text, exception_date, is_cancelled
		FROM schedule_exceptions
		WHERE class_schedule_id = ANY($1)
		ORDER BY exception_date ASC
	`, scheduleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[string][]model.ScheduleException)
	for rows.Next() {
		var ex model.ScheduleException
		if err := rows.Scan(&ex.ClassScheduleID, &ex.ExceptionDate, &ex.IsCancelled); err != nil {
			return nil, err
		}
		grouped[ex.ClassScheduleID] = append(grouped[ex.ClassScheduleID], ex)
	}
	return grouped, rows.Err()
}

func scanSchedule(row pgx.Row) (model.ClassSchedule, error) {
	var sched model.ClassSchedule
	err := row.Scan(
		&sched.ID,
		&sched.ClassID,
		&sched.DayOfWeek,
		&sched.StartTime,
		&sched.EndTime,
		&sched.DateStart,
		&sched.DateEnd,
		&sched.IsActive,
		&sched.MinAge,
		&sched.MaxAge,
		&sched.Timezone,
	)
	if err != nil {
		return model.ClassSchedule{}, err
	}
	return sched, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
