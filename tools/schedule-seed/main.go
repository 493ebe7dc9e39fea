package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seeds a franchise with a class, a weekly schedule per requested weekday, and
// booking-policy settings, so the availability endpoints have data to serve in
// local development.
func main() {
	var (
		dbURL     = flag.String("database-url", getenv("DATABASE_URL", ""), "postgres connection string")
		franchise = flag.String("franchise-id", getenv("FRANCHISE_ID", ""), "franchise to seed (new uuid if empty)")
		className = flag.String("class-name", getenv("CLASS_NAME", "Lil Kickers"), "class name")
		days      = flag.String("days", getenv("SCHEDULE_DAYS", "2,4"), "comma-separated weekdays, 0=Sunday")
		startTime = flag.String("start-time", getenv("START_TIME", "10:00"), "class start time HH:MM")
		endTime   = flag.String("end-time", getenv("END_TIME", "11:00"), "class end time HH:MM")
		timezone  = flag.String("timezone", getenv("TIMEZONE", "America/New_York"), "location timezone")
		mode      = flag.String("mode", getenv("BOOKING_MODE", "MAX_DAYS_AHEAD"), "booking restriction mode")
		maxDays   = flag.Int("max-days-ahead", 14, "booking horizon in days")
		cancel    = flag.String("cancel-date", "", "optional YYYY-MM-DD to record as a cancelled session")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatal("DATABASE_URL is required")
	}
	if _, err := time.LoadLocation(*timezone); err != nil {
		fatal("invalid timezone: " + *timezone)
	}

	ctx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	franchiseID := strings.TrimSpace(*franchise)
	if franchiseID == "" {
		franchiseID = uuid.NewString()
	}

	locationID := uuid.NewString()
	if _, err := pool.Exec(ctx,
		`INSERT INTO locations (id, franchise_id, name, timezone) VALUES ($1, $2, $3, $4)`,
		locationID, franchiseID, "Dev Field", *timezone); err != nil {
		fatal(err.Error())
	}

	classID := uuid.NewString()
	if _, err := pool.Exec(ctx,
		`INSERT INTO classes (id, location_id, name, min_age, max_age) VALUES ($1, $2, $3, $4, $5)`,
		classID, locationID, *className, 3, 10); err != nil {
		fatal(err.Error())
	}

	var scheduleIDs []string
	for _, part := range strings.Split(*days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var dow int
		if _, err := fmt.Sscanf(part, "%d", &dow); err != nil || dow < 0 || dow > 6 {
			fatal("invalid weekday: " + part)
		}
		scheduleID := uuid.NewString()
		if _, err := pool.Exec(ctx,
			`INSERT INTO class_schedules (id, class_id, day_of_week, start_time, end_time, is_active)
			 VALUES ($1, $2, $3, $4, $5, true)`,
			scheduleID, classID, dow, *startTime, *endTime); err != nil {
			fatal(err.Error())
		}
		scheduleIDs = append(scheduleIDs, scheduleID)
	}
	if len(scheduleIDs) == 0 {
		fatal("no weekdays given")
	}

	settings := map[string]string{
		"booking_restriction": *mode,
		"max_days_ahead":      fmt.Sprintf("%d", *maxDays),
		"same_day_booking":    "true",
		"timezone":            *timezone,
	}
	for key, value := range settings {
		if _, err := pool.Exec(ctx,
			`INSERT INTO franchise_settings (id, franchise_id, setting_key, setting_value)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (franchise_id, setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`,
			uuid.NewString(), franchiseID, key, value); err != nil {
			fatal(err.Error())
		}
	}

	if raw := strings.TrimSpace(*cancel); raw != "" {
		when, err := time.Parse("2006-01-02", raw)
		if err != nil {
			fatal("invalid cancel-date: " + raw)
		}
		if _, err := pool.Exec(ctx,
			`INSERT INTO schedule_exceptions (id, class_schedule_id, exception_date, is_cancelled)
			 VALUES ($1, $2, $3, true)`,
			uuid.NewString(), scheduleIDs[0], when); err != nil {
			fatal(err.Error())
		}
	}

	fmt.Printf("franchise_id=%s class_id=%s schedules=%d\n", franchiseID, classID, len(scheduleIDs))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
