package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jsprice87/fill-the-field-sub001/libs/config"
	"github.com/jsprice87/fill-the-field-sub001/libs/db"
	"github.com/jsprice87/fill-the-field-sub001/libs/httpx"
	"github.com/jsprice87/fill-the-field-sub001/libs/kafkax"
	otelx "github.com/jsprice87/fill-the-field-sub001/libs/otel"
	"github.com/jsprice87/fill-the-field-sub001/libs/runtime"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/cache"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/clock"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/consumer"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/handlers"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/inbox"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/policy"
	"github.com/jsprice87/fill-the-field-sub001/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// defaultPolicy starts from the fully-populated default and applies env
// overrides on top, so explicit values (including zero) are kept as given
// and Validate in main rejects garbage.
func defaultPolicy() policy.Policy {
	pol := policy.Default()
	pol.Mode = policy.Mode(config.String("DEFAULT_BOOKING_MODE", string(pol.Mode)))
	pol.MaxDaysAhead = config.Int("DEFAULT_MAX_DAYS_AHEAD", policy.DefaultMaxDaysAhead)
	pol.CutoffHour = config.Int("SAME_DAY_CUTOFF_HOUR", pol.CutoffHour)
	pol.Timezone = config.String("DEFAULT_TIMEZONE", pol.Timezone)
	return pol
}

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	scheduleRepo := storage.NewScheduleRepository(pool)
	settingsRepo := storage.NewSettingsRepository(pool)

	fallback := defaultPolicy()
	if err := fallback.Validate(); err != nil {
		logger.Error("default booking policy invalid", "err", err)
		panic(err)
	}
	settingsProvider := policy.NewSettingsProvider(settingsRepo, fallback)
	policyProvider, err := policy.NewFranchisePolicyProvider(logger, settingsProvider, config.String("FRANCHISE_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("policy provider init failed; using settings provider", "err", err)
		policyProvider = settingsProvider
	}

	var rdb *redis.Client
	var availCache *cache.AvailabilityCache
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		ttl := time.Duration(config.Int("CACHE_TTL_SECONDS", 300)) * time.Second
		availCache = cache.New(rdb, ttl)
		logger.Info("availability cache enabled", "redis_addr", addr, "ttl", ttl)
	}

	inboxRepo := inbox.NewRepository(pool)
	if topic := strings.TrimSpace(config.String("KAFKA_CONSUME_TOPIC", "scheduling.class_schedule.changed.v1")); topic != "" {
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "availability-service"),
			Topic:   topic,
		}, consumer.NewScheduleChangeHandler(logger, availCache))
		go eventConsumer.Run(ctx)
	}

	availabilityHandler := handlers.NewAvailabilityHandler(scheduleRepo, policyProvider, availCache, clock.System(), logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}
	if rdb != nil {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "redis", Check: cache.ReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/public/availability", availabilityHandler.ClassAvailability)
	mux.HandleFunc("/api/v1/public/schedule-dates", availabilityHandler.ScheduleDates)

	bodyLimit := int64(1 << 20) // 1MB
	if v, err := strconv.Atoi(config.String("REQUEST_BODY_LIMIT_BYTES", "1048576")); err == nil && v > 0 {
		bodyLimit = int64(v)
	}
	requestTimeout := 10 * time.Second
	if v, err := strconv.Atoi(config.String("REQUEST_TIMEOUT_SECONDS", "10")); err == nil && v > 0 {
		requestTimeout = time.Duration(v) * time.Second
	}
	limitPerMinute := 120
	if v, err := strconv.Atoi(config.String("RATE_LIMIT_PER_MINUTE", "120")); err == nil && v > 0 {
		limitPerMinute = v
	}

	var rateLimitMW httpx.Middleware
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: parseList(config.String("CORS_ALLOWED_METHODS", "GET,OPTIONS")),
			AllowedHeaders: parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id")),
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
