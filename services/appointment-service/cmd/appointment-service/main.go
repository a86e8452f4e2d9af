package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/appointmed/libs/auth"
	"github.com/md-rashed-zaman/appointmed/libs/config"
	"github.com/md-rashed-zaman/appointmed/libs/db"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/libs/kafkax"
	otelx "github.com/md-rashed-zaman/appointmed/libs/otel"
	"github.com/md-rashed-zaman/appointmed/libs/runtime"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/availability"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/handlers"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/metrics"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/outbox"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "appointment-service")
	port, err := config.Port("PORT", "8081")
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
	secret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	signer, err := auth.NewSigner(secret, time.Duration(config.Int("JWT_TTL_HOURS", 24))*time.Hour, config.String("JWT_ISSUER", "appointmed"))
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	slots := availability.Config{
		DayStart: config.Duration("SLOT_DAY_START", 9*time.Hour),
		DayEnd:   config.Duration("SLOT_DAY_END", 17*time.Hour),
		Length:   time.Duration(config.Int("SLOT_LENGTH_MINUTES", 60)) * time.Minute,
	}
	if !slots.Valid() {
		logger.Warn("invalid slot configuration, using defaults", "day_start", slots.DayStart, "day_end", slots.DayEnd, "length", slots.Length)
		slots = availability.DefaultConfig()
	}

	api := handlers.New(handlers.Config{
		Conn:          pool,
		Signer:        signer,
		Metrics:       metrics.New(reg),
		Slots:         slots,
		AuthRateLimit: config.Int("AUTH_RATE_LIMIT_PER_MINUTE", 20),
		Logger:        logger,
	})

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", "localhost:9092"))
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if config.Bool("OUTBOX_PUBLISHER_ENABLED", true) {
		writer := kafkax.NewWriter(brokers)
		defer writer.Close()
		publisher := outbox.NewPublisher(pool, outbox.NewRepository(), writer, logger, outbox.PublisherConfig{
			PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	httpMetrics := httpx.NewHTTPMetrics(reg, service, handlers.RouteLabel)
	router := chi.NewRouter()
	router.Use(httpMetrics.Middleware())
	router.Mount("/api/v1", api.Routes())

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/v1/", router)
	mux.Handle("/metrics", httpx.MetricsHandler(reg))

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(1<<20),
	)
	handler = otelhttp.NewHandler(handler, "appointments")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	if err := startGrpcServer(ctx, logger, storage.NewAppointmentRepository(pool)); err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
