package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/auth"
	"github.com/md-rashed-zaman/appointmed/libs/config"
	"github.com/md-rashed-zaman/appointmed/libs/grpcx"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	otelx "github.com/md-rashed-zaman/appointmed/libs/otel"
	"github.com/md-rashed-zaman/appointmed/libs/runtime"
	"github.com/md-rashed-zaman/appointmed/libs/viewrpc"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

//go:embed assets/gateway.v1.yaml
var openAPISpec embed.FS

func main() {
	_ = config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
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

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	verifier, err := auth.NewSigner(jwtSecret, 0, config.String("JWT_ISSUER", "appointmed"))
	if err != nil {
		panic(err)
	}

	conn, err := grpcx.Dial(config.String("BACKEND_GRPC_ADDR", "appointment-service:9091"), grpcx.DialOptions{})
	if err != nil {
		panic(err)
	}
	defer func() { _ = conn.Close() }()

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "backend", Check: grpcx.HealthCheck(conn, viewrpc.ServiceName, 2*time.Second)},
	)
	backendURL := mustParseURL(config.String("BACKEND_URL", "http://appointment-service:8081"))
	registerRoutes(mux, backendURL, verifier, viewrpc.NewClient(conn), logger)

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := config.Duration("REQUEST_TIMEOUT", 10*time.Second)
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
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

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

type summaryFetcher interface {
	Summary(ctx context.Context, in *viewrpc.SummaryRequest, opts ...grpc.CallOption) (*viewrpc.SummaryResponse, error)
}

func registerRoutes(mux *http.ServeMux, backend *url.URL, verifier auth.Verifier, views summaryFetcher, logger *slog.Logger) {
	proxy := httputil.NewSingleHostReverseProxy(backend)
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("backend proxy error", "err", err, "path", r.URL.Path, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusBadGateway, "backend unavailable")
	}

	registerProxy(mux, "/api/v1", proxy)
	// Served here from the backend's gRPC view service rather than proxied.
	mux.Handle("/api/v1/dashboard/summary", auth.RequireAuth(verifier)(dashboardSummary(views, logger)))

	mux.HandleFunc("/openapi", func(w http.ResponseWriter, _ *http.Request) {
		data, err := openAPISpec.ReadFile("assets/gateway.v1.yaml")
		if err != nil {
			http.Error(w, "openapi not available", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func dashboardSummary(views summaryFetcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		claims, _ := auth.ClaimsFromContext(r.Context())
		resp, err := views.Summary(r.Context(), &viewrpc.SummaryRequest{
			ActorID: claims.UserID(),
			Role:    claims.Role,
			View:    r.URL.Query().Get("view"),
		})
		if err != nil {
			switch status.Code(err) {
			case codes.InvalidArgument:
				httpx.WriteError(w, http.StatusBadRequest, status.Convert(err).Message())
			case codes.Unavailable, codes.DeadlineExceeded:
				httpx.WriteError(w, http.StatusServiceUnavailable, "appointment service unavailable")
			default:
				logger.Error("dashboard summary failed", "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
				httpx.WriteError(w, http.StatusBadGateway, "dashboard summary failed")
			}
			return
		}
		httpx.WriteJSON(w, http.StatusOK, struct {
			Data *viewrpc.SummaryResponse `json:"data"`
		}{Data: resp})
	}
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}
