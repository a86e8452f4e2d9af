package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/auth"
	"github.com/md-rashed-zaman/appointmed/libs/db"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/availability"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/metrics"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/outbox"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
)

type Config struct {
	Conn    db.Conn
	Signer  *auth.Signer
	Metrics *metrics.Metrics
	Slots   availability.Config
	// AuthRateLimit caps login and register attempts per client IP per minute.
	AuthRateLimit int
	Logger        *slog.Logger
	Now           func() time.Time
}

// API serves the REST endpoints under /api/v1.
type API struct {
	conn      db.Conn
	users     *storage.UserRepository
	appts     *storage.AppointmentRepository
	outbox    *outbox.Repository
	signer    *auth.Signer
	metrics   *metrics.Metrics
	slots     availability.Config
	authLimit int
	logger    *slog.Logger
	now       func() time.Time
}

func New(cfg Config) *API {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}
	if !cfg.Slots.Valid() {
		cfg.Slots = availability.DefaultConfig()
	}
	return &API{
		conn:      cfg.Conn,
		users:     storage.NewUserRepository(cfg.Conn),
		appts:     storage.NewAppointmentRepository(cfg.Conn),
		outbox:    outbox.NewRepository(),
		signer:    cfg.Signer,
		metrics:   cfg.Metrics,
		slots:     cfg.Slots,
		authLimit: cfg.AuthRateLimit,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	throttle := httprate.LimitByIP(a.authLimit, time.Minute)
	role := func(roles ...access.Role) func(http.Handler) http.Handler {
		names := make([]string, len(roles))
		for i, rl := range roles {
			names[i] = string(rl)
		}
		return auth.RequireRole(names...)
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(throttle).Post("/register", a.Register)
		r.With(throttle).Post("/login", a.Login)
		r.Group(func(r chi.Router) {
			r.Use(a.authenticated()...)
			r.Get("/me", a.Me)
			r.Put("/profile", a.UpdateProfile)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authenticated()...)

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", a.ListProviders)
			r.With(role(access.RoleProvider)).Put("/profile", a.UpdateProviderProfile)
			r.Get("/{id}", a.GetProvider)
			r.Get("/{id}/slots", a.ProviderSlots)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.With(role(access.RoleUser)).Post("/", a.Book)
			r.With(role(access.RoleAdmin)).Get("/", a.listAppointments(func(accounts.User) storage.Scope { return storage.Scope{} }))
			r.With(role(access.RoleUser)).Get("/my", a.listAppointments(func(u accounts.User) storage.Scope {
				return storage.Scope{UserID: u.ID}
			}))
			r.With(role(access.RoleProvider)).Get("/provider", a.listAppointments(func(u accounts.User) storage.Scope {
				return storage.Scope{ProviderID: u.ID}
			}))
			r.With(role(access.RoleProvider, access.RoleAdmin)).Put("/{id}/status", a.UpdateStatus)
			r.With(role(access.RoleUser)).Put("/{id}/cancel", a.Cancel)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(role(access.RoleAdmin))
			r.Get("/", a.ListUsers)
			r.Put("/{id}/toggle-status", a.ToggleUserStatus)
		})
	})
	return r
}

// RouteLabel is the matched route pattern, used as a metrics label.
func RouteLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type ctxKey struct{}

// authenticated verifies the bearer token and loads the account behind it.
// Deactivated accounts are refused even while their token is still valid.
func (a *API) authenticated() []func(http.Handler) http.Handler {
	load := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := auth.ClaimsFromContext(r.Context())
			u, err := a.users.GetByID(r.Context(), claims.UserID())
			if err != nil {
				if storage.IsNotFound(err) {
					httpx.WriteError(w, http.StatusUnauthorized, "not authorized, account not found")
					return
				}
				a.serverError(w, r, "load account failed", err)
				return
			}
			if !u.IsActive {
				httpx.WriteError(w, http.StatusForbidden, "account is deactivated")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
		})
	}
	return []func(http.Handler) http.Handler{auth.RequireAuth(a.signer), load}
}

func currentUser(ctx context.Context) accounts.User {
	u, _ := ctx.Value(ctxKey{}).(accounts.User)
	return u
}
