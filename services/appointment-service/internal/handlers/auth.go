package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/auth"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required,min=6,max=72"`
	Phone           string  `json:"phone" validate:"max=32"`
	Role            string  `json:"role" validate:"omitempty,oneof=user provider patient doctor"`
	Specialty       string  `json:"specialty" validate:"max=120"`
	Experience      int     `json:"experience" validate:"gte=0,lte=80"`
	Bio             string  `json:"bio" validate:"max=2000"`
	Location        string  `json:"location" validate:"max=200"`
	ConsultationFee float64 `json:"consultationFee" validate:"gte=0"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name            string  `json:"name" validate:"max=120"`
	Phone           string  `json:"phone" validate:"max=32"`
	Specialty       string  `json:"specialty" validate:"max=120"`
	Experience      int     `json:"experience" validate:"gte=0,lte=80"`
	Bio             string  `json:"bio" validate:"max=2000"`
	Location        string  `json:"location" validate:"max=200"`
	ConsultationFee float64 `json:"consultationFee" validate:"gte=0"`
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      accounts.User `json:"user"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	role := access.RoleUser
	if req.Role != "" {
		parsed, err := access.ParseRole(req.Role)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		role = parsed
	}
	if role == access.RoleProvider && strings.TrimSpace(req.Specialty) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "specialty is required for providers")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		a.serverError(w, r, "hash password failed", err)
		return
	}
	rec := storage.UserRecord{
		User: accounts.User{
			ID:    uuid.NewString(),
			Name:  strings.TrimSpace(req.Name),
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
			Role:  role,
		},
		PasswordHash: hash,
	}
	if role == access.RoleProvider {
		rec.Specialty = strings.TrimSpace(req.Specialty)
		rec.Experience = req.Experience
		rec.Bio = strings.TrimSpace(req.Bio)
		rec.Location = strings.TrimSpace(req.Location)
		rec.ConsultationFee = req.ConsultationFee
	}

	u, err := a.users.Create(r.Context(), a.conn, rec)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			httpx.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		a.serverError(w, r, "create user failed", err)
		return
	}
	a.issue(w, r, http.StatusCreated, u)
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := a.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !storage.IsNotFound(err) {
		a.serverError(w, r, "load user failed", err)
		return
	}
	if err != nil || verifyPassword(rec.PasswordHash, req.Password) != nil {
		a.metrics.Logins.WithLabelValues("invalid").Inc()
		httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !rec.IsActive {
		a.metrics.Logins.WithLabelValues("inactive").Inc()
		httpx.WriteError(w, http.StatusForbidden, "account is deactivated")
		return
	}
	a.metrics.Logins.WithLabelValues("ok").Inc()
	a.issue(w, r, http.StatusOK, rec.User)
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, currentUser(r.Context()))
}

// UpdateProfile changes the account fields every role has.
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	a.saveProfile(w, r, storage.ProfileUpdate{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	})
}

func (a *API) saveProfile(w http.ResponseWriter, r *http.Request, p storage.ProfileUpdate) {
	u, err := a.users.UpdateProfile(r.Context(), currentUser(r.Context()).ID, p)
	if err != nil {
		a.serverError(w, r, "update profile failed", err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (a *API) issue(w http.ResponseWriter, r *http.Request, status int, u accounts.User) {
	token, exp, err := a.signer.Sign(auth.Subject{ID: u.ID, Role: string(u.Role), Name: u.Name, Email: u.Email})
	if err != nil {
		a.serverError(w, r, "sign token failed", err)
		return
	}
	writeData(w, status, authResponse{Token: token, ExpiresAt: exp, User: u})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
