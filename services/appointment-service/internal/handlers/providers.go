package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/appointmed/libs/accounts"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/availability"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
)

func (a *API) ListProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := a.users.ListProviders(r.Context(), storage.ProviderFilter{
		Specialty: q.Get("specialty"),
		Search:    q.Get("search"),
		Location:  q.Get("location"),
	})
	if err != nil {
		a.serverError(w, r, "list providers failed", err)
		return
	}
	out := make([]accounts.Provider, 0, len(users))
	for _, u := range users {
		out = append(out, u.Provider())
	}
	writeData(w, http.StatusOK, out)
}

func (a *API) GetProvider(w http.ResponseWriter, r *http.Request) {
	u, ok := a.loadProvider(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, u.Provider())
}

// ProviderSlots lists the open slots of ?date=YYYY-MM-DD (UTC).
func (a *API) ProviderSlots(w http.ResponseWriter, r *http.Request) {
	day, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(r.URL.Query().Get("date")), time.UTC)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}
	if _, ok := a.loadProvider(w, r); !ok {
		return
	}
	slots := availability.DailySlots(day, a.slots, a.now())
	if slots == nil {
		slots = []accounts.Slot{}
	}
	writeData(w, http.StatusOK, slots)
}

func (a *API) UpdateProviderProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	a.saveProfile(w, r, storage.ProfileUpdate{
		Name:            strings.TrimSpace(req.Name),
		Phone:           strings.TrimSpace(req.Phone),
		Specialty:       strings.TrimSpace(req.Specialty),
		Experience:      req.Experience,
		Bio:             strings.TrimSpace(req.Bio),
		Location:        strings.TrimSpace(req.Location),
		ConsultationFee: req.ConsultationFee,
	})
}

func (a *API) loadProvider(w http.ResponseWriter, r *http.Request) (accounts.User, bool) {
	u, err := a.users.GetProvider(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if storage.IsNotFound(err) || storage.IsInvalidInput(err) {
			httpx.WriteError(w, http.StatusNotFound, "provider not found")
			return accounts.User{}, false
		}
		a.serverError(w, r, "load provider failed", err)
		return accounts.User{}, false
	}
	return u, true
}
