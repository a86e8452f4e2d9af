package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/storage"
)

func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		a.serverError(w, r, "list users failed", err)
		return
	}
	writeData(w, http.StatusOK, users)
}

// ToggleUserStatus flips is_active. Admins cannot lock themselves out.
func (a *API) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == currentUser(r.Context()).ID {
		httpx.WriteError(w, http.StatusConflict, "you cannot change your own account status")
		return
	}
	u, err := a.users.ToggleActive(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) || storage.IsInvalidInput(err) {
			httpx.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		a.serverError(w, r, "toggle user failed", err)
		return
	}
	a.logger.Info("user status changed", "user_id", u.ID, "active", u.IsActive, "by", currentUser(r.Context()).ID)
	writeData(w, http.StatusOK, u)
}
