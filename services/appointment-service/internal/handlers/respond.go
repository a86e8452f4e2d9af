package handlers

import (
	"errors"
	"net/http"

	"github.com/md-rashed-zaman/appointmed/libs/appointments"
	"github.com/md-rashed-zaman/appointmed/libs/httpx"
)

type envelope struct {
	Data   any                 `json:"data"`
	Counts appointments.Counts `json:"counts,omitempty"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	httpx.WriteJSON(w, status, envelope{Data: v})
}

// decode writes a 400 and returns false when the body is malformed or invalid.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(r, dst); err != nil {
		var de *httpx.DecodeError
		if errors.As(err, &de) {
			httpx.WriteError(w, http.StatusBadRequest, de.Msg)
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (a *API) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	a.logger.Error(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()), "path", r.URL.Path)
	httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
}
