package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/monopay/monopay"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind monopay.Kind) int {
	switch kind {
	case monopay.KindValidation, monopay.KindConflict:
		return http.StatusBadRequest
	case monopay.KindUnauthorized:
		return http.StatusUnauthorized
	case monopay.KindNotFound:
		return http.StatusNotFound
	case monopay.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err. Anything that is not a *monopay.Error is
// reported as a generic internal error.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var e *monopay.Error
	if !errors.As(err, &e) {
		h.log.Error().Err(err).Msg("unclassified error")
		e = monopay.ErrInternal
	}
	writeJSON(w, StatusFor(e.Kind), errorResponse{
		Error: e.Message,
		Code:  e.Code,
		Field: string(e.Field),
	})
}

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyLen)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return &monopay.Error{
			Kind:    monopay.ErrInvalidRequestBody.Kind,
			Code:    monopay.ErrInvalidRequestBody.Code,
			Message: monopay.ErrInvalidRequestBody.Message,
			Err:     err,
		}
	}
	return nil
}
