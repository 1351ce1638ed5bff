package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/middlewares"
	"zemon/zemon/sources"
	"zemon/zemon/utils/logging"
)

var errUnauthorized = errors.New("unauthorized")

// generic wrapper to reduce boilerplate. A zero status on error means
// "derive it from the error".
func handleJSON(cfg config.Config, handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, r, cfg, status, err)
			return
		}
		writeJSON(w, status, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sources.ErrInvalid), errors.Is(err, sources.ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized), errors.Is(err, controllers.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, sources.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sources.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sources.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError sends {"error": ...}. Server errors get a generic message, with
// the cause in "details" outside production.
func writeError(w http.ResponseWriter, r *http.Request, cfg config.Config, status int, err error) {
	if status == 0 {
		status = statusFor(err)
	}
	body := map[string]string{"error": err.Error()}
	if status >= http.StatusInternalServerError {
		logging.ErrorLogger.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		body["error"] = http.StatusText(status)
		if !cfg.IsProduction() {
			body["details"] = err.Error()
		}
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", sources.ErrInvalid)
	}
	return nil
}

func userID(r *http.Request) (string, error) {
	id, ok := middlewares.UserID(r.Context())
	if !ok {
		return "", errUnauthorized
	}
	return id, nil
}
