package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-marketplace-orders/internal/analytics"
	"github.com/ariefcatur/go-marketplace-orders/internal/auth"
	"github.com/ariefcatur/go-marketplace-orders/internal/catalog"
	"github.com/ariefcatur/go-marketplace-orders/internal/orders"
	"github.com/ariefcatur/go-marketplace-orders/internal/urgentsales"
)

// envelope is the body of every API response. status is "success", "fail"
// for client errors or "error" for server errors.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func success(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Status: "success", Data: data})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, orders.ErrForbidden), errors.Is(err, catalog.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, catalog.ErrNotFound), errors.Is(err, urgentsales.ErrNotFound),
		errors.Is(err, urgentsales.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, orders.ErrValidation), errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrInsufficientStock), errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, urgentsales.ErrInvalid), errors.Is(err, analytics.ErrInvalidPeriod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status statusFor picks. Server errors are logged
// and their message is not echoed to the client.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, code, envelope{Status: "error", Message: "internal server error"})
		return
	}

	body := envelope{Status: "fail", Message: err.Error()}
	var short *orders.StockShortageError
	if errors.As(err, &short) {
		body.Data = map[string]any{"shortages": short.Items}
	}
	writeJSON(w, code, body)
}

func failStatus(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Status: "fail", Message: msg})
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", errBadRequest, msg)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("invalid json body")
	}
	return nil
}

// queryInt reads a non-negative integer query parameter, def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(key + " must be a non-negative integer")
	}
	return n, nil
}
