package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rajarohan/foodiez/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type errorKind struct {
	err    error
	status int
	code   string
}

// first match wins
var errorKinds = []errorKind{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrAlreadyRated, http.StatusConflict, "already_rated"},
	{domain.ErrOrderNotCancellable, http.StatusConflict, "order_not_cancellable"},
	{domain.ErrItemUnavailable, http.StatusUnprocessableEntity, "item_unavailable"},
	{domain.ErrRestaurantInactive, http.StatusUnprocessableEntity, "restaurant_inactive"},
	{domain.ErrInvalidIndex, http.StatusUnprocessableEntity, "invalid_index"},
	{domain.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{domain.ErrMinimumOrderNotMet, http.StatusUnprocessableEntity, "minimum_order_not_met"},
	{domain.ErrInvalidCoupon, http.StatusUnprocessableEntity, "invalid_coupon"},
	{domain.ErrInvalidStatusTransition, http.StatusUnprocessableEntity, "invalid_status_transition"},
	{domain.ErrNotDelivered, http.StatusUnprocessableEntity, "not_delivered"},
	{domain.ErrCurrencyMismatch, http.StatusUnprocessableEntity, "currency_mismatch"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError maps an error kind to its status code. Unknown errors are
// logged and reported without detail.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			writeError(w, k.status, k.code, err.Error())
			return
		}
	}

	log.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, "internal", "")
}
