package newsletter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

const maxBodyBytes = 64 << 10

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		response.WriteJSON(w, http.StatusBadRequest, response.Error("Request body cannot be empty"))
		return false
	}

	if err := json.Unmarshal(body, req); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.Error("Malformed request body"))
		return false
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.Error(err.Error()))
		return false
	}

	return true
}

// HandleSubscribe creates a subscriber or reactivates an inactive one.
// Subscribing an already-active address is a no-op success, so the endpoint
// leaks nothing about existing subscriptions.
//
// @Summary Subscribe to the newsletter
// @Tags newsletter
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Router /api/newsletter/subscribe [post]
func HandleSubscribe(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SubscribeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		if _, err := store.UpsertSubscriber(req.Email, req.Name); err != nil {
			slog.Error("Failed to subscribe", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to subscribe"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// HandleVerifyToken reports the state behind an unsubscribe token without
// mutating it, so the unsubscribe page can show the right copy.
//
// @Summary Verify an unsubscribe token
// @Tags newsletter
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorResponse "Unknown token"
// @Router /api/newsletter/verify-token [post]
func HandleVerifyToken(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TokenRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		sub, err := store.SubscriberByToken(req.Token)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error("Unknown token"))
			return
		}
		if err != nil {
			slog.Error("Failed to verify token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to verify token"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"valid":     true,
			"is_active": sub.IsActive,
			"email":     sub.Email,
		})
	}
}

// HandleUnsubscribe flips the subscriber behind the token to inactive.
// Repeating the call is success both times: the end state is identical, and
// unsubscribe links get clicked more than once.
//
// @Summary Unsubscribe via token
// @Tags newsletter
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorResponse "Unknown token"
// @Router /api/newsletter/unsubscribe [post]
func HandleUnsubscribe(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.TokenRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		sub, err := store.DeactivateSubscriber(req.Token)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error("Unknown token"))
			return
		}
		if err != nil {
			slog.Error("Failed to unsubscribe", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to unsubscribe"))
			return
		}

		slog.Info("Subscriber unsubscribed", slog.String("email", sub.Email))
		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"email":   sub.Email,
		})
	}
}
