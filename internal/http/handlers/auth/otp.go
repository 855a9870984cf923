package auth

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/portfolio-engagement/internal/email"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/password"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

const (
	maxBodyBytes = 64 << 10

	otpExpiry = 5 * time.Minute
	// At most three codes per email per trailing hour, counted from stored
	// rows so the cap holds across instances, unlike the per-IP limiter.
	otpHourlyCap    = 3
	otpHourlyWindow = time.Hour
)

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

// generateOTP draws a uniformly random 6-digit code, leading zeros included.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

// HandleSendOTP issues a password-reset code to a registered email. Prior
// codes stay valid; only the hourly cap bounds issuance.
//
// @Summary Send a password reset code
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} response.ErrorResponse "No account"
// @Failure 429 {object} response.ErrorResponse "Too many requests"
// @Router /api/auth/send-otp [post]
func HandleSendOTP(store storage.Storage, sender email.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SendOTPRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		addr := strings.ToLower(req.Email)

		_, err := store.UserByEmail(addr)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error("No account found for this email"))
			return
		}
		if err != nil {
			slog.Error("Failed to look up user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}

		issued, err := store.CountOTPsSince(addr, time.Now().Add(-otpHourlyWindow))
		if err != nil {
			slog.Error("Failed to count recent codes", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}
		if issued >= otpHourlyCap {
			response.WriteJSON(w, http.StatusTooManyRequests, response.Error("Too many reset requests, try again later"))
			return
		}

		code, err := generateOTP()
		if err != nil {
			slog.Error("Failed to generate code", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}

		if err := store.InsertOTP(addr, code, time.Now().Add(otpExpiry)); err != nil {
			slog.Error("Failed to store code", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}

		html, err := email.ComposeOTP(code, int(otpExpiry.Minutes()))
		if err != nil {
			slog.Error("Failed to render code email", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}

		if err := sender.Send(addr, "Your password reset code", html); err != nil {
			slog.Error("Failed to send code email", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to send code"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}

// HandleVerifyOTPReset serves both the verify step (a pure check the UI runs
// before showing the new-password form) and the reset step, which consumes
// the code.
//
// @Summary Verify a reset code or reset the password
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse "Invalid or expired code"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /api/auth/verify-otp-reset [post]
func HandleVerifyOTPReset(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VerifyOTPResetRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		addr := strings.ToLower(req.Email)

		_, err := store.UserByEmail(addr)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error("User not found"))
			return
		}
		if err != nil {
			slog.Error("Failed to look up user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to verify code"))
			return
		}

		otp, err := store.LatestValidOTP(addr, req.OTP, time.Now())
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusBadRequest, response.Error("Invalid or expired code"))
			return
		}
		if err != nil {
			slog.Error("Failed to look up code", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to verify code"))
			return
		}

		if req.Action == types.OTPActionVerify {
			response.WriteJSON(w, http.StatusOK, map[string]interface{}{"valid": true})
			return
		}

		hashed, err := password.HashPassword(req.NewPassword)
		if err != nil {
			slog.Error("Failed to hash password", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to reset password"))
			return
		}

		if err := store.UpdateUserPassword(addr, hashed); err != nil {
			slog.Error("Failed to update password", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to reset password"))
			return
		}

		// Consume the code only after the password actually changed.
		if err := store.MarkOTPUsed(otp.ID); err != nil {
			slog.Error("Failed to mark code used", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to reset password"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
