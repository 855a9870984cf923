package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/princekumarofficial/portfolio-engagement/internal/http/middleware"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// HandleSyncUserRole reports the caller's role, elevating the configured
// owner email to admin on first contact. This is how the single designated
// admin gets seeded without a manual database step.
//
// @Summary Sync the caller's role
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /api/auth/sync-user-role [post]
func HandleSyncUserRole(store storage.Storage, adminEmail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerEmail, ok := middleware.GetUserEmailFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.Error("User not authenticated"))
			return
		}

		user, err := store.UserByEmail(callerEmail)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusUnauthorized, response.Error("Unknown user"))
			return
		}
		if err != nil {
			slog.Error("Failed to load user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to sync role"))
			return
		}

		role := user.Role
		if strings.EqualFold(user.Email, adminEmail) && role != types.RoleAdmin {
			if err := store.UpdateUserRole(user.Email, types.RoleAdmin); err != nil {
				slog.Error("Failed to elevate role", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to sync role"))
				return
			}
			role = types.RoleAdmin
			slog.Info("Elevated owner account to admin", slog.String("email", user.Email))
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"role":    role,
		})
	}
}
