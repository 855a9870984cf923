package engagement

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// HandleTrackView records one view event. Deduplication is the caller's
// responsibility (session marker for anonymous visitors, an existing-row
// check for identified ones); the store appends unconditionally.
//
// @Summary Track a content view
// @Tags engagement
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Router /api/{kind}/views [post]
func HandleTrackView(store storage.Storage, kind types.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil || len(body) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.Error("Request body cannot be empty"))
			return
		}

		var req types.TrackViewRequest
		if !decodeAndValidate(w, body, &req) {
			return
		}

		contentID := req.ContentID(kind)
		if contentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.Error("Content id is required"))
			return
		}

		if err := store.InsertView(kind, contentID, req.Email, req.Name); err != nil {
			slog.Error("Failed to track view", slog.String("error", err.Error()), slog.String("content_id", contentID))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to track view"))
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
