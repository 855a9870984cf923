package engagement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/portfolio-engagement/internal/http/middleware"
	"github.com/princekumarofficial/portfolio-engagement/internal/ratelimit"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

const maxBodyBytes = 64 << 10

// Limiters holds one limiter per operation class. Add/remove consume the
// write budget, check/count the read budget.
type Limiters struct {
	Write ratelimit.Limiter
	Read  ratelimit.Limiter
}

// decodeAndValidate unmarshals body into req and runs struct validation,
// writing the client error itself. Returns false if the request was handled.
func decodeAndValidate(w http.ResponseWriter, body []byte, req interface{}) bool {
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

// HandleLikes dispatches the like actions (add/remove/check/count) for one
// content kind. The action field decides the rate-limit class, so limiting
// happens here rather than in route middleware.
//
// @Summary Like engagement actions
// @Description Add, remove, check or count likes for blog posts or projects
// @Tags engagement
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Failure 409 {object} response.ErrorResponse "Already liked"
// @Failure 429 {object} response.ErrorResponse "Rate limited"
// @Router /api/{kind}/engagement [post]
func HandleLikes(store storage.Storage, limiters Limiters, kind types.ContentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil || len(body) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.Error("Request body cannot be empty"))
			return
		}

		var envelope types.EngagementEnvelope
		if !decodeAndValidate(w, body, &envelope) {
			return
		}

		limiter := limiters.Read
		if envelope.Action == types.ActionAdd || envelope.Action == types.ActionRemove {
			limiter = limiters.Write
		}
		allowed, err := limiter.Allow(r.Context(), middleware.ClientIP(r))
		if err != nil {
			slog.Error("Rate limit check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Rate limit check failed"))
			return
		}
		if !allowed {
			response.WriteJSON(w, http.StatusTooManyRequests, response.Error("Too many requests"))
			return
		}

		switch envelope.Action {
		case types.ActionAdd:
			handleAdd(w, body, store, kind)
		case types.ActionRemove:
			handleRemove(w, body, store, kind)
		case types.ActionCheck:
			handleCheckOrCount(w, body, store, kind, true)
		case types.ActionCount:
			handleCheckOrCount(w, body, store, kind, false)
		}
	}
}

func handleAdd(w http.ResponseWriter, body []byte, store storage.Storage, kind types.ContentKind) {
	var req types.AddLikeRequest
	if !decodeAndValidate(w, body, &req) {
		return
	}

	contentID := req.ContentID(kind)
	if contentID == "" {
		response.WriteJSON(w, http.StatusBadRequest, response.Error("Content id is required"))
		return
	}

	err := store.AddLike(kind, contentID, req.Name, req.Email)
	if errors.Is(err, storage.ErrAlreadyLiked) {
		response.WriteJSON(w, http.StatusConflict, response.Error("Already liked"))
		return
	}
	if err != nil {
		slog.Error("Failed to add like", slog.String("error", err.Error()), slog.String("content_id", contentID))
		response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to add like"))
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func handleRemove(w http.ResponseWriter, body []byte, store storage.Storage, kind types.ContentKind) {
	var req types.RemoveLikeRequest
	if !decodeAndValidate(w, body, &req) {
		return
	}

	contentID := req.ContentID(kind)
	if contentID == "" {
		response.WriteJSON(w, http.StatusBadRequest, response.Error("Content id is required"))
		return
	}

	// Removing a like that is not there succeeds; the end state is the same.
	if err := store.RemoveLike(kind, contentID, req.Email); err != nil {
		slog.Error("Failed to remove like", slog.String("error", err.Error()), slog.String("content_id", contentID))
		response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to remove like"))
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func handleCheckOrCount(w http.ResponseWriter, body []byte, store storage.Storage, kind types.ContentKind, includeLiked bool) {
	var req types.CheckLikesRequest
	if !decodeAndValidate(w, body, &req) {
		return
	}

	contentIDs := req.ContentIDs(kind)
	if len(contentIDs) == 0 {
		response.WriteJSON(w, http.StatusBadRequest, response.Error("Content ids are required"))
		return
	}

	counts, err := store.LikeCounts(kind, contentIDs)
	if err != nil {
		slog.Error("Failed to count likes", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to count likes"))
		return
	}

	result := map[string]interface{}{"counts": counts}

	if includeLiked && req.Email != "" {
		liked, err := store.LikedBy(kind, contentIDs, req.Email)
		if err != nil {
			slog.Error("Failed to check likes", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to check likes"))
			return
		}
		result["liked"] = liked
	}

	response.WriteJSON(w, http.StatusOK, result)
}
