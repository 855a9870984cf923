package engagement

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// HandleComment stores a submitted comment. A filled honeypot field marks
// the comment as spam but still succeeds, so bots get no signal and
// moderation tooling can audit what they sent. Comments always start
// unapproved.
//
// @Summary Submit a comment
// @Tags engagement
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Router /api/blog/comments [post]
func HandleComment(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil || len(body) == 0 {
			response.WriteJSON(w, http.StatusBadRequest, response.Error("Request body cannot be empty"))
			return
		}

		var req types.CommentRequest
		if !decodeAndValidate(w, body, &req) {
			return
		}

		comment := types.Comment{
			PostID:  req.PostID,
			Name:    req.Name,
			Email:   req.Email,
			Content: req.Content,
			IsSpam:  req.Website != "",
		}

		id, err := store.InsertComment(comment)
		if err != nil {
			slog.Error("Failed to store comment", slog.String("error", err.Error()), slog.String("post_id", req.PostID))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to store comment"))
			return
		}

		if comment.IsSpam {
			slog.Info("Comment flagged as spam", slog.Int64("comment_id", id), slog.String("post_id", req.PostID))
		}

		response.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
