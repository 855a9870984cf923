package newsletter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/princekumarofficial/portfolio-engagement/internal/email"
	"github.com/princekumarofficial/portfolio-engagement/internal/http/middleware"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

// Broadcast fan-out width. Per-recipient failures are collected, never
// escalated: one bad address must not sink the batch.
const notifyConcurrency = 5

type notifyResult struct {
	Sent   int      `json:"sent"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

// HandleNotify broadcasts a new-content digest to every active subscriber.
// Requires an authenticated admin.
//
// @Summary Notify subscribers about new content
// @Tags newsletter
// @Accept json
// @Produce json
// @Success 200 {object} notifyResult
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Failure 403 {object} response.ErrorResponse "Not an admin"
// @Security BearerAuth
// @Router /api/newsletter/notify [post]
func HandleNotify(store storage.Storage, sender email.Sender, siteOrigin string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerEmail, ok := middleware.GetUserEmailFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.Error("User not authenticated"))
			return
		}

		caller, err := store.UserByEmail(callerEmail)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusUnauthorized, response.Error("Unknown user"))
			return
		}
		if err != nil {
			slog.Error("Failed to load caller", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to load user"))
			return
		}
		if caller.Role != types.RoleAdmin {
			response.WriteJSON(w, http.StatusForbidden, response.Error("Admin role required"))
			return
		}

		var req types.NotifyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		subscribers, err := store.ActiveSubscribers()
		if err != nil {
			slog.Error("Failed to list subscribers", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Error("Failed to list subscribers"))
			return
		}

		if len(subscribers) == 0 {
			response.WriteJSON(w, http.StatusOK, notifyResult{Sent: 0, Total: 0})
			return
		}

		typeLabel := "blog post"
		if req.Type == string(types.KindProject) {
			typeLabel = "project"
		}

		ctaURL := req.URL
		if ctaURL == "" && req.Slug != "" {
			ctaURL = fmt.Sprintf("%s/%s/%s", siteOrigin, req.Type, req.Slug)
		}

		result := broadcast(subscribers, sender, func(sub types.Subscriber) (string, error) {
			return email.ComposeDigest(email.DigestData{
				RecipientName: sub.Name,
				TypeLabel:     typeLabel,
				Title:         req.Title,
				Description:   req.Description,
				CTAURL:        ctaURL,
				UnsubscribeURL: fmt.Sprintf("%s/newsletter/unsubscribe?token=%s",
					siteOrigin, url.QueryEscape(sub.UnsubscribeToken)),
			})
		}, "New "+typeLabel+": "+req.Title)

		slog.Info("Notification batch finished",
			slog.Int("sent", result.Sent),
			slog.Int("total", result.Total),
			slog.Int("failed", len(result.Errors)))

		response.WriteJSON(w, http.StatusOK, result)
	}
}

// broadcast fans the sends out over a bounded worker pool and collects
// per-recipient outcomes.
func broadcast(subscribers []types.Subscriber, sender email.Sender, compose func(types.Subscriber) (string, error), subject string) notifyResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, notifyConcurrency)
		result = notifyResult{Total: len(subscribers)}
	)

	for _, sub := range subscribers {
		wg.Add(1)
		sem <- struct{}{}
		go func(sub types.Subscriber) {
			defer wg.Done()
			defer func() { <-sem }()

			err := func() error {
				html, err := compose(sub)
				if err != nil {
					return err
				}
				return sender.Send(sub.Email, subject, html)
			}()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.Email, err))
				return
			}
			result.Sent++
		}(sub)
	}

	wg.Wait()
	return result
}
