package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/princekumarofficial/portfolio-engagement/internal/http/middleware"
	"github.com/princekumarofficial/portfolio-engagement/internal/storage/storagetest"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

// fakeSender records sends and fails for addresses in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (f *fakeSender) Send(to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to] {
		return errors.New("provider rejected recipient")
	}
	f.sent = append(f.sent, to)
	return nil
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func postAs(t *testing.T, handler http.HandlerFunc, body, callerEmail string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/notify", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserEmailKey, callerEmail))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func subscribeAndGetToken(t *testing.T, store *storagetest.Fake, email string) string {
	t.Helper()
	sub, err := store.UpsertSubscriber(email, "Test")
	if err != nil {
		t.Fatalf("Failed to seed subscriber: %v", err)
	}
	return sub.UnsubscribeToken
}

func TestSubscribeAndVerifyToken(t *testing.T) {
	store := storagetest.New()

	rec := post(t, HandleSubscribe(store), `{"email":"ann@x.com","name":"Ann"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	sub, err := store.UpsertSubscriber("ann@x.com", "Ann")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rec = post(t, HandleVerifyToken(store), fmt.Sprintf(`{"token":%q}`, sub.UnsubscribeToken))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["valid"] != true || out["is_active"] != true || out["email"] != "ann@x.com" {
		t.Fatalf("Unexpected verify response: %v", out)
	}
}

func TestVerifyToken_Unknown(t *testing.T) {
	store := storagetest.New()

	rec := post(t, HandleVerifyToken(store), `{"token":"3b9f8a10-1111-4222-8333-444455556666"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	store := storagetest.New()

	rec := post(t, HandleVerifyToken(store), `{"token":"not-a-uuid"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	store := storagetest.New()
	token := subscribeAndGetToken(t, store, "ann@x.com")
	body := fmt.Sprintf(`{"token":%q}`, token)

	// First call deactivates.
	rec := post(t, HandleUnsubscribe(store), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["success"] != true || out["email"] != "ann@x.com" {
		t.Fatalf("Unexpected response: %v", out)
	}

	// Second call is already-complete, still success.
	rec = post(t, HandleUnsubscribe(store), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on repeat unsubscribe, got %d", rec.Code)
	}

	// The subscriber stays inactive.
	sub, err := store.SubscriberByToken(token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sub.IsActive {
		t.Fatal("Expected subscriber to stay inactive")
	}
}

func TestUnsubscribe_UnknownToken(t *testing.T) {
	store := storagetest.New()

	rec := post(t, HandleUnsubscribe(store), `{"token":"3b9f8a10-1111-4222-8333-444455556666"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestResubscribeReactivates(t *testing.T) {
	store := storagetest.New()
	token := subscribeAndGetToken(t, store, "ann@x.com")

	post(t, HandleUnsubscribe(store), fmt.Sprintf(`{"token":%q}`, token))
	post(t, HandleSubscribe(store), `{"email":"ann@x.com","name":"Ann"}`)

	sub, err := store.SubscriberByToken(token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !sub.IsActive {
		t.Fatal("Expected resubscribe to reactivate")
	}
}

func TestNotify_RequiresAdmin(t *testing.T) {
	store := storagetest.New()
	sender := &fakeSender{}
	handler := HandleNotify(store, sender, "https://portfolio.dev")

	// No identity at all.
	rec := post(t, handler, `{"title":"New post","type":"blog"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}

	// Authenticated but unknown user.
	rec = postAs(t, handler, `{"title":"New post","type":"blog"}`, "ghost@x.com")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for unknown user, got %d", rec.Code)
	}

	// Known but not an admin.
	store.SeedUser("reader@x.com", "hash", types.RoleUser)
	rec = postAs(t, handler, `{"title":"New post","type":"blog"}`, "reader@x.com")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
}

func TestNotify_Broadcast(t *testing.T) {
	store := storagetest.New()
	store.SeedUser("owner@x.com", "hash", types.RoleAdmin)
	for i := 0; i < 3; i++ {
		subscribeAndGetToken(t, store, fmt.Sprintf("sub%d@x.com", i))
	}

	sender := &fakeSender{failFor: map[string]bool{"sub1@x.com": true}}
	handler := HandleNotify(store, sender, "https://portfolio.dev")

	rec := postAs(t, handler, `{"title":"Terminal Snake","type":"project","slug":"snake","description":"A tiny game"}`, "owner@x.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	out := decodeBody(t, rec)
	if out["sent"] != float64(2) || out["total"] != float64(3) {
		t.Fatalf("Expected sent=2 total=3, got %v", out)
	}
	errs, ok := out["errors"].([]interface{})
	if !ok || len(errs) != 1 {
		t.Fatalf("Expected one per-recipient error, got %v", out["errors"])
	}
	if !strings.Contains(errs[0].(string), "sub1@x.com") {
		t.Fatalf("Expected error to name the failed recipient, got %v", errs[0])
	}
}

func TestNotify_NoActiveSubscribers(t *testing.T) {
	store := storagetest.New()
	store.SeedUser("owner@x.com", "hash", types.RoleAdmin)

	// One subscriber who already opted out.
	token := subscribeAndGetToken(t, store, "gone@x.com")
	post(t, HandleUnsubscribe(store), fmt.Sprintf(`{"token":%q}`, token))

	sender := &fakeSender{}
	handler := HandleNotify(store, sender, "https://portfolio.dev")

	rec := postAs(t, handler, `{"title":"New post","type":"blog"}`, "owner@x.com")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	out := decodeBody(t, rec)
	if out["sent"] != float64(0) || out["total"] != float64(0) {
		t.Fatalf("Expected empty batch, got %v", out)
	}
	if len(sender.sent) != 0 {
		t.Fatal("Expected no sends")
	}
}

func TestNotify_Validation(t *testing.T) {
	store := storagetest.New()
	store.SeedUser("owner@x.com", "hash", types.RoleAdmin)
	handler := HandleNotify(store, &fakeSender{}, "https://portfolio.dev")

	for name, body := range map[string]string{
		"missing title": `{"type":"blog"}`,
		"bad type":      `{"title":"x","type":"podcast"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postAs(t, handler, body, "owner@x.com")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
		})
	}
}
