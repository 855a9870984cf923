package engagement

import (
	"net/http"
	"strings"
	"testing"

	"github.com/princekumarofficial/portfolio-engagement/internal/storage/storagetest"
	"github.com/princekumarofficial/portfolio-engagement/internal/types"
)

func TestSubmitComment(t *testing.T) {
	store := storagetest.New()
	handler := HandleComment(store)

	rec := post(t, handler, `{"post_id":"p1","name":"Ann","email":"ann@x.com","content":"Great write-up!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	comments := store.Comments()
	if len(comments) != 1 {
		t.Fatalf("Expected 1 stored comment, got %d", len(comments))
	}
	c := comments[0]
	if c.IsSpam {
		t.Fatal("Expected comment not flagged as spam")
	}
	if c.IsApproved {
		t.Fatal("Comments must start unapproved")
	}
}

func TestSubmitComment_HoneypotFlagsSpam(t *testing.T) {
	store := storagetest.New()
	handler := HandleComment(store)

	// Bots fill the hidden website field; the response stays 200 so they
	// learn nothing, but the row is flagged.
	rec := post(t, handler, `{"post_id":"p1","name":"Bot","email":"bot@spam.com","content":"buy now","website":"http://spam.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for honeypot submission, got %d", rec.Code)
	}

	comments := store.Comments()
	if len(comments) != 1 {
		t.Fatalf("Expected spam comment to be stored, got %d comments", len(comments))
	}
	if !comments[0].IsSpam {
		t.Fatal("Expected comment flagged as spam")
	}
}

func TestSubmitComment_Validation(t *testing.T) {
	store := storagetest.New()
	handler := HandleComment(store)

	cases := []struct {
		name string
		body string
	}{
		{"missing content", `{"post_id":"p1","name":"Ann","email":"ann@x.com"}`},
		{"missing post id", `{"name":"Ann","email":"ann@x.com","content":"hi"}`},
		{"bad email", `{"post_id":"p1","name":"Ann","email":"nope","content":"hi"}`},
		{"content too long", `{"post_id":"p1","name":"Ann","email":"ann@x.com","content":"` + strings.Repeat("a", 2001) + `"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, handler, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
		})
	}

	if len(store.Comments()) != 0 {
		t.Fatal("Invalid submissions must not reach the store")
	}
}

func TestTrackView(t *testing.T) {
	store := storagetest.New()
	handler := HandleTrackView(store, types.KindBlog)

	rec := post(t, handler, `{"post_id":"p1","email":"ann@x.com","name":"Ann"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Anonymous views carry no viewer identity.
	rec = post(t, handler, `{"post_id":"p1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for anonymous view, got %d", rec.Code)
	}

	events := store.ViewEvents()
	if len(events) != 2 {
		t.Fatalf("Expected 2 view events, got %d", len(events))
	}
	if events[1].ViewerEmail != "" {
		t.Fatal("Expected anonymous event without viewer email")
	}
}

func TestTrackView_MissingContentID(t *testing.T) {
	store := storagetest.New()
	handler := HandleTrackView(store, types.KindBlog)

	rec := post(t, handler, `{"email":"ann@x.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestViewCountsReconcile(t *testing.T) {
	store := storagetest.New()
	handler := HandleTrackView(store, types.KindBlog)

	post(t, handler, `{"post_id":"p1"}`)
	post(t, handler, `{"post_id":"p1"}`)
	post(t, handler, `{"post_id":"p2"}`)

	// Aggregates stay at zero until the reconcile pass runs.
	counts, err := store.ViewCounts(types.KindBlog, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if counts["p1"] != 0 {
		t.Fatalf("Expected unreconciled count 0, got %d", counts["p1"])
	}

	if _, err := store.RebuildViewCounts(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	counts, _ = store.ViewCounts(types.KindBlog, []string{"p1", "p2"})
	if counts["p1"] != 2 || counts["p2"] != 1 {
		t.Fatalf("Unexpected reconciled counts: %v", counts)
	}
}
