package chatmem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestRouter(t *testing.T) (*Store, http.Handler) {
	t.Helper()

	store := NewStore(StoreConfig{Logger: discardLogger()})
	process := NewChatService(store, &StaticResponder{Text: "canned reply"}, discardLogger())
	router := NewHTTPRouter(store, process, Config{
		Logger:    discardLogger(),
		RateLimit: RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	})
	return store, router
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatHandler(t *testing.T) {
	t.Run("processes a chat turn", func(t *testing.T) {
		_, router := newTestRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/chat", `{"userId":"u1","message":"Hello there"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp HTTPChatResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ConversationID == "" {
			t.Error("expected a conversation ID")
		}
		if resp.Reply == nil || resp.Reply.Content != "canned reply" {
			t.Errorf("unexpected reply: %+v", resp.Reply)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, router := newTestRouter(t)

		if rec := doJSON(t, router, http.MethodPost, "/chat", `{"message":"hi"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("missing userId: expected 400, got %d", rec.Code)
		}
		if rec := doJSON(t, router, http.MethodPost, "/chat", `{"userId":"u1"}`); rec.Code != http.StatusBadRequest {
			t.Errorf("missing message: expected 400, got %d", rec.Code)
		}
		if rec := doJSON(t, router, http.MethodPost, "/chat", `not json`); rec.Code != http.StatusBadRequest {
			t.Errorf("bad body: expected 400, got %d", rec.Code)
		}
	})
}

func TestListConversationsHandler(t *testing.T) {
	t.Run("returns recency groups", func(t *testing.T) {
		store, router := newTestRouter(t)
		store.AppendMessage("u1", "c1", RoleUser, "Morning question", nil)

		rec := doJSON(t, router, http.MethodGet, "/conversations?userId=u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var groups RecencyGroups
		if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(groups.Today) != 1 || groups.Today[0].ID != "c1" {
			t.Errorf("expected c1 in today bucket, got %+v", groups)
		}
	})

	t.Run("requires userId", func(t *testing.T) {
		_, router := newTestRouter(t)

		if rec := doJSON(t, router, http.MethodGet, "/conversations", ""); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetConversationHandler(t *testing.T) {
	store, router := newTestRouter(t)
	store.AppendMessage("u1", "c1", RoleUser, "hi", nil)

	t.Run("returns the conversation", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/conversations/c1?userId=u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var conv Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if conv.ID != "c1" || conv.MessageCount != 1 {
			t.Errorf("unexpected conversation: %+v", conv)
		}
	})

	t.Run("404 on unknown conversation", func(t *testing.T) {
		if rec := doJSON(t, router, http.MethodGet, "/conversations/missing?userId=u1", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("404 across tenants", func(t *testing.T) {
		if rec := doJSON(t, router, http.MethodGet, "/conversations/c1?userId=u2", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDeleteConversationHandler(t *testing.T) {
	store, router := newTestRouter(t)
	store.AppendMessage("u1", "c1", RoleUser, "hi", nil)

	if rec := doJSON(t, router, http.MethodDelete, "/conversations/c1?userId=u1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodDelete, "/conversations/c1?userId=u1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestRenameConversationHandler(t *testing.T) {
	store, router := newTestRouter(t)
	store.AppendMessage("u1", "c1", RoleUser, "hi", nil)

	t.Run("renames", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/conversations/c1/title", `{"userId":"u1","title":"Renamed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		conv, _ := store.GetConversation("u1", "c1")
		if conv.Title != "Renamed" {
			t.Errorf("expected renamed title, got %q", conv.Title)
		}
	})

	t.Run("rejects empty title", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/conversations/c1/title", `{"userId":"u1","title":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("404 on unknown conversation", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPatch, "/conversations/missing/title", `{"userId":"u1","title":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestStatsHandler(t *testing.T) {
	store, router := newTestRouter(t)
	store.AppendMessage("u1", "c1", RoleUser, "hi", nil)

	rec := doJSON(t, router, http.MethodGet, "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if stats.TenantCount != 1 || stats.ConversationCount != 1 || stats.MessageCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHealthHandler(t *testing.T) {
	_, router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	store := NewStore(StoreConfig{Logger: discardLogger()})
	process := NewChatService(store, &StaticResponder{}, discardLogger())
	router := NewHTTPRouter(store, process, Config{
		Logger:    discardLogger(),
		RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
	})

	store.AppendMessage("u1", "c1", RoleUser, "hi", nil)

	var limited bool
	for i := 0; i < 5; i++ {
		rec := doJSON(t, router, http.MethodGet, "/conversations?userId=u1", "")
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected rate limiting to trigger")
	}
}
