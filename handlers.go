package chatmem

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// HTTPChatRequest is the HTTP request body for chat.
type HTTPChatRequest struct {
	UserID         string  `json:"userId"`
	ConversationID string  `json:"conversationId,omitempty"`
	Message        string  `json:"message"`
	Profile        Profile `json:"profile,omitempty"`
}

// HTTPChatResponse is the HTTP response body for chat.
type HTTPChatResponse struct {
	ConversationID string   `json:"conversationId"`
	UserMessage    *Message `json:"userMessage"`
	Reply          *Message `json:"reply"`
	ResponseType   string   `json:"responseType,omitempty"`
}

// HTTPRenameRequest is the HTTP request body for renaming a conversation.
type HTTPRenameRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

// newHealthHandler returns a handler for health check requests.
func newHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// newChatHandler returns a handler for POST /chat requests.
func newChatHandler(processChat ProcessChatFn, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var httpReq HTTPChatRequest
		if err := json.NewDecoder(r.Body).Decode(&httpReq); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if httpReq.UserID == "" {
			respondError(w, http.StatusBadRequest, "userId is required")
			return
		}
		if httpReq.Message == "" {
			respondError(w, http.StatusBadRequest, "message is required")
			return
		}

		result, err := processChat(r.Context(), ChatRequest{
			UserID:         httpReq.UserID,
			ConversationID: httpReq.ConversationID,
			Message:        httpReq.Message,
			Profile:        httpReq.Profile,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidArgument) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error("failed to process chat message",
				slog.String("request_id", getRequestID(r.Context())),
				slog.String("error", err.Error()),
			)
			respondError(w, http.StatusInternalServerError, "An error occurred while processing your message")
			return
		}

		respondJSON(w, http.StatusOK, HTTPChatResponse{
			ConversationID: result.ConversationID,
			UserMessage:    result.UserMessage,
			Reply:          result.Reply,
			ResponseType:   result.ResponseType,
		})
	}
}

// newListConversationsHandler returns a handler for GET /conversations.
// The listing is grouped by recency for the sidebar, recomputed on
// every request.
func newListConversationsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "userId is required")
			return
		}

		summaries := store.ListConversations(userID)
		respondJSON(w, http.StatusOK, GroupByRecency(summaries, time.Now()))
	}
}

// newGetConversationHandler returns a handler for GET /conversations/{conversationID}.
func newGetConversationHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "userId is required")
			return
		}

		conv, err := store.GetConversation(userID, chi.URLParam(r, "conversationID"))
		if err != nil {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondJSON(w, http.StatusOK, conv)
	}
}

// newDeleteConversationHandler returns a handler for DELETE /conversations/{conversationID}.
func newDeleteConversationHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			respondError(w, http.StatusBadRequest, "userId is required")
			return
		}

		if !store.DeleteConversation(userID, chi.URLParam(r, "conversationID")) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// newRenameConversationHandler returns a handler for PATCH /conversations/{conversationID}/title.
func newRenameConversationHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HTTPRenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.UserID == "" {
			respondError(w, http.StatusBadRequest, "userId is required")
			return
		}
		if req.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}

		if !store.RenameConversation(req.UserID, chi.URLParam(r, "conversationID"), req.Title) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// newStatsHandler returns a handler for GET /stats.
func newStatsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, store.Stats())
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// NewHTTPRouter creates and configures the Chi router with all
// middleware and routes. The store and service are constructed by the
// caller and passed in explicitly; the router owns no state.
func NewHTTPRouter(store *Store, processChat ProcessChatFn, cfg Config) *chi.Mux {
	cfg = cfg.withDefaults()
	logger := cfg.Logger

	r := chi.NewRouter()

	// Middleware stack
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(logger))
	r.Use(loggingMiddleware(logger))
	r.Use(chimiddleware.RealIP)
	r.Use(timeoutMiddleware(cfg.RequestTimeout))
	r.Use(bodySizeLimitMiddleware(cfg.MaxRequestBodySize))
	r.Use(rateLimitMiddleware(cfg.RateLimit))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Routes
	r.Get("/health", newHealthHandler())
	r.Post("/chat", newChatHandler(processChat, logger))
	r.Get("/conversations", newListConversationsHandler(store))
	r.Get("/conversations/{conversationID}", newGetConversationHandler(store))
	r.Delete("/conversations/{conversationID}", newDeleteConversationHandler(store))
	r.Patch("/conversations/{conversationID}/title", newRenameConversationHandler(store))
	r.Get("/stats", newStatsHandler(store))

	return r
}
