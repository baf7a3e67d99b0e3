package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/autoposter/internal/persona"
	"github.com/nidhogg/autoposter/internal/publish"
	"github.com/nidhogg/autoposter/internal/scheduler"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sched  *scheduler.Scheduler
	pool   *persona.Pool
	events *publish.EventBus
	logger *zap.Logger
}

// NewHandler creates a new API handler. events may be nil.
func NewHandler(sched *scheduler.Scheduler, pool *persona.Pool, events *publish.EventBus, logger *zap.Logger) *Handler {
	return &Handler{sched: sched, pool: pool, events: events, logger: logger}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", h.root)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Route("/bot", func(r chi.Router) {
			r.Get("/status", h.status)
			r.Post("/start", h.start)
			r.Post("/stop", h.stop)
			r.Post("/run-now", h.runNow)
			r.Post("/create-post", h.createPost)
			r.Get("/stats", h.stats)
			r.Get("/users", h.users)
			r.Get("/events", h.recentEvents)
		})
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "autoposter",
		"status":  "running",
		"docs":    "/api/bot/status",
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "autoposter",
		"scheduler": h.sched.Running(),
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.sched.Start(); err != nil {
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Bot is already running", "status": "running"})
			return
		}
		if errors.Is(err, scheduler.ErrStopping) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Bot is still finishing its last post, try again shortly", "status": "stopping"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot scheduler started", "status": "started"})
}

// stopWait bounds how long a stop request waits for an in-flight post.
const stopWait = 45 * time.Second

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), stopWait)
	defer cancel()
	if err := h.sched.Stop(ctx); err != nil {
		if errors.Is(err, scheduler.ErrNotRunning) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Bot is not running", "status": "stopped"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Stop requested, finishing current post", "status": "stopping"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bot scheduler stopped", "status": "stopped"})
}

func (h *Handler) runNow(w http.ResponseWriter, r *http.Request) {
	n := h.sched.RunNow()
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":         "Bot execution triggered",
		"status":          "running_in_background",
		"posts_to_create": n,
	})
}

type createPostRequest struct {
	Topic string `json:"topic"`
	Count *int   `json:"count"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	count := 1
	if req.Count != nil {
		count = *req.Count
	}
	if count < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "count must be at least 1"})
		return
	}
	topic := strings.TrimSpace(req.Topic)

	if count == 1 {
		res, err := h.sched.CreatePost(r.Context(), topic)
		if err != nil {
			h.logger.Warn("manual post failed", zap.String("topic", topic), zap.Error(err))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to create post: " + err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Post created successfully", "post": res})
		return
	}

	report := h.sched.CreatePosts(r.Context(), topic, count)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   strconv.Itoa(report.Created) + " posts created",
		"requested": report.Requested,
		"created":   report.Created,
		"posts":     report.Posts,
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Stats())
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	active := h.pool.Active()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_bots":  active,
		"total_active": len(active),
		"total_bots":   len(h.pool.List()),
	})
}

func (h *Handler) recentEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": false, "events": []publish.PostEvent{}})
		return
	}
	limit := int64(20)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	events, err := h.events.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": true, "events": events})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
