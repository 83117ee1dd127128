package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"lightwatch/models"

	"github.com/gorilla/mux"
)

// PingRecorder is the slice of the liveness engine the ping endpoint needs.
type PingRecorder interface {
	RecordPing(apiKey string, now time.Time) (int64, error)
}

// PingHandler serves the device-facing ping endpoint. The wire contract is
// deliberately dumb so a one-line curl in a router script can speak it.
type PingHandler struct {
	engine PingRecorder
	logger *slog.Logger
}

// NewPingHandler creates the ping handler.
func NewPingHandler(engine PingRecorder, logger *slog.Logger) *PingHandler {
	return &PingHandler{
		engine: engine,
		logger: logger.With("component", "ping_handler"),
	}
}

// HandlePing handles GET /channelPing?channel_key=KEY.
func (h *PingHandler) HandlePing(w http.ResponseWriter, r *http.Request) {
	apiKey := r.URL.Query().Get("channel_key")
	if apiKey == "" {
		http.Error(w, "Missing channel_key parameter", http.StatusBadRequest)
		return
	}

	channelID, err := h.engine.RecordPing(apiKey, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrUnknownKey) {
			// Same rejection for any bad key; never confirm which keys exist.
			http.Error(w, "Invalid key", http.StatusForbidden)
			return
		}
		h.logger.Error("Failed to record ping", slog.Any("error", err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("Ping recorded", "channelId", channelID)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// NewPingRouter builds the mux router for the device-facing server.
func NewPingRouter(handler *PingHandler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/channelPing", handler.HandlePing).Methods("GET")
	router.Use(requestLoggingMiddleware(logger))
	return router
}

func requestLoggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"latency", time.Since(start).String(),
			)
		})
	}
}
