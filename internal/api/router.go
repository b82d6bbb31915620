package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/quackextractor/wordrush/internal/api/handler"
	"github.com/quackextractor/wordrush/internal/middleware"
	"github.com/quackextractor/wordrush/internal/session"
	"github.com/quackextractor/wordrush/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Directory      *session.Directory
	Dispatcher     *ws.Dispatcher
	BaseURL        string
	AllowedOrigins []string
}

// NewRouter creates the router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomsHandler := handler.NewRoomsHandler(cfg.Directory, cfg.BaseURL, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// REST subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/rooms", roomsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}", roomsHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{code}/qr", roomsHandler.QR).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// The websocket endpoint skips the request logger; connections are
	// long-lived so per-request logs would only fire at teardown
	r.Handle("/ws", recoveryMiddleware(http.HandlerFunc(cfg.Dispatcher.HandleConnection)))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
	return c.Handler(r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
