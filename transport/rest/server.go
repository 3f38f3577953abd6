package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/reversihq/reversi-backend/internal/session"
)

// Server exposes the session engine over HTTP: create/fetch/claim/move plus
// the SSE event stream.
type Server struct {
	logger   *slog.Logger
	registry *session.Registry
	origins  []string
}

func New(logger *slog.Logger, registry *session.Registry, origins []string) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		registry: registry,
		origins:  origins,
	}
}

// Router builds the route table. Split out from Start so tests can drive the
// handlers through httptest.
func (that *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", that.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/game/create", that.handleCreateGame).Methods(http.MethodPost)
	router.HandleFunc("/game/{gameID}", that.handleGetState).Methods(http.MethodGet)
	router.HandleFunc("/game/{gameID}/claim", that.handleClaim).Methods(http.MethodPost)
	router.HandleFunc("/game/{gameID}/move", that.handleMove).Methods(http.MethodPost)
	router.HandleFunc("/game/{gameID}/events", that.handleEvents).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(that.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	return cors(router)
}

// Start - starts the HTTP server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	// No WriteTimeout: the events endpoint holds its response open for the
	// lifetime of the subscriber.
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}
