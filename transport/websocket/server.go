package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/reversihq/reversi-backend/internal/session"
)

const writeTimeout = 10 * time.Second

// Server pushes the same per-session event stream the SSE endpoint carries,
// over a WebSocket connection instead.
type Server struct {
	logger   *slog.Logger
	registry *session.Registry
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, registry *session.Registry) *Server {
	return &Server{
		logger:   logger.With("component", "websocket"),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
}

// Router builds the route table. Split out from Start so tests can drive the
// handler through httptest.
func (that *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/game/{gameID}/ws", that.handleStream).Methods(http.MethodGet)

	return router
}

// Start - starts the WebSocket server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
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

// handleStream upgrades the connection and forwards committed events until
// the peer goes away. Incoming frames are read only to detect the close.
func (that *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleStream")

	sess, err := that.registry.Get(mux.Vars(r)["gameID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "gameID", sess.ID(), "error", err)
		return
	}
	defer conn.Close()

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	log.Debug("subscriber connected", "gameID", sess.ID())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Debug("subscriber disconnected", "gameID", sess.ID())
			return
		case msg, ok := <-sub.Events():
			if !ok {
				log.Warn("subscriber dropped", "gameID", sess.ID())
				return
			}

			if err = conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err = conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("subscriber write failed", "gameID", sess.ID(), "error", err)
				return
			}
		}
	}
}
