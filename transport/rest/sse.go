package rest

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// handleEvents streams the session's committed mutations as Server-Sent
// Events. There is no backlog: a subscriber only sees events committed after
// it registered and must fetch current state separately on connect.
func (that *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleEvents")

	sess, err := that.registry.Get(mux.Vars(r)["gameID"])
	if err != nil {
		that.writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	log.Debug("subscriber connected", "gameID", sess.ID())

	for {
		select {
		case <-r.Context().Done():
			log.Debug("subscriber disconnected", "gameID", sess.ID())
			return
		case msg, ok := <-sub.Events():
			if !ok {
				// dropped by the broadcaster for falling behind
				log.Warn("subscriber dropped", "gameID", sess.ID())
				return
			}

			if _, err = fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				log.Debug("subscriber write failed", "gameID", sess.ID(), "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
