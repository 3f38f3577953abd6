package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/reversihq/reversi-backend/internal/apperror"
	"github.com/reversihq/reversi-backend/internal/board"
)

type claimRequest struct {
	Player board.Cell `json:"player"`
}

type claimResponse struct {
	Token  string     `json:"token"`
	Player board.Cell `json:"player"`
}

type moveRequest struct {
	X      *int       `json:"x"`
	Y      *int       `json:"y"`
	Player board.Cell `json:"player"`
	Token  string     `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (that *Server) handleCreateGame(w http.ResponseWriter, _ *http.Request) {
	sess := that.registry.Create()

	that.writeJSON(w, http.StatusOK, map[string]string{"game_id": sess.ID()})
}

func (that *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sess, err := that.registry.Get(mux.Vars(r)["gameID"])
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, sess.State())
}

func (that *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	sess, err := that.registry.Get(mux.Vars(r)["gameID"])
	if err != nil {
		that.writeError(w, err)
		return
	}

	var req claimRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	token, err := sess.Claim(req.Player)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, claimResponse{Token: token, Player: req.Player})
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, err := that.registry.Get(mux.Vars(r)["gameID"])
	if err != nil {
		that.writeError(w, err)
		return
	}

	var req moveRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if req.X == nil || req.Y == nil || req.Token == "" {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required fields: x, y, player, token"})
		return
	}

	state, err := sess.Move(req.Player, req.Token, *req.X, *req.Y)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps the validation-error taxonomy onto HTTP status codes. The
// distinct conditions matter to clients: a bad token reads differently from
// an illegal square.
func (that *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrBadToken):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotYourTurn):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrSlotTaken), errors.Is(err, apperror.ErrGameOver):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrIllegalMove), errors.Is(err, apperror.ErrInvalidPlayer):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		that.logger.Error("unexpected handler error", "error", err)
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}
