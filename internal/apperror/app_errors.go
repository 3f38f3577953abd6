package apperror

import "errors"

var (
	ErrGameOver        = errors.New("game is already over")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrIllegalMove     = errors.New("illegal move")
	ErrBadToken        = errors.New("invalid or missing token")
	ErrSlotTaken       = errors.New("side already claimed")
	ErrInvalidPlayer   = errors.New("invalid player side")
	ErrSessionNotFound = errors.New("session not found")
)
