package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/reversihq/reversi-backend/internal/apperror"
)

// Registry is the process-wide mapping from session identifier to session.
// It is the single owner of all sessions: entries are only ever added, never
// overwritten, so claimed slots cannot be lost to a racing create.
type Registry struct {
	logger      *slog.Logger
	eventBuffer int

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(logger *slog.Logger, eventBuffer int) *Registry {
	return &Registry{
		logger:      logger.With("component", "registry"),
		eventBuffer: eventBuffer,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a fresh session under a new unguessable identifier.
func (that *Registry) Create() *Session {
	return that.GetOrCreate(uuid.NewString())
}

// Get resolves an identifier to its session.
func (that *Registry) Get(id string) (*Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	return sess, nil
}

// GetOrCreate returns the session for id, creating it on first access. The
// operation is idempotent: concurrent callers always converge on the same
// session instance.
func (that *Registry) GetOrCreate(id string) *Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	if sess, ok := that.sessions[id]; ok {
		return sess
	}

	sess := New(that.logger, id, that.eventBuffer)
	that.sessions[id] = sess

	that.logger.Info("session created", "gameID", id)

	return sess
}
