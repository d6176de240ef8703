package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nawneet77/ghl/pkg/logging"
)

// stateExpiry is how long an issued state value remains valid. The user
// has this long to complete the hosted authorization page.
const stateExpiry = 10 * time.Minute

// AuthState is the server-side record behind an issued state parameter.
type AuthState struct {
	// SessionID identifies the browser session that started the flow.
	SessionID string

	// Nonce is the random value carried in the state query parameter.
	Nonce string

	// CreatedAt is when the state was issued.
	CreatedAt time.Time
}

// StateStore issues and validates per-request OAuth state parameters.
// Each state is a cryptographically random, single-use value with a TTL,
// providing CSRF protection for the callback endpoint.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*AuthState

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewStateStore creates a state store and starts its background cleanup.
func NewStateStore() *StateStore {
	ss := &StateStore{
		states:      make(map[string]*AuthState),
		stopCleanup: make(chan struct{}),
	}
	go ss.cleanupLoop()
	return ss
}

// Generate issues a new state value to embed in an authorization URL.
func (ss *StateStore) Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	nonce := base64.RawURLEncoding.EncodeToString(buf)

	state := &AuthState{
		SessionID: uuid.NewString(),
		Nonce:     nonce,
		CreatedAt: time.Now(),
	}

	ss.mu.Lock()
	ss.states[nonce] = state
	ss.mu.Unlock()

	logging.Debug("OAuth", "Issued authorization state for session=%s", state.SessionID)
	return nonce, nil
}

// Validate checks a state value from a callback. Valid states are
// consumed so they cannot be replayed.
func (ss *StateStore) Validate(nonce string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	state, ok := ss.states[nonce]
	if !ok {
		logging.Warn("OAuth", "Callback carried an unknown state value")
		return false
	}
	delete(ss.states, nonce)

	if time.Since(state.CreatedAt) > stateExpiry {
		logging.Warn("OAuth", "Callback state expired (age=%v)", time.Since(state.CreatedAt))
		return false
	}
	return true
}

// Stop terminates the background cleanup goroutine.
func (ss *StateStore) Stop() {
	ss.stopOnce.Do(func() { close(ss.stopCleanup) })
}

func (ss *StateStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.cleanup()
		case <-ss.stopCleanup:
			return
		}
	}
}

func (ss *StateStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	count := 0
	for nonce, state := range ss.states {
		if time.Since(state.CreatedAt) > stateExpiry {
			delete(ss.states, nonce)
			count++
		}
	}
	if count > 0 {
		logging.Debug("OAuth", "Cleaned up %d expired authorization states", count)
	}
}
