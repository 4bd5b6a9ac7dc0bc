package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Store is the redis surface the manager needs.
type Store interface {
	sessionStore
	sessionKeyer
}

// Manager tracks which access tokens are still live. A token whose session is
// gone is rejected even before it expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string, userID int64) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Manager{store: store, keyer: store}, nil
}

// Create registers accessID for userID until ttl elapses.
func (m *Manager) Create(ctx context.Context, accessID string, userID int64, ttl time.Duration) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), strconv.FormatInt(userID, 10), ttl)
}

// HasSession reports whether accessID is live and belongs to userID.
func (m *Manager) HasSession(ctx context.Context, accessID string, userID int64) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	stored, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == strconv.FormatInt(userID, 10), nil
}

// Revoke deletes the session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// NewAccessID produces the identifier used as the JWT jti and the session key.
func NewAccessID() string {
	return uuid.NewString()
}
