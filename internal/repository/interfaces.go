package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// ErrNotFound is returned when a lookup matches no stored record.
var ErrNotFound = errors.New("record not found")

// AgentRepository owns the durable agent records and assigns their ids.
// Create never overwrites an existing id.
type AgentRepository interface {
	// Create stores the payload under a freshly assigned id and returns the
	// stored record.
	Create(ctx context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error)
	// GetAll returns every stored record. Ordering guarantees are
	// implementation-specific and documented per store.
	GetAll(ctx context.Context) ([]domain.StoredAgent, error)
	// GetByID performs an exact-match lookup, ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (domain.StoredAgent, error)
	// Seed bulk-loads initial records whose ids must never collide with
	// subsequently generated ones.
	Seed(ctx context.Context, agents []domain.StoredAgent) error
	// IsEmpty reports whether the store holds no agents.
	IsEmpty(ctx context.Context) (bool, error)
}

// UserRepository persists signed-up users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	MarkVerified(ctx context.Context, userID string) error
	// All returns every user keyed by id, for the registry dump.
	All(ctx context.Context) (map[string]domain.User, error)
}

// OTPStore holds the one-time codes issued at signup until they are verified
// or expire.
type OTPStore interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	// GetCode returns the issued code, or "" when none is pending.
	GetCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
}
