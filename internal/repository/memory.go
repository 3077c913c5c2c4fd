package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// Compile-time interface assertions.
var (
	_ AgentRepository = (*MemoryAgentRepo)(nil)
	_ UserRepository  = (*MemoryUserRepo)(nil)
	_ OTPStore        = (*MemoryOTPStore)(nil)
)

// MemoryAgentRepo keeps agents in an insertion-ordered in-process map.
// GetAll returns records in insertion order (seeded records first).
type MemoryAgentRepo struct {
	mu      sync.RWMutex
	agents  map[string]domain.StoredAgent
	order   []string
	counter int
}

// NewMemoryAgentRepo constructs an empty in-memory agent store.
func NewMemoryAgentRepo() *MemoryAgentRepo {
	return &MemoryAgentRepo{agents: make(map[string]domain.StoredAgent)}
}

// nextID formats a fixed-width counter id. Seeded sample ids carry a
// different prefix, so the counter can never collide with them.
func (r *MemoryAgentRepo) nextID() string {
	r.counter++
	return fmt.Sprintf("agt_%03d", r.counter)
}

func (r *MemoryAgentRepo) Create(_ context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID()
	for {
		if _, exists := r.agents[id]; !exists {
			break
		}
		id = r.nextID()
	}

	agent := domain.StoredAgent{
		ID:          id,
		OwnerUserID: payload.User.ID,
		Status:      domain.AgentStatusActive,
		CreatedAt:   time.Now().UTC(),
		Payload:     payload,
	}
	r.agents[id] = agent
	r.order = append(r.order, id)
	return agent, nil
}

func (r *MemoryAgentRepo) GetAll(context.Context) ([]domain.StoredAgent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]domain.StoredAgent, 0, len(r.order))
	for _, id := range r.order {
		agents = append(agents, r.agents[id])
	}
	return agents, nil
}

func (r *MemoryAgentRepo) GetByID(_ context.Context, id string) (domain.StoredAgent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return domain.StoredAgent{}, ErrNotFound
	}
	return agent, nil
}

func (r *MemoryAgentRepo) Seed(_ context.Context, agents []domain.StoredAgent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, agent := range agents {
		if _, exists := r.agents[agent.ID]; exists {
			return fmt.Errorf("seed agent %s: id already present", agent.ID)
		}
		r.agents[agent.ID] = agent
		r.order = append(r.order, agent.ID)
	}
	return nil
}

func (r *MemoryAgentRepo) IsEmpty(context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents) == 0, nil
}

// MemoryUserRepo keeps signed-up users in an in-process map keyed by id.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	counter int
}

// NewMemoryUserRepo constructs an empty in-memory user store.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	user.ID = fmt.Sprintf("u_%03d", r.counter)
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (r *MemoryUserRepo) MarkVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Verified = true
	r.users[userID] = user
	return nil
}

func (r *MemoryUserRepo) All(context.Context) (map[string]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[string]domain.User, len(r.users))
	for id, user := range r.users {
		users[id] = user
	}
	return users, nil
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryOTPStore holds pending one-time codes with expiry, for single-process
// deployments and tests.
type MemoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]otpEntry
}

// NewMemoryOTPStore constructs an empty in-memory code store.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: make(map[string]otpEntry)}
}

func (s *MemoryOTPStore) SaveCode(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[strings.ToLower(email)] = otpEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) GetCode(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	entry, ok := s.codes[key]
	if !ok {
		return "", nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.codes, key)
		return "", nil
	}
	return entry.code, nil
}

func (s *MemoryOTPStore) DeleteCode(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, strings.ToLower(email))
	return nil
}
