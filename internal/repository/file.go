package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// Compile-time interface assertions.
var (
	_ AgentRepository = (*FileAgentRepo)(nil)
	_ UserRepository  = (*FileUserRepo)(nil)
)

// Data directory layout. One contexts/<agent_id>.json snapshot is written
// per agent at creation time and never updated.
const (
	usersFile   = "users.json"
	agentsFile  = "agents.json"
	contextsDir = "contexts"
)

// FileAgentRepo persists agents as a JSON object keyed by id under the data
// directory. Every write is a read-modify-write of the whole collection;
// concurrent processes racing on the same file are last-write-wins, which is
// a documented limitation of this store. GetAll orders by creation time,
// then id, since the on-disk object has no insertion order.
type FileAgentRepo struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileAgentRepo constructs a file-backed agent store rooted at dataDir.
func NewFileAgentRepo(dataDir string) *FileAgentRepo {
	return &FileAgentRepo{dataDir: dataDir}
}

func (r *FileAgentRepo) Create(_ context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents, err := readJSONFile[map[string]domain.StoredAgent](filepath.Join(r.dataDir, agentsFile))
	if err != nil {
		return domain.StoredAgent{}, fmt.Errorf("load agents: %w", err)
	}
	if agents == nil {
		agents = make(map[string]domain.StoredAgent)
	}

	id := newAgentID()
	for {
		if _, exists := agents[id]; !exists {
			break
		}
		id = newAgentID()
	}

	agent := domain.StoredAgent{
		ID:          id,
		OwnerUserID: payload.User.ID,
		Status:      domain.AgentStatusActive,
		CreatedAt:   time.Now().UTC(),
		Payload:     payload,
	}
	agents[id] = agent

	if err := writeJSONFile(filepath.Join(r.dataDir, agentsFile), agents); err != nil {
		return domain.StoredAgent{}, fmt.Errorf("persist agents: %w", err)
	}
	if err := writeJSONFile(filepath.Join(r.dataDir, contextsDir, id+".json"), agent.ContextSnapshot()); err != nil {
		return domain.StoredAgent{}, fmt.Errorf("persist agent context: %w", err)
	}
	return agent, nil
}

func (r *FileAgentRepo) GetAll(context.Context) ([]domain.StoredAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, err := readJSONFile[map[string]domain.StoredAgent](filepath.Join(r.dataDir, agentsFile))
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	agents := make([]domain.StoredAgent, 0, len(byID))
	for _, agent := range byID {
		agents = append(agents, agent)
	}
	sort.Slice(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
	return agents, nil
}

func (r *FileAgentRepo) GetByID(_ context.Context, id string) (domain.StoredAgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents, err := readJSONFile[map[string]domain.StoredAgent](filepath.Join(r.dataDir, agentsFile))
	if err != nil {
		return domain.StoredAgent{}, fmt.Errorf("load agents: %w", err)
	}
	agent, ok := agents[id]
	if !ok {
		return domain.StoredAgent{}, ErrNotFound
	}
	return agent, nil
}

func (r *FileAgentRepo) Seed(_ context.Context, seed []domain.StoredAgent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents, err := readJSONFile[map[string]domain.StoredAgent](filepath.Join(r.dataDir, agentsFile))
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	if agents == nil {
		agents = make(map[string]domain.StoredAgent)
	}
	for _, agent := range seed {
		if _, exists := agents[agent.ID]; exists {
			return fmt.Errorf("seed agent %s: id already present", agent.ID)
		}
		agents[agent.ID] = agent
	}
	return writeJSONFile(filepath.Join(r.dataDir, agentsFile), agents)
}

func (r *FileAgentRepo) IsEmpty(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents, err := readJSONFile[map[string]domain.StoredAgent](filepath.Join(r.dataDir, agentsFile))
	if err != nil {
		return false, fmt.Errorf("load agents: %w", err)
	}
	return len(agents) == 0, nil
}

// FileUserRepo persists users as a JSON object keyed by user id.
type FileUserRepo struct {
	mu      sync.Mutex
	dataDir string
}

// NewFileUserRepo constructs a file-backed user store rooted at dataDir.
func NewFileUserRepo(dataDir string) *FileUserRepo {
	return &FileUserRepo{dataDir: dataDir}
}

func (r *FileUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := readJSONFile[map[string]domain.User](filepath.Join(r.dataDir, usersFile))
	if err != nil {
		return domain.User{}, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = make(map[string]domain.User)
	}

	user.ID = "u_" + uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	users[user.ID] = user

	if err := writeJSONFile(filepath.Join(r.dataDir, usersFile), users); err != nil {
		return domain.User{}, fmt.Errorf("persist users: %w", err)
	}
	return user, nil
}

func (r *FileUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := readJSONFile[map[string]domain.User](filepath.Join(r.dataDir, usersFile))
	if err != nil {
		return domain.User{}, fmt.Errorf("load users: %w", err)
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (r *FileUserRepo) MarkVerified(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.dataDir, usersFile)
	users, err := readJSONFile[map[string]domain.User](path)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	user, ok := users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Verified = true
	users[userID] = user
	return writeJSONFile(path, users)
}

func (r *FileUserRepo) All(context.Context) (map[string]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := readJSONFile[map[string]domain.User](filepath.Join(r.dataDir, usersFile))
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if users == nil {
		users = make(map[string]domain.User)
	}
	return users, nil
}

func newAgentID() string {
	return "agt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// readJSONFile decodes the file into T. A missing file yields the zero T.
func readJSONFile[T any](path string) (T, error) {
	var out T
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func writeJSONFile(path string, data any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
