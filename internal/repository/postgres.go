package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
)

// Compile-time interface assertions.
var (
	_ AgentRepository = (*PostgresAgentRepo)(nil)
	_ UserRepository  = (*PostgresUserRepo)(nil)
)

// EnsureSchema creates the onboarding tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS onboarding_users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	verification_method TEXT NOT NULL DEFAULT 'otp',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	owner_user_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	seq BIGSERIAL
);`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PostgresAgentRepo implements AgentRepository on a pgx pool. Payloads are
// stored as jsonb; GetAll returns insertion order via the seq column.
type PostgresAgentRepo struct {
	pool *pgxpool.Pool
	node *snowflake.Node
}

// NewPostgresAgentRepo constructs the postgres-backed agent store.
func NewPostgresAgentRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresAgentRepo {
	return &PostgresAgentRepo{pool: pool, node: node}
}

func (r *PostgresAgentRepo) Create(ctx context.Context, payload domain.OnboardingPayload) (domain.StoredAgent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.StoredAgent{}, fmt.Errorf("encode payload: %w", err)
	}

	agent := domain.StoredAgent{
		ID:          "agt_" + r.node.Generate().String(),
		OwnerUserID: payload.User.ID,
		Status:      domain.AgentStatusActive,
		CreatedAt:   time.Now().UTC(),
		Payload:     payload,
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO agents (id, owner_user_id, status, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		agent.ID, agent.OwnerUserID, agent.Status, raw, agent.CreatedAt,
	)
	if err != nil {
		return domain.StoredAgent{}, fmt.Errorf("insert agent: %w", err)
	}
	return agent, nil
}

func (r *PostgresAgentRepo) GetAll(ctx context.Context) ([]domain.StoredAgent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_user_id, status, payload, created_at FROM agents ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []domain.StoredAgent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (r *PostgresAgentRepo) GetByID(ctx context.Context, id string) (domain.StoredAgent, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_user_id, status, payload, created_at FROM agents WHERE id = $1`, id)
	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredAgent{}, ErrNotFound
		}
		return domain.StoredAgent{}, err
	}
	return agent, nil
}

func (r *PostgresAgentRepo) Seed(ctx context.Context, agents []domain.StoredAgent) error {
	for _, agent := range agents {
		raw, err := json.Marshal(agent.Payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		_, err = r.pool.Exec(ctx,
			`INSERT INTO agents (id, owner_user_id, status, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
			agent.ID, agent.OwnerUserID, agent.Status, raw, agent.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("seed agent %s: %w", agent.ID, err)
		}
	}
	return nil
}

func (r *PostgresAgentRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
		return false, fmt.Errorf("count agents: %w", err)
	}
	return count == 0, nil
}

func scanAgent(row pgx.Row) (domain.StoredAgent, error) {
	var (
		agent domain.StoredAgent
		raw   []byte
	)
	if err := row.Scan(&agent.ID, &agent.OwnerUserID, &agent.Status, &raw, &agent.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredAgent{}, err
		}
		return domain.StoredAgent{}, fmt.Errorf("scan agent: %w", err)
	}
	if err := json.Unmarshal(raw, &agent.Payload); err != nil {
		return domain.StoredAgent{}, fmt.Errorf("decode payload: %w", err)
	}
	return agent, nil
}

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	pool *pgxpool.Pool
	node *snowflake.Node
}

// NewPostgresUserRepo constructs the postgres-backed user store.
func NewPostgresUserRepo(pool *pgxpool.Pool, node *snowflake.Node) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool, node: node}
}

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	user.ID = "u_" + r.node.Generate().String()
	user.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO onboarding_users (id, email, first_name, last_name, verified, verification_method, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.Verified, user.VerificationMethod, user.CreatedAt,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, verified, verification_method, created_at
		 FROM onboarding_users WHERE lower(email) = lower($1)
		 ORDER BY created_at DESC LIMIT 1`, email,
	).Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Verified, &user.VerificationMethod, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) MarkVerified(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE onboarding_users SET verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) All(ctx context.Context) (map[string]domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, first_name, last_name, verified, verification_method, created_at FROM onboarding_users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make(map[string]domain.User)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Verified, &user.VerificationMethod, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
