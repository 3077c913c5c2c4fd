package domain

import "time"

// Agent lifecycle statuses. Agents are created active and never mutated
// afterward.
const (
	AgentStatusDraft  = "draft"
	AgentStatusActive = "active"
)

// Goals captures the short and long term initiatives for an agent. Both may
// be empty at review time.
type Goals struct {
	ShortTerm string `json:"short_term"`
	LongTerm  string `json:"long_term"`
}

// OnboardingPayload is the aggregate submitted atomically at the end of the
// onboarding flow. This flat {user, company, goals} shape is canonical; the
// denormalized company_context form exists only in AgentContext snapshots.
type OnboardingPayload struct {
	User    User    `json:"user"`
	Company Company `json:"company"`
	Goals   Goals   `json:"goals"`
}

// StoredAgent is the durable record created once per successful onboarding
// submission.
type StoredAgent struct {
	ID          string            `json:"id"`
	OwnerUserID string            `json:"owner_user_id,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Payload     OnboardingPayload `json:"payload"`
}

// AgentContext is the denormalized snapshot written once at agent creation
// time for downstream deal/negotiation bots. It is never updated.
type AgentContext struct {
	AgentID        string    `json:"agent_id"`
	OwnerUserID    string    `json:"owner_user_id"`
	OwnerEmail     string    `json:"owner_email"`
	OwnerName      string    `json:"owner_name"`
	CompanyName    string    `json:"company_name"`
	CompanyContext Company   `json:"company_context"`
	Goals          Goals     `json:"goals"`
	CreatedAt      time.Time `json:"created_at"`
}

// ContextSnapshot derives the denormalized context for a stored agent.
func (a StoredAgent) ContextSnapshot() AgentContext {
	return AgentContext{
		AgentID:        a.ID,
		OwnerUserID:    a.OwnerUserID,
		OwnerEmail:     a.Payload.User.Email,
		OwnerName:      a.Payload.User.FullName(),
		CompanyName:    a.Payload.Company.CompanyName,
		CompanyContext: a.Payload.Company,
		Goals:          a.Payload.Goals,
		CreatedAt:      a.CreatedAt,
	}
}
