package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/smallbiznis/bbf-onboarding/internal/domain"
	"github.com/smallbiznis/bbf-onboarding/internal/repository"
)

// Registry is the full data dump exposed for debugging and demo tooling.
type Registry struct {
	Users  map[string]domain.User        `json:"users"`
	Agents map[string]domain.StoredAgent `json:"agents"`
}

// DirectoryService exposes read-only views over the stored agents.
type DirectoryService struct {
	users  repository.UserRepository
	agents repository.AgentRepository
	logger *zap.Logger
	tracer trace.Tracer
}

// NewDirectoryService wires dependencies.
func NewDirectoryService(users repository.UserRepository, agents repository.AgentRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		users:  users,
		agents: agents,
		logger: logger,
		tracer: otel.Tracer("github.com/smallbiznis/bbf-onboarding/internal/service"),
	}
}

// Companies lists every stored agent in the store's documented order.
func (s *DirectoryService) Companies(ctx context.Context) ([]domain.StoredAgent, error) {
	ctx, span := s.tracer.Start(ctx, "DirectoryService.Companies")
	defer span.End()

	agents, err := s.agents.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return agents, nil
}

// Company looks one agent up by id.
func (s *DirectoryService) Company(ctx context.Context, id string) (domain.StoredAgent, error) {
	ctx, span := s.tracer.Start(ctx, "DirectoryService.Company")
	defer span.End()

	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.StoredAgent{}, newFlowError(CodeNotFound, "Company not found", http.StatusNotFound)
		}
		span.RecordError(err)
		return domain.StoredAgent{}, fmt.Errorf("get company: %w", err)
	}
	return agent, nil
}

// Graph derives the node/edge view: one node per agent, an edge between
// every pair of agents sharing at least one domain tag.
func (s *DirectoryService) Graph(ctx context.Context) (domain.GraphData, error) {
	ctx, span := s.tracer.Start(ctx, "DirectoryService.Graph")
	defer span.End()

	agents, err := s.agents.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.GraphData{}, fmt.Errorf("build graph: %w", err)
	}

	graph := domain.GraphData{
		Nodes: make([]domain.GraphNode, 0, len(agents)),
		Edges: []domain.GraphEdge{},
	}
	for _, agent := range agents {
		graph.Nodes = append(graph.Nodes, domain.GraphNode{
			ID:      agent.ID,
			Label:   agent.Payload.Company.CompanyName,
			Domains: agent.Payload.Company.Domains,
		})
	}
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			if tag, ok := sharedTag(agents[i].Payload.Company.Domains, agents[j].Payload.Company.Domains); ok {
				graph.Edges = append(graph.Edges, domain.GraphEdge{
					Source: agents[i].ID,
					Target: agents[j].ID,
					Label:  tag,
				})
			}
		}
	}
	return graph, nil
}

// Registry returns the raw users and agents collections keyed by id.
func (s *DirectoryService) Registry(ctx context.Context) (Registry, error) {
	ctx, span := s.tracer.Start(ctx, "DirectoryService.Registry")
	defer span.End()

	users, err := s.users.All(ctx)
	if err != nil {
		span.RecordError(err)
		return Registry{}, fmt.Errorf("list users: %w", err)
	}
	agents, err := s.agents.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		return Registry{}, fmt.Errorf("list agents: %w", err)
	}

	byID := make(map[string]domain.StoredAgent, len(agents))
	for _, agent := range agents {
		byID[agent.ID] = agent
	}
	return Registry{Users: users, Agents: byID}, nil
}

func sharedTag(a, b []string) (string, bool) {
	if len(a) == 0 || len(b) == 0 {
		return "", false
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	for _, tag := range b {
		if _, ok := set[tag]; ok {
			return tag, true
		}
	}
	return "", false
}
