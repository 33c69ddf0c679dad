// Package agents is the spawning ground: it manages the lifecycle of
// dynamic agent nodes that the autonomy cortex creates to accomplish
// real tasks against a seed, from spawn through to retirement.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/domain/hormonebus"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/storage"
)

// Types describes every agent type the registry can spawn, mirroring the
// capability roster the autonomy cortex plans missions against.
var Types = map[string]string{
	"analyze":    "Reason about data, evaluate options, draw conclusions",
	"code_gen":   "Generate code snippets based on requirements",
	"code_exec":  "Execute code in a sandboxed subprocess",
	"web_search": "Search the web for information",
	"file_read":  "Read files from the workspace",
	"file_write": "Write files to the workspace",
	"summarize":  "Condense large text into key points",
	"decompose":  "Break a complex task into subtasks",
	"planner":    "Create execution plans for missions",
}

// GatedCapabilities require explicit user approval before they may work.
var GatedCapabilities = map[string]bool{"code_exec": true, "file_write": true}

// SafeCapabilities auto-execute without approval.
var SafeCapabilities = map[string]bool{
	"analyze": true, "code_gen": true, "web_search": true,
	"file_read": true, "summarize": true, "decompose": true, "planner": true,
}

// MaxConcurrentAgents bounds how many non-retired, non-completed agents
// may exist at once.
const MaxConcurrentAgents = 8

// Registry manages spawn/start/complete/retire transitions for agent
// nodes. Naming counters are per agent-type and safe for concurrent use.
type Registry struct {
	bus     *hormonebus.Bus
	store   storage.Store
	log     *slog.Logger
	counter *xsync.MapOf[string, *int64]
}

func New(bus *hormonebus.Bus, store storage.Store, logger *slog.Logger) *Registry {
	return &Registry{
		bus:     bus,
		store:   store,
		log:     logger.With("organ", "agents"),
		counter: xsync.NewMapOf[string, *int64](),
	}
}

// nextName generates a sequential name like "analyze_03".
func (r *Registry) nextName(agentType string) string {
	counter, _ := r.counter.LoadOrCompute(agentType, func() *int64 {
		var n int64
		return &n
	})
	n := atomic.AddInt64(counter, 1)
	return fmt.Sprintf("%s_%02d", agentType, n)
}

func (r *Registry) countActive(ctx context.Context) (int, error) {
	agents, err := r.store.ListAgentNodesByStatus(ctx,
		domain.AgentStatusAwaitingApproval, domain.AgentStatusIdle,
		domain.AgentStatusSpawning, domain.AgentStatusWorking)
	if err != nil {
		return 0, err
	}
	return len(agents), nil
}

// Spawn creates a new agent node. It returns nil, nil (not an error)
// when the type is unknown or the registry is at capacity.
func (r *Registry) Spawn(ctx context.Context, agentType, taskDescription string, seedID, parentID *string, capability map[string]any) (*domain.AgentNode, error) {
	if _, ok := Types[agentType]; !ok {
		r.log.Warn("unknown agent type", "type", agentType)
		return nil, nil
	}

	active, err := r.countActive(ctx)
	if err != nil {
		return nil, err
	}
	if active >= MaxConcurrentAgents {
		r.log.Debug("agent capacity reached, skipping spawn", "active", active, "max", MaxConcurrentAgents, "type", agentType)
		return nil, nil
	}

	status := domain.AgentStatusIdle
	if GatedCapabilities[agentType] {
		status = domain.AgentStatusAwaitingApproval
	}

	agent := &domain.AgentNode{
		ID:              uuid.New().String()[:16],
		Type:            agentType,
		Name:            r.nextName(agentType),
		SeedID:          seedID,
		ParentID:        parentID,
		TaskDescription: taskDescription,
		Capability:      capability,
		Status:          status,
		Context:         map[string]any{},
		CreatedAt:       time.Now(),
	}
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}

	r.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "agent_spawned", map[string]any{
		"agent_id":   agent.ID,
		"name":       agent.Name,
		"agent_type": agentType,
		"seed_id":    seedID,
		"task":       taskDescription,
		"status":     status,
	}, "agents", domain.HormoneInstant))

	r.log.Info("spawned agent", "name", agent.Name, "type", agentType, "task", taskDescription)
	return agent, nil
}

// StartWork transitions an idle (or spawning) agent into working.
func (r *Registry) StartWork(ctx context.Context, agentID string) (*domain.AgentNode, error) {
	agent, err := r.store.GetAgentNode(ctx, agentID)
	if err != nil {
		return nil, nil
	}
	if agent.Status != domain.AgentStatusIdle && agent.Status != domain.AgentStatusSpawning {
		return nil, nil
	}
	now := time.Now()
	agent.Status = domain.AgentStatusWorking
	agent.StartedAt = &now
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}
	r.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "agent_working", map[string]any{
		"agent_id": agent.ID, "name": agent.Name, "agent_type": agent.Type,
	}, "agents", domain.HormoneInstant))
	return agent, nil
}

// Complete marks an agent as done with a result, merging contextUpdate
// into its accumulated context.
func (r *Registry) Complete(ctx context.Context, agentID, result string, contextUpdate map[string]any) (*domain.AgentNode, error) {
	agent, err := r.store.GetAgentNode(ctx, agentID)
	if err != nil {
		return nil, nil
	}
	now := time.Now()
	agent.Status = domain.AgentStatusCompleted
	agent.Result = result
	agent.CompletedAt = &now
	if len(contextUpdate) > 0 {
		if agent.Context == nil {
			agent.Context = map[string]any{}
		}
		for k, v := range contextUpdate {
			agent.Context[k] = v
		}
	}
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}

	preview := result
	if len(preview) > 200 {
		preview = preview[:200]
	}
	r.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "agent_completed", map[string]any{
		"agent_id":       agent.ID,
		"name":           agent.Name,
		"agent_type":     agent.Type,
		"seed_id":        agent.SeedID,
		"result_preview": preview,
	}, "agents", domain.HormoneInstant))

	r.log.Info("agent completed", "name", agent.Name, "result_preview", preview)
	return agent, nil
}

// Fail marks an agent as completed-with-error.
func (r *Registry) Fail(ctx context.Context, agentID, errMsg string) (*domain.AgentNode, error) {
	agent, err := r.store.GetAgentNode(ctx, agentID)
	if err != nil {
		return nil, nil
	}
	now := time.Now()
	agent.Status = domain.AgentStatusCompleted
	agent.Error = errMsg
	agent.CompletedAt = &now
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}
	r.log.Warn("agent failed", "name", agent.Name, "error", errMsg)
	return agent, nil
}

// Retire removes an agent from the active pool.
func (r *Registry) Retire(ctx context.Context, agentID, reason string) (*domain.AgentNode, error) {
	agent, err := r.store.GetAgentNode(ctx, agentID)
	if err != nil {
		return nil, nil
	}
	if agent.Status == domain.AgentStatusRetired {
		return nil, nil
	}
	now := time.Now()
	agent.Status = domain.AgentStatusRetired
	agent.RetiredAt = &now
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "mission complete"
	}
	r.bus.Emit(ctx, domain.NewHormone(uuid.New().String()[:12], "agent_retired", map[string]any{
		"agent_id": agent.ID, "name": agent.Name, "reason": reason,
	}, "agents", domain.HormoneInstant))
	r.log.Info("retired agent", "name", agent.Name, "reason", reason)
	return agent, nil
}

// Approve handles a user's approval decision for a gated agent.
func (r *Registry) Approve(ctx context.Context, agentID string, approved bool) (*domain.AgentNode, error) {
	agent, err := r.store.GetAgentNode(ctx, agentID)
	if err != nil {
		return nil, nil
	}
	if agent.Status != domain.AgentStatusAwaitingApproval {
		return nil, nil
	}
	if approved {
		agent.Status = domain.AgentStatusIdle
		r.log.Info("agent approved by user", "name", agent.Name)
	} else {
		now := time.Now()
		agent.Status = domain.AgentStatusRetired
		agent.RetiredAt = &now
		agent.Error = "denied by user"
		r.log.Info("agent denied by user", "name", agent.Name)
	}
	if err := r.store.SaveAgentNode(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// GetActive returns every non-retired agent.
func (r *Registry) GetActive(ctx context.Context) ([]*domain.AgentNode, error) {
	return r.store.ListAgentNodesByStatus(ctx,
		domain.AgentStatusAwaitingApproval, domain.AgentStatusIdle,
		domain.AgentStatusSpawning, domain.AgentStatusWorking, domain.AgentStatusCompleted)
}

// GetForSeed returns every active agent assigned to seedID.
func (r *Registry) GetForSeed(ctx context.Context, seedID string) ([]*domain.AgentNode, error) {
	all, err := r.store.ListAgentNodesForSeed(ctx, seedID)
	if err != nil {
		return nil, err
	}
	var out []*domain.AgentNode
	for _, a := range all {
		if a.Status != domain.AgentStatusRetired {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetIdle returns every agent ready to work.
func (r *Registry) GetIdle(ctx context.Context) ([]*domain.AgentNode, error) {
	return r.store.ListAgentNodesByStatus(ctx, domain.AgentStatusIdle)
}

// GetCompleted returns every agent that finished but hasn't been
// retired yet.
func (r *Registry) GetCompleted(ctx context.Context) ([]*domain.AgentNode, error) {
	return r.store.ListAgentNodesByStatus(ctx, domain.AgentStatusCompleted)
}

// GetAwaitingApproval returns every agent blocked on user approval.
func (r *Registry) GetAwaitingApproval(ctx context.Context) ([]*domain.AgentNode, error) {
	return r.store.ListAgentNodesByStatus(ctx, domain.AgentStatusAwaitingApproval)
}
