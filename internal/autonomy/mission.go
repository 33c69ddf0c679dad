package autonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/w0rd-garden/w0rd/internal/domain"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
)

// validAgentTypes mirrors the agent registry's type roster; kept as a
// local set so the planner doesn't need to import the agents package.
var validAgentTypes = map[string]bool{
	"analyze": true, "code_gen": true, "code_exec": true, "web_search": true,
	"file_read": true, "file_write": true, "summarize": true, "decompose": true, "planner": true,
}

// Task is one agent task the Cortex plans against a mission (seed).
type Task struct {
	AgentType string `json:"agent_type"`
	Task      string `json:"task"`
	Priority  string `json:"priority"`
}

// PlanMission decides what agents, if any, should be spawned next for a
// seed, given the agents already working or completed on it.
func (e *Engine) PlanMission(ctx context.Context, seed *domain.Seed, existing []*domain.AgentNode) []Task {
	var active, completed []*domain.AgentNode
	for _, a := range existing {
		switch a.Status {
		case domain.AgentStatusIdle, domain.AgentStatusWorking, domain.AgentStatusSpawning:
			active = append(active, a)
		case domain.AgentStatusCompleted:
			if a.Result != "" {
				completed = append(completed, a)
			}
		}
	}

	if len(active) >= 4 {
		return nil
	}
	if seed.Status != domain.SeedStatusGrowing {
		return nil
	}
	if len(completed) >= 3 {
		return nil
	}

	if len(existing) == 0 {
		return e.initialPlan(ctx, seed)
	}
	if len(completed) > 0 && len(active) == 0 {
		return e.followupPlan(ctx, seed, completed)
	}
	return nil
}

func sanitizeTasks(raw string, limit int) []Task {
	var items []Task
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	var tasks []Task
	for _, item := range items {
		if len(tasks) >= limit {
			break
		}
		if item.AgentType == "" || item.Task == "" || !validAgentTypes[item.AgentType] {
			continue
		}
		if len(item.Task) > 500 {
			item.Task = item.Task[:500]
		}
		if item.Priority == "" {
			item.Priority = "medium"
		}
		tasks = append(tasks, item)
	}
	return tasks
}

func (e *Engine) initialPlan(ctx context.Context, seed *domain.Seed) []Task {
	essence := seed.Essence
	truncated := essence
	if len(truncated) > 200 {
		truncated = truncated[:200]
	}

	if e.model != nil && e.budget.available() {
		e.budget.use()
		result, err := e.model.Complete(ctx, textmodel.Request{
			Organ: "cortex", Phase: "mission_planning",
			System: "You are the Cortex planner. Decompose missions into agent tasks.",
			Prompt: fmt.Sprintf(
				"You are the Cortex of an autonomous agent system. A user planted this seed (mission):\n\n"+
					"\"%s\"\nThemes: %v\n\n"+
					"Decompose this into 1-3 agent tasks. Available agent types:\n"+
					"- analyze: reason about data, evaluate options\n"+
					"- code_gen: generate code (does not execute)\n"+
					"- decompose: break into subtasks\n"+
					"- summarize: condense information\n"+
					"- web_search: research information\n"+
					"- planner: create execution plans\n"+
					"- file_read: read workspace files\n\n"+
					"Return a JSON array of objects with: \"agent_type\", \"task\", \"priority\" (high/medium/low).\n"+
					"Keep it to 1-3 tasks. Return ONLY the JSON array.",
				essence, seed.Themes),
			Temperature: 0.3, MaxTokens: 512,
		}, nil)
		if err == nil {
			if tasks := sanitizeTasks(result, 3); len(tasks) > 0 {
				e.log.Info("cortex planned agents", "seed_id", seed.ID, "count", len(tasks))
				return tasks
			}
		} else {
			e.log.Debug("llm mission planning failed", "error", err)
		}
	}

	return []Task{
		{AgentType: "decompose", Task: "Break down this mission: " + truncated, Priority: "high"},
		{AgentType: "analyze", Task: "Analyze requirements and constraints for: " + truncated, Priority: "medium"},
	}
}

func (e *Engine) followupPlan(ctx context.Context, seed *domain.Seed, completed []*domain.AgentNode) []Task {
	essence := seed.Essence
	truncated := essence
	if len(truncated) > 200 {
		truncated = truncated[:200]
	}

	limit := completed
	if len(limit) > 4 {
		limit = limit[:4]
	}
	var lines []string
	for _, a := range limit {
		preview := a.Result
		if len(preview) > 300 {
			preview = preview[:300]
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", a.Name, a.Type, preview))
	}
	resultsText := strings.Join(lines, "\n")

	if e.model != nil && e.budget.available() {
		e.budget.use()
		result, err := e.model.Complete(ctx, textmodel.Request{
			Organ: "cortex", Phase: "followup_planning",
			System: "You are the Cortex planner. Decide follow-up actions.",
			Prompt: fmt.Sprintf(
				"You are the Cortex of an autonomous agent system.\nMission: \"%s\"\n\n"+
					"Completed agent results:\n%s\n\n"+
					"Based on these results, what follow-up agents are needed? "+
					"If the mission seems complete, return an empty array [].\n"+
					"Available types: analyze, code_gen, summarize, web_search, planner, decompose, file_read\n\n"+
					"Return a JSON array of 0-2 objects with: \"agent_type\", \"task\", \"priority\".\n"+
					"Return ONLY the JSON array.",
				essence, resultsText),
			Temperature: 0.3, MaxTokens: 512,
		}, nil)
		if err == nil {
			return sanitizeTasks(result, 2)
		}
		e.log.Debug("llm followup planning failed", "error", err)
	}

	decomposeDone, analyzeDone := false, false
	for _, a := range completed {
		switch a.Type {
		case "decompose":
			decomposeDone = true
		case "analyze":
			analyzeDone = true
		}
	}
	if decomposeDone && !analyzeDone {
		return []Task{{AgentType: "analyze", Task: "Analyze the decomposed subtasks for: " + truncated, Priority: "medium"}}
	}
	if analyzeDone {
		return []Task{{AgentType: "summarize", Task: "Summarize findings for mission: " + truncated, Priority: "low"}}
	}
	return nil
}

// EvaluateMission reports whether a mission should continue, harvest, or
// compost, based on the status of its agents.
func EvaluateMission(agentNodes []*domain.AgentNode) string {
	var active, completed, failed []*domain.AgentNode
	for _, a := range agentNodes {
		switch a.Status {
		case domain.AgentStatusIdle, domain.AgentStatusWorking, domain.AgentStatusSpawning:
			active = append(active, a)
		case domain.AgentStatusCompleted:
			completed = append(completed, a)
			if a.Error != "" {
				failed = append(failed, a)
			}
		}
	}

	if len(active) > 0 {
		return "continue"
	}
	if len(agentNodes) == 0 {
		return "continue"
	}
	if len(failed) > 0 && len(failed) == len(completed) {
		return "compost"
	}

	var successful int
	for _, a := range completed {
		if a.Result != "" && a.Error == "" {
			successful++
		}
	}
	if successful >= 2 {
		return "harvest"
	}
	return "continue"
}
