// Package capabilities implements what spawned agents can actually do.
// Each capability is a handler function taking a free-form parameter map
// and returning a result; safe capabilities auto-execute, gated
// capabilities (code_exec, file_write) only run once an agent has been
// approved by the registry.
package capabilities

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	domainerrors "github.com/w0rd-garden/w0rd/internal/domain/errors"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/textmodel"
	"github.com/w0rd-garden/w0rd/internal/utils"
)

// Result is the outcome of executing a capability handler.
type Result struct {
	Success bool
	Output  string
	Stderr  string
	Error   string
}

// Handler executes one capability given free-form params.
type Handler func(ctx context.Context, params map[string]any) Result

// Registry maps capability name to handler, plus the safety class every
// capability belongs to.
type Registry struct {
	model     textmodel.TextModel
	workspace string
	handlers  map[string]Handler
}

// GatedCapabilities require explicit user approval before an agent
// spawned with one of these types advances past awaiting_approval.
var GatedCapabilities = map[string]bool{
	"code_exec":  true,
	"file_write": true,
}

// New builds the capability registry rooted at workspace for file
// operations, using model for every LLM-backed capability.
func New(model textmodel.TextModel, workspace string) *Registry {
	r := &Registry{model: model, workspace: workspace}
	r.handlers = map[string]Handler{
		"analyze":    r.analyze,
		"summarize":  r.summarize,
		"decompose":  r.decompose,
		"code_gen":   r.codeGen,
		"planner":    r.planner,
		"web_search": r.webSearch,
		"file_read":  r.fileRead,
		"file_write": r.fileWrite,
		"code_exec":  r.codeExec,
	}
	return r
}

// Execute runs a capability by name, converting an unknown capability or
// a handler panic-free failure into a Result instead of an error — the
// scheduler always gets a result to persist against the agent.
func (r *Registry) Execute(ctx context.Context, capability string, params map[string]any) Result {
	handler, ok := r.handlers[capability]
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("unknown capability: %s", capability)}
	}
	return handler(ctx, params)
}

func paramString(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (r *Registry) generate(ctx context.Context, organ, phase, system, prompt string, temperature float64, maxTokens int) string {
	out, err := r.model.Complete(ctx, textmodel.Request{
		Organ: organ, Phase: phase, System: system, Prompt: prompt,
		Temperature: temperature, MaxTokens: maxTokens,
	}, nil)
	if err != nil {
		return ""
	}
	return out
}

func (r *Registry) analyze(ctx context.Context, params map[string]any) Result {
	task := paramString(params, "task")
	data := paramString(params, "data")

	prompt := fmt.Sprintf("You are an analytical agent in a living system. Your task:\n\n%s\n\n", task)
	if data != "" {
		prompt += fmt.Sprintf("Data to analyze:\n%s\n\n", truncate(data, 3000))
	}
	prompt += "Provide a clear, structured analysis. Be concise and actionable."

	out := r.generate(ctx, "cortex", "analyzing",
		"You are a precise analytical agent. Provide structured, actionable analysis.",
		prompt, 0.4, 1024)
	if out == "" {
		return Result{Success: false, Output: "Analysis failed — LLM unavailable"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) summarize(ctx context.Context, params map[string]any) Result {
	text := paramString(params, "text")
	if text == "" {
		return Result{Success: false, Error: "no text provided"}
	}
	maxPoints := 5
	prompt := fmt.Sprintf("Summarize the following into %d key points:\n\n%s\n\nFormat as a numbered list. Be concise.",
		maxPoints, truncate(text, 4000))

	out := r.generate(ctx, "cortex", "summarizing",
		"You are a summarization agent. Extract the most important points.",
		prompt, 0.3, 512)
	if out == "" {
		return Result{Success: false, Output: "Summarization failed"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) decompose(ctx context.Context, params map[string]any) Result {
	task := paramString(params, "task")
	if task == "" {
		return Result{Success: false, Error: "no task provided"}
	}
	prompt := fmt.Sprintf(
		"Break this task into 6 or fewer concrete subtasks:\n\n%q\n\nList each subtask with what type of agent should handle it (analyze, code_gen, summarize, web_search, file_read, file_write).",
		task)
	out := r.generate(ctx, "cortex", "decomposing",
		"You are a task decomposition agent. Break complex tasks into actionable subtasks.",
		prompt, 0.3, 1024)
	if out == "" {
		return Result{Success: false, Output: "Decomposition failed"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) codeGen(ctx context.Context, params map[string]any) Result {
	task := paramString(params, "task")
	language := utils.DefaultValue(paramString(params, "language"), "go")
	context_ := paramString(params, "context")

	prompt := fmt.Sprintf("Generate %s code for the following requirement:\n\n%s\n\n", language, task)
	if context_ != "" {
		prompt += fmt.Sprintf("Context/existing code:\n```\n%s\n```\n\n", truncate(context_, 2000))
	}
	prompt += "Return ONLY the code in a code block. Include necessary imports. Make it production-ready, well-structured, and commented."

	out := r.generate(ctx, "cortex", "coding",
		fmt.Sprintf("You are an expert %s developer. Generate clean, working code.", language),
		prompt, 0.3, 2048)
	if out == "" {
		return Result{Success: false, Output: "Code generation failed"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) planner(ctx context.Context, params map[string]any) Result {
	mission := paramString(params, "mission")
	constraints := paramString(params, "constraints")

	prompt := fmt.Sprintf("Create a detailed execution plan for this mission:\n\n%q\n\n", mission)
	if constraints != "" {
		prompt += fmt.Sprintf("Constraints: %s\n\n", constraints)
	}
	prompt += "Include:\n1. Goal statement\n2. Step-by-step plan with agent types needed\n3. Success criteria\n4. Risk factors\nBe specific and actionable."

	out := r.generate(ctx, "cortex", "planning",
		"You are a strategic planning agent. Create clear, actionable plans.",
		prompt, 0.4, 1024)
	if out == "" {
		return Result{Success: false, Output: "Planning failed"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) webSearch(ctx context.Context, params map[string]any) Result {
	query := paramString(params, "query")
	if query == "" {
		return Result{Success: false, Error: "no query provided"}
	}
	// No web search backend is wired (Non-goal); LLM knowledge stands in,
	// matching the original's own stub.
	prompt := fmt.Sprintf("Answer this question using your knowledge:\n\n%q\n\nProvide factual, well-sourced information. Note when you're uncertain.", query)
	out := r.generate(ctx, "cortex", "researching",
		"You are a research agent. Provide accurate, factual information.",
		prompt, 0.3, 1024)
	if out == "" {
		return Result{Success: false, Output: "Search failed"}
	}
	return Result{Success: true, Output: out}
}

func (r *Registry) resolveWorkspacePath(rel string) (string, error) {
	root, err := filepath.Abs(r.workspace)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(filepath.Join(root, rel))
	if err != nil {
		return "", err
	}
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", domainerrors.NewValidationError("path", "resolved path escapes the workspace root")
	}
	return target, nil
}

func (r *Registry) fileRead(_ context.Context, params map[string]any) Result {
	path := paramString(params, "path")
	if path == "" {
		return Result{Success: false, Error: "no path provided"}
	}
	target, err := r.resolveWorkspacePath(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	content, err := os.ReadFile(target)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("file not found: %s", path)}
	}
	text := strings.ToValidUTF8(string(content), "�")
	if len(text) > 10000 {
		text = text[:10000] + fmt.Sprintf("\n\n... [truncated, %d chars total]", len(text))
	}
	return Result{Success: true, Output: text}
}

func (r *Registry) fileWrite(_ context.Context, params map[string]any) Result {
	path := paramString(params, "path")
	content := paramString(params, "content")
	if path == "" {
		return Result{Success: false, Error: "no path provided"}
	}
	target, err := r.resolveWorkspacePath(path)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, Output: fmt.Sprintf("Written %d chars to %s", len(content), path)}
}

func (r *Registry) codeExec(ctx context.Context, params map[string]any) Result {
	code := paramString(params, "code")
	if code == "" {
		return Result{Success: false, Error: "no code provided"}
	}
	timeout := 30
	if v, ok := params["timeout"].(int); ok && v > 0 {
		timeout = v
	}
	if timeout > 60 {
		timeout = 60
	}

	tmp, err := os.CreateTemp("", "w0rd-agent-*.go")
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return Result{Success: false, Error: err.Error()}
	}
	tmp.Close()

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "go", "run", tmpPath)
	cmd.Dir = r.workspace
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runCtx.Err() != nil {
		return Result{Success: false, Error: fmt.Sprintf("execution timed out after %ds", timeout)}
	}
	if runErr != nil {
		return Result{Success: false, Output: stdout.String(), Stderr: stderr.String(), Error: stderr.String()}
	}
	return Result{Success: true, Output: stdout.String(), Stderr: stderr.String()}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
