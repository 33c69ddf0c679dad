// Package textmodel provides the organism's one connection to a language
// model: every organ that needs to compose prose or judge a prompt goes
// through the TextModel interface so the backend (local Ollama, or a
// pluggable OpenAI-compatible API) can be swapped without touching organ
// code.
package textmodel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domainerrors "github.com/w0rd-garden/w0rd/internal/domain/errors"
	"github.com/w0rd-garden/w0rd/internal/infrastructure/tracing"
)

// ThinkingEvent carries one streamed token out to anyone broadcasting the
// organism's live train of thought (the websocket hub, primarily).
type ThinkingEvent struct {
	Organ          string    `json:"organ"`
	Phase          string    `json:"phase"`
	Token          string    `json:"token"`
	RunningContent string    `json:"running_content"`
	Timestamp      time.Time `json:"timestamp"`
}

// TokenSink receives ThinkingEvents as a completion streams in.
type TokenSink func(ev ThinkingEvent)

// Request describes a single completion call.
type Request struct {
	Organ       string
	Phase       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// TextModel is implemented by every pluggable backend.
type TextModel interface {
	Complete(ctx context.Context, req Request, onToken TokenSink) (string, error)
}

// OllamaModel talks to a local Ollama server's streaming NDJSON
// generate endpoint.
type OllamaModel struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaModel(baseURL, model string) *OllamaModel {
	return &OllamaModel{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (m *OllamaModel) Complete(ctx context.Context, req Request, onToken TokenSink) (result string, err error) {
	ctx, span := tracing.StartSpan(ctx, "textmodel.complete",
		trace.WithAttributes(attribute.String("organ", req.Organ), attribute.String("phase", req.Phase), attribute.String("backend", "ollama")))
	defer func() {
		tracing.RecordError(ctx, err)
		span.End()
	}()

	body, marshalErr := json.Marshal(ollamaGenerateRequest{
		Model:  m.Model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: true,
		Options: map[string]interface{}{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	})
	if marshalErr != nil {
		return "", domainerrors.NewTransientError("ollama.marshal", marshalErr)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", domainerrors.NewTransientError("ollama.request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.Client.Do(httpReq)
	if err != nil {
		return "", domainerrors.NewTransientError("ollama.do", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domainerrors.NewTransientError("ollama.status", fmt.Errorf("ollama returned status %d", resp.StatusCode))
	}

	var running bytes.Buffer
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaGenerateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Response != "" {
			running.WriteString(chunk.Response)
			if onToken != nil {
				onToken(ThinkingEvent{
					Organ:          req.Organ,
					Phase:          req.Phase,
					Token:          chunk.Response,
					RunningContent: running.String(),
					Timestamp:      time.Now(),
				})
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return running.String(), domainerrors.NewTransientError("ollama.stream", err)
	}
	return running.String(), nil
}

// OpenAIModel is an alternate TextModel backend for deployments that would
// rather point the organism at an OpenAI-compatible API instead of a local
// Ollama instance. Selected via config.TextModelBackend == "openai".
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	return &OpenAIModel{client: openai.NewClient(apiKey), model: model}
}

func (m *OpenAIModel) Complete(ctx context.Context, req Request, onToken TokenSink) (result string, err error) {
	ctx, span := tracing.StartSpan(ctx, "textmodel.complete",
		trace.WithAttributes(attribute.String("organ", req.Organ), attribute.String("phase", req.Phase), attribute.String("backend", "openai")))
	defer func() {
		tracing.RecordError(ctx, err)
		span.End()
	}()

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	stream, err := m.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return "", domainerrors.NewTransientError("openai.stream_start", err)
	}
	defer stream.Close()

	var running bytes.Buffer
	for {
		resp, err := stream.Recv()
		if err != nil {
			break
		}
		if len(resp.Choices) == 0 {
			continue
		}
		token := resp.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		running.WriteString(token)
		if onToken != nil {
			onToken(ThinkingEvent{
				Organ:          req.Organ,
				Phase:          req.Phase,
				Token:          token,
				RunningContent: running.String(),
				Timestamp:      time.Now(),
			})
		}
	}
	return running.String(), nil
}
