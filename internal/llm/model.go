package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fkoller/threatfeed/internal/config"
	"github.com/fkoller/threatfeed/internal/models"
)

// Usage carries token counts reported by the completion API.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Model wraps a langchaingo chat model.
type Model struct {
	llm       llms.Model
	modelName string

	// tools are provider-resolved tool declarations (file search, web
	// search) passed through opaquely on every completion call.
	tools []llms.Tool
}

// NewModel creates a chat model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return &Model{
		llm:       model,
		modelName: cfg.LLMModel,
	}, nil
}

// WithTools attaches tool declarations forwarded to the provider on every
// call. The service resolves them internally; replies come back as plain text.
func (m *Model) WithTools(tools []llms.Tool) *Model {
	m.tools = tools
	return m
}

// Model returns the chat model name.
func (m *Model) Model() string {
	return m.modelName
}

// Complete sends the full ordered conversation history and returns the
// reply along with token usage.
func (m *Model) Complete(ctx context.Context, turns []models.Turn) (string, Usage, error) {
	messages := buildMessages(turns)

	var opts []llms.CallOption
	if len(m.tools) > 0 {
		opts = append(opts, llms.WithTools(m.tools))
	}

	resp, err := m.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", Usage{}, fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("no response choices")
	}

	choice := resp.Choices[0]
	return choice.Content, usageFromInfo(choice.GenerationInfo), nil
}

// buildMessages maps conversation turns onto langchaingo message types.
// Retrieved-context turns travel as human messages so every provider
// accepts them mid-conversation.
func buildMessages(turns []models.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns))
	for _, t := range turns {
		var role llms.ChatMessageType
		switch t.Role {
		case models.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case models.RoleAssistant:
			role = llms.ChatMessageTypeAI
		case models.RoleUser, models.RoleContext:
			role = llms.ChatMessageTypeHuman
		default:
			role = llms.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, t.Content))
	}
	return messages
}

// usageFromInfo extracts token counts from a choice's GenerationInfo.
// Providers report these under different numeric types.
func usageFromInfo(info map[string]any) Usage {
	return Usage{
		InputTokens:  toInt64(info["PromptTokens"]),
		OutputTokens: toInt64(info["CompletionTokens"]),
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
