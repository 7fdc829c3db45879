// Package openai adapts OpenAI-compatible endpoints into voice pipeline plugins.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vietddude/callguard/internal/infra/call"
)

// Role is the position of a plugin in the voice pipeline.
type Role string

const (
	RoleLLM Role = "llm"
	RoleSTT Role = "stt"
	RoleTTS Role = "tts"
)

// Settings configures one plugin endpoint.
type Settings struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
}

// ModelInfo is what a successful probe learned about the plugin's model.
type ModelInfo struct {
	Role    Role   `json:"role"`
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// Plugin is one externally hosted model behind an OpenAI-compatible API.
type Plugin struct {
	role     Role
	settings Settings
	client   *openai.Client
}

// NewPlugin creates a plugin for the given pipeline role.
func NewPlugin(role Role, s Settings) *Plugin {
	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	}
	return &Plugin{
		role:     role,
		settings: s,
		client:   openai.NewClientWithConfig(cfg),
	}
}

// Name identifies the plugin in logs, metrics and health reports.
func (p *Plugin) Name() string {
	return string(p.role)
}

func (p *Plugin) Role() Role      { return p.role }
func (p *Plugin) Model() string   { return p.settings.Model }
func (p *Plugin) Voice() string   { return p.settings.Voice }
func (p *Plugin) BaseURL() string { return p.settings.BaseURL }

// Probe checks that the endpoint accepts the credentials and serves the model.
func (p *Plugin) Probe(ctx context.Context) (*ModelInfo, error) {
	if err := p.checkSettings(); err != nil {
		return nil, err
	}

	m, err := p.client.GetModel(ctx, p.settings.Model)
	if err != nil {
		return nil, fmt.Errorf("%s probe: %w", p.role, err)
	}
	return &ModelInfo{Role: p.role, ID: m.ID, OwnedBy: m.OwnedBy}, nil
}

// Complete runs one conversational turn: the instructions as system prompt,
// text as the user message. An empty reply is returned as an empty string.
func (p *Plugin) Complete(ctx context.Context, instructions, text string) (string, error) {
	if p.role != RoleLLM {
		return "", call.NewServiceError(call.ReasonMalformedRequest, "%s plugin cannot complete chat", p.role)
	}
	if err := p.checkSettings(); err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if instructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.settings.Model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("llm completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *Plugin) checkSettings() error {
	if p.settings.APIKey == "" {
		return call.NewServiceError(call.ReasonAuthentication, "%s plugin has no api key", p.role)
	}
	if p.settings.Model == "" {
		return call.NewServiceError(call.ReasonMalformedRequest, "%s plugin has no model", p.role)
	}
	return nil
}
