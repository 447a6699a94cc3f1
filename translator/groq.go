package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Groq defaults.
const (
	GroqEndpoint     = "https://api.groq.com/openai/v1"
	GroqDefaultModel = "llama3-8b-8192"
)

// ChatClient is the subset of openai.Client the completer uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Groq completes prompts through an OpenAI-compatible chat endpoint.
// The zero Endpoint targets Groq; any OpenAI-compatible base URL works.
type Groq struct {
	client ChatClient
	config Config
}

// NewGroq creates a Groq completer.
func NewGroq(cfg Config) *Groq {
	if cfg.Model == "" {
		cfg.Model = GroqDefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = GroqEndpoint
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.Endpoint
	return &Groq{client: openai.NewClientWithConfig(oc), config: cfg}
}

// NewGroqWithClient creates a Groq completer on an existing client.
func NewGroqWithClient(client ChatClient, cfg Config) *Groq {
	g := NewGroq(cfg)
	g.client = client
	return g
}

// Complete sends prompt as a single user message.
func (g *Groq) Complete(ctx context.Context, prompt string) (string, error) {
	logrus.WithFields(logrus.Fields{
		"model":  g.config.Model,
		"prompt": len(prompt),
	}).Debug("sending chat completion")

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion: empty content")
	}
	return content, nil
}
