package translator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"
)

// Ollama defaults.
const (
	OllamaDefaultHost  = "http://localhost:11434"
	OllamaDefaultModel = "llama3"
)

const ollamaSystem = "You translate cricket statistics questions into JSON query specifications."

// generateFunc performs one non-streaming generation.
type generateFunc func(model, system, prompt string) (response string, done bool, err error)

// Ollama completes prompts with a locally served model.
type Ollama struct {
	generate generateFunc
	model    string
}

// NewOllama creates an Ollama completer. Endpoint is the server URL.
func NewOllama(cfg Config) (*Ollama, error) {
	host := cfg.Endpoint
	if host == "" {
		host = OllamaDefaultHost
	}
	model := cfg.Model
	if model == "" {
		model = OllamaDefaultModel
	}

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	client := ollama.New(*u)

	logrus.WithFields(logrus.Fields{"host": host, "model": model}).Info("using ollama completer")

	return &Ollama{
		model: model,
		generate: func(model, system, prompt string) (string, bool, error) {
			res, err := client.Generate(
				client.Generate.WithModel(model),
				client.Generate.WithSystem(system),
				client.Generate.WithPrompt(prompt),
			)
			if err != nil {
				return "", false, err
			}
			return res.Response, res.Done, nil
		},
	}, nil
}

// Complete runs Generate. The client has no context support, so a cancelled
// context abandons the call and returns ctx.Err().
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	type reply struct {
		text string
		done bool
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		text, done, err := o.generate(o.model, ollamaSystem, prompt)
		ch <- reply{text, done, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("ollama generate: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("ollama generate: %w", r.err)
		}
		if !r.done {
			return "", fmt.Errorf("ollama generate: response not finished")
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", fmt.Errorf("ollama generate: empty response")
		}
		return text, nil
	}
}
