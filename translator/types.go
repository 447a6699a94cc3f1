package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/spektr-org/iplstats/engine"
)

// ============================================================================
// TRANSLATOR — AI boundary for natural language → QuerySpec
// ============================================================================
// The translator is the ONLY component that calls an external AI service.
// It sends schema metadata, a dataset summary and the question. It never
// sends rows. The completion is parsed into an allow-listed QuerySpec.
// ============================================================================

// Completer sends a prompt to a language model and returns its raw text.
// Implementations: Groq (OpenAI-compatible), Ollama (local), Gemini.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// TranslateResult contains the QuerySpec and what the model understood.
type TranslateResult struct {
	QuerySpec      engine.QuerySpec      `json:"querySpec"`
	Interpretation engine.Interpretation `json:"interpretation"`

	// Raw is the model's completion after fence stripping.
	Raw string `json:"raw,omitempty"`
	// SQL is set when the completion was a SELECT statement lowered into QuerySpec.
	SQL string `json:"sql,omitempty"`
}

// Config holds completer configuration.
type Config struct {
	APIKey      string  // provider API key
	Model       string  // model name (empty = provider default)
	Endpoint    string  // API endpoint override (empty = provider default)
	Temperature float32 // sampling temperature
	MaxTokens   int     // completion budget
}

var (
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("empty question")

	// ErrMalformedResponse is returned when no query can be extracted from a completion.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrUnsafeQuery is returned for SQL completions that are not a single SELECT.
	ErrUnsafeQuery = errors.New("unsafe query")

	// ErrUnsupportedSQL is returned for SELECT statements using constructs
	// the engine cannot express (joins, subqueries, CASE, ...).
	ErrUnsupportedSQL = errors.New("unsupported SQL")
)

// NewCompleter returns the Completer for a provider name: groq, ollama or gemini.
func NewCompleter(provider string, cfg Config) (Completer, error) {
	switch provider {
	case "", "groq":
		return NewGroq(cfg), nil
	case "ollama":
		o, err := NewOllama(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	case "gemini":
		return NewGemini(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
