package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spektr-org/iplstats/dataset"
	"github.com/spektr-org/iplstats/schema"
)

// Translator turns questions into QuerySpecs through a Completer.
// It holds no per-question state and is safe for concurrent use.
type Translator struct {
	completer Completer
	schema    schema.Config
	summary   *dataset.Summary
	timeout   time.Duration
}

// New creates a Translator. A zero timeout leaves deadlines to the caller's context.
func New(c Completer, sch schema.Config, summary *dataset.Summary, timeout time.Duration) *Translator {
	return &Translator{completer: c, schema: sch, summary: summary, timeout: timeout}
}

// Translate builds the prompt, calls the model and parses its answer.
// Completer failures are returned wrapped; parse failures wrap
// ErrMalformedResponse, ErrUnsafeQuery or ErrUnsupportedSQL.
func (t *Translator) Translate(ctx context.Context, question string) (*TranslateResult, error) {
	prompt, err := BuildPrompt(t.schema, t.summary, question)
	if err != nil {
		return nil, err
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	log := logrus.WithField("question", truncate(question, 80))
	log.WithField("prompt", len(prompt)).Debug("translating question")

	start := time.Now()
	completion, err := t.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("completion received")

	result, err := ParseCompletion(completion, t.schema)
	if err != nil {
		log.WithError(err).Warn("could not parse completion")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"groupBy":    result.QuerySpec.GroupBy,
		"metrics":    len(result.QuerySpec.Metrics),
		"sql":        result.SQL != "",
		"confidence": result.QuerySpec.Confidence,
	}).Info("question translated")
	return result, nil
}
