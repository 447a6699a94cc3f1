package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spektr-org/iplstats/config"
	"github.com/spektr-org/iplstats/engine"
	"github.com/spektr-org/iplstats/render"
	"github.com/spektr-org/iplstats/schema"
	"github.com/spektr-org/iplstats/translator"
)

// ============================================================================
// ASSISTANT — One question in, one answer out
// ============================================================================
// Pipeline per question:
//   1. Translate the question into a QuerySpec (LLM)
//   2. Execute it against the in-memory dataset
//   3. Render the result as a ranked text answer
//
// Failures never escape as panics or abort the session: every error is
// classified into a Kind and returned inside the Answer.
// ============================================================================

// Kind classifies the outcome of a question.
type Kind string

const (
	KindOK        Kind = ""
	KindConfig    Kind = "config"    // missing or invalid settings
	KindLLM       Kind = "llm"       // network or API failure
	KindMalformed Kind = "malformed" // no usable query in the completion
	KindQuery     Kind = "query"     // query referenced unknown fields or operations
	KindEmpty     Kind = "empty"     // valid query, no matching rows
)

// Translator turns a question into a QuerySpec.
type Translator interface {
	Translate(ctx context.Context, question string) (*translator.TranslateResult, error)
}

// Options tunes how answers are produced.
type Options struct {
	Fallback       bool // answer with a canned query when translation or execution fails
	MaxRowsDisplay int  // ranked rows in the text answer
	MaxListRows    int  // cap for "list" queries without a limit
}

// OptionsFrom maps the assistant config section to Options.
func OptionsFrom(cfg config.AssistantConfig) Options {
	return Options{Fallback: cfg.Fallback, MaxRowsDisplay: cfg.MaxRowsDisplay}
}

// Answer is the outcome of one question.
type Answer struct {
	Question       string                 `json:"question"`
	Query          *engine.QuerySpec      `json:"query,omitempty"`
	SQL            string                 `json:"sql,omitempty"`
	Interpretation *engine.Interpretation `json:"interpretation,omitempty"`
	Result         *engine.Result         `json:"result,omitempty"`
	Text           string                 `json:"answer"`
	Kind           Kind                   `json:"kind,omitempty"`
	Message        string                 `json:"error,omitempty"`
	Fallback       bool                   `json:"fallback,omitempty"`
	Err            error                  `json:"-"`
}

// Failed reports whether the question produced an error.
func (a Answer) Failed() bool { return a.Err != nil }

// Assistant answers questions over one immutable dataset.
// It keeps no per-question state and is safe for concurrent use.
type Assistant struct {
	view       engine.RecordView
	translator Translator
	schema     schema.Config
	opts       Options
}

// New creates an Assistant.
func New(view engine.RecordView, tr Translator, sch schema.Config, opts Options) *Assistant {
	if opts.MaxRowsDisplay <= 0 {
		opts.MaxRowsDisplay = render.DefaultMaxRows
	}
	return &Assistant{view: view, translator: tr, schema: sch, opts: opts}
}

// Schema returns the schema questions are answered against.
func (a *Assistant) Schema() schema.Config { return a.schema }

// Ask answers a single question.
func (a *Assistant) Ask(ctx context.Context, question string) Answer {
	question = strings.TrimSpace(question)
	ans := Answer{Question: question}
	log := logrus.WithField("question", question)
	start := time.Now()

	if question == "" {
		return a.fail(ans, translator.ErrEmptyQuestion)
	}

	tr, err := a.translator.Translate(ctx, question)
	if err != nil {
		log.WithError(err).Warn("translation failed")
		return a.tryFallback(ctx, ans, err)
	}

	ans.Query = &tr.QuerySpec
	ans.SQL = tr.SQL
	if tr.Interpretation.Summary != "" {
		interp := tr.Interpretation
		ans.Interpretation = &interp
	}

	res, err := a.execute(tr.QuerySpec)
	if err != nil {
		log.WithError(err).Warn("query rejected")
		return a.tryFallback(ctx, ans, err)
	}

	log.WithFields(logrus.Fields{
		"type":    res.Type,
		"empty":   res.Empty,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("question answered")
	return a.finish(ans, res)
}

func (a *Assistant) execute(spec engine.QuerySpec) (*engine.Result, error) {
	return engine.Execute(spec, a.view, a.engineOptions()...)
}

func (a *Assistant) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithDefaultMeasure(a.schema.GetDefaultMeasure()),
		engine.WithTemporalDimension(a.schema.TemporalField()),
		engine.WithMaxListRows(a.opts.MaxListRows),
	}
}

func (a *Assistant) finish(ans Answer, res *engine.Result) Answer {
	ans.Result = res
	ans.Text = render.Text(res, a.opts.MaxRowsDisplay)
	if res.Empty {
		ans.Kind = KindEmpty
	}
	return ans
}

// tryFallback answers with a canned query when fallback is enabled and the
// question matches one, else reports err.
func (a *Assistant) tryFallback(ctx context.Context, ans Answer, err error) Answer {
	kind := Classify(err)
	if !a.opts.Fallback || kind == KindConfig || ctx.Err() != nil {
		return a.fail(ans, err)
	}

	spec, ok := FallbackSpec(ans.Question)
	if !ok {
		return a.fail(ans, err)
	}
	res, ferr := a.execute(spec)
	if ferr != nil {
		logrus.WithError(ferr).Error("fallback query failed")
		return a.fail(ans, err)
	}

	logrus.WithFields(logrus.Fields{
		"question": ans.Question,
		"cause":    kind,
	}).Info("answered with fallback query")
	ans.Query = &spec
	ans.SQL = ""
	ans.Interpretation = nil
	ans.Fallback = true
	return a.finish(ans, res)
}

func (a *Assistant) fail(ans Answer, err error) Answer {
	ans.Err = err
	ans.Kind = Classify(err)
	ans.Message = err.Error()
	ans.Text = Explain(ans.Kind, err)
	return ans
}

// ============================================================================
// ERROR CLASSIFICATION
// ============================================================================

// Classify maps an error from the pipeline to its Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, config.ErrMissingSetting), errors.Is(err, config.ErrInvalidSetting):
		return KindConfig
	case errors.Is(err, engine.ErrUnknownField), errors.Is(err, engine.ErrInvalidQuery):
		return KindQuery
	case errors.Is(err, translator.ErrMalformedResponse),
		errors.Is(err, translator.ErrUnsafeQuery),
		errors.Is(err, translator.ErrUnsupportedSQL),
		errors.Is(err, translator.ErrEmptyQuestion):
		return KindMalformed
	default:
		return KindLLM
	}
}

// Explain returns the user-facing text for a failed question.
func Explain(kind Kind, err error) string {
	switch kind {
	case KindLLM:
		return "Sorry, I couldn't reach the language model right now. Please try again in a moment."
	case KindMalformed:
		return Suggestions()
	case KindQuery:
		return "Sorry, I couldn't process your query (" + err.Error() + "). Please try rephrasing your question."
	case KindConfig:
		return "The assistant is not configured: " + err.Error()
	default:
		return "Sorry, I encountered an error while processing your question: " + err.Error()
	}
}
