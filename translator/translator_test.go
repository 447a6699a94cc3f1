package translator

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/iplstats/dataset"
	"github.com/spektr-org/iplstats/schema"
)

// ============================================================================
// PARSER TESTS
// ============================================================================

func TestParseCompletionWrapped(t *testing.T) {
	res, err := ParseCompletion("```json\n"+`{
		"interpretation": {"summary": "Top run scorers", "confidence": 0.9},
		"querySpec": {"groupBy": ["batter"], "aggregation": "sum", "measure": "runs_batter", "limit": 10}
	}`+"\n```", schema.Cricket())
	require.NoError(t, err)

	assert.Equal(t, []string{"batter"}, res.QuerySpec.GroupBy)
	assert.Equal(t, 10, res.QuerySpec.Limit)
	assert.Equal(t, "Top run scorers", res.Interpretation.Summary)
	assert.Equal(t, 0.9, res.QuerySpec.Confidence, "confidence synced from interpretation")
	assert.Empty(t, res.SQL)
}

func TestParseCompletionBareSpec(t *testing.T) {
	res, err := ParseCompletion(`Here you go: {"aggregation": "count", "filters": {"dimensions": {"isSix": ["1"]}}}`, schema.Cricket())
	require.NoError(t, err)
	assert.Equal(t, "count", res.QuerySpec.Aggregation)
	assert.Equal(t, []string{"1"}, res.QuerySpec.Filters.Dimensions["isSix"])
}

func TestParseCompletionSQL(t *testing.T) {
	res, err := ParseCompletion("```sql\nSELECT \"batter\", SUM(\"runs_batter\") AS runs FROM ipl_balls GROUP BY \"batter\" ORDER BY runs DESC LIMIT 10;\n```", schema.Cricket())
	require.NoError(t, err)

	assert.Contains(t, res.SQL, "SELECT")
	assert.Equal(t, []string{"batter"}, res.QuerySpec.GroupBy)
	assert.Equal(t, "runs", res.QuerySpec.SortMetric)
	assert.Equal(t, 0.8, res.Interpretation.Confidence)
}

func TestParseCompletionSQLAfterProse(t *testing.T) {
	res, err := ParseCompletion("Sure! Here is the query:\nSELECT COUNT(*) AS sixes FROM ipl_balls WHERE \"isSix\" = 1", schema.Cricket())
	require.NoError(t, err)
	assert.Equal(t, "sixes", res.QuerySpec.Metrics[0].Name)
}

func TestParseCompletionMalformed(t *testing.T) {
	for _, completion := range []string{
		"",
		"I'm not sure how to answer that.",
		`{"answer": 42}`,
		`{"querySpec": {"limit": "ten"}}`,
		"{not json at all",
	} {
		_, err := ParseCompletion(completion, schema.Cricket())
		assert.ErrorIs(t, err, ErrMalformedResponse, completion)
	}
}

func TestParseCompletionUnsafe(t *testing.T) {
	_, err := ParseCompletion("```sql\nDROP TABLE ipl_balls;\n```", schema.Cricket())
	assert.ErrorIs(t, err, ErrUnsafeQuery)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "SELECT 1", stripFences("text before ```sql\nSELECT 1\n``` text after"))
	assert.Equal(t, "SELECT 1", stripFences("  SELECT 1  "))
	assert.Equal(t, "SELECT 1", stripFences("```SELECT 1"))
}

// ============================================================================
// PROMPT TESTS
// ============================================================================

func TestBuildPrompt(t *testing.T) {
	summary := &dataset.Summary{Records: 260920, Seasons: 17, FirstSeason: "2007/08", LastSeason: "2024", Matches: 1095}
	prompt, err := BuildPrompt(schema.Cricket(), summary, "  Who are the best finishers in death overs?  ")
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Total records: 260,920")
	assert.Contains(t, prompt, "- Seasons: 2007/08-2024 (17 seasons)")
	assert.Contains(t, prompt, `- "bowling_style"`)
	assert.Contains(t, prompt, `- "isWicket" (Wicket)`)
	assert.Contains(t, prompt, "CRICKET RULES:")
	assert.Contains(t, prompt, `death overs are "over" >= 16`)
	assert.Contains(t, prompt, `"measure": "runs_batter"`)
	assert.Contains(t, prompt, "USER QUESTION: Who are the best finishers in death overs?\n")
	assert.NotContains(t, prompt, "HINT: This is a RATIO query")
	assert.True(t, strings.HasSuffix(prompt, "Respond with valid JSON only:\n"))
}

func TestBuildPromptRatioHint(t *testing.T) {
	prompt, err := BuildPrompt(schema.Cricket(), nil, "What percentage of runs came from sixes?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "HINT: This is a RATIO query")
	assert.NotContains(t, prompt, "DATABASE INFO:")
}

func TestBuildPromptEmptyQuestion(t *testing.T) {
	_, err := BuildPrompt(schema.Cricket(), nil, " \t\n")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

// ============================================================================
// TRANSLATOR TESTS
// ============================================================================

func TestTranslate(t *testing.T) {
	var gotPrompt string
	var hadDeadline bool
	stub := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		_, hadDeadline = ctx.Deadline()
		return `{"querySpec": {"aggregation": "sum", "measure": "isSix"}}`, nil
	})

	tr := New(stub, schema.Cricket(), nil, time.Second)
	res, err := tr.Translate(context.Background(), "How many sixes?")
	require.NoError(t, err)

	assert.Contains(t, gotPrompt, "USER QUESTION: How many sixes?")
	assert.True(t, hadDeadline)
	assert.Equal(t, "isSix", res.QuerySpec.Measure)
}

func TestTranslateErrors(t *testing.T) {
	boom := errors.New("connection refused")
	tr := New(CompleterFunc(func(context.Context, string) (string, error) {
		return "", boom
	}), schema.Cricket(), nil, 0)

	_, err := tr.Translate(context.Background(), "top scorers")
	assert.ErrorIs(t, err, boom)

	_, err = tr.Translate(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	tr = New(CompleterFunc(func(context.Context, string) (string, error) {
		return "no idea", nil
	}), schema.Cricket(), nil, 0)
	_, err = tr.Translate(context.Background(), "top scorers")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

// ============================================================================
// COMPLETER TESTS
// ============================================================================

type stubChat struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (s *stubChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestGroqComplete(t *testing.T) {
	chat := &stubChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  SELECT 1  "}}},
	}}
	g := NewGroqWithClient(chat, Config{APIKey: "k", Temperature: 0.1})

	out, err := g.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", out)
	assert.Equal(t, GroqDefaultModel, chat.req.Model)
	assert.Equal(t, 800, chat.req.MaxTokens)
	assert.InDelta(t, 0.1, chat.req.Temperature, 1e-6)
	require.Len(t, chat.req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, chat.req.Messages[0].Role)

	chat.resp = openai.ChatCompletionResponse{}
	_, err = g.Complete(context.Background(), "prompt")
	assert.Error(t, err)

	chat.err = errors.New("429 rate limited")
	_, err = g.Complete(context.Background(), "prompt")
	assert.ErrorContains(t, err, "rate limited")
}

func TestGeminiComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "who scored most")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"aggregation\":\"sum\"}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini(Config{APIKey: "secret", Endpoint: srv.URL})
	out, err := g.Complete(context.Background(), "who scored most")
	require.NoError(t, err)
	assert.Equal(t, `{"aggregation":"sum"}`, out)
}

func TestGeminiHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"bad key"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGemini(Config{Endpoint: srv.URL}).Complete(context.Background(), "q")
	assert.ErrorContains(t, err, "403")
}

func TestGeminiTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := NewGemini(Config{APIKey: "SECRET-KEY-123", Endpoint: endpoint}).Complete(context.Background(), "q")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := "Kohli ने कितने रन बनाए"
	for n := 1; n < len(s); n++ {
		out := truncate(s, n)
		assert.True(t, utf8.ValidString(out), "cut at %d: %q", n, out)
		assert.LessOrEqual(t, len(out), n+len("..."))
	}
	assert.Equal(t, s, truncate(s, len(s)))
}

func TestOllamaComplete(t *testing.T) {
	o := &Ollama{model: "llama3", generate: func(model, system, prompt string) (string, bool, error) {
		assert.Equal(t, "llama3", model)
		return "\n{\"aggregation\":\"count\"}\n", true, nil
	}}
	out, err := o.Complete(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, `{"aggregation":"count"}`, out)

	o.generate = func(string, string, string) (string, bool, error) { return "partial", false, nil }
	_, err = o.Complete(context.Background(), "q")
	assert.Error(t, err)
}

func TestOllamaHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	o := &Ollama{model: "llama3", generate: func(string, string, string) (string, bool, error) {
		<-release
		return "late", true, nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := o.Complete(ctx, "q")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewOllamaDefaults(t *testing.T) {
	o, err := NewOllama(Config{})
	require.NoError(t, err)
	assert.Equal(t, OllamaDefaultModel, o.model)
}

func TestNewCompleter(t *testing.T) {
	c, err := NewCompleter("groq", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Groq{}, c)

	c, err = NewCompleter("gemini", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, c)

	c, err = NewCompleter("ollama", Config{Endpoint: "http://localhost:11434"})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, c)

	_, err = NewCompleter("claude", Config{})
	assert.Error(t, err)
}
