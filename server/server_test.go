package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/iplstats/assistant"
	"github.com/spektr-org/iplstats/dataset"
	"github.com/spektr-org/iplstats/engine"
	"github.com/spektr-org/iplstats/schema"
	"github.com/spektr-org/iplstats/translator"
)

func newServer(t *testing.T, complete translator.CompleterFunc) http.Handler {
	t.Helper()
	view := engine.NewSliceView([]engine.Record{
		{Dimensions: map[string]string{"batter": "V Kohli"}, Measures: map[string]float64{"runs_batter": 6}},
		{Dimensions: map[string]string{"batter": "V Kohli"}, Measures: map[string]float64{"runs_batter": 4}},
		{Dimensions: map[string]string{"batter": "MS Dhoni"}, Measures: map[string]float64{"runs_batter": 1}},
	})
	sch := schema.Cricket()
	a := assistant.New(view, translator.New(complete, sch, nil, 0), sch, assistant.Options{})
	return New(NewHandler(a, dataset.Summary{Records: view.Len()}))
}

func completing(s string) translator.CompleterFunc {
	return func(context.Context, string) (string, error) { return s, nil }
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAsk(t *testing.T) {
	h := newServer(t, completing(`{"querySpec":{"groupBy":["batter"],"aggregation":"sum","measure":"runs_batter","sortBy":"value_desc"}}`))

	rec := post(h, `{"question":"Who scored the most runs?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Question string            `json:"question"`
		Query    *engine.QuerySpec `json:"query"`
		Answer   string            `json:"answer"`
		Result   *engine.Result    `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Who scored the most runs?", body.Question)
	assert.Equal(t, []string{"batter"}, body.Query.GroupBy)
	assert.Contains(t, body.Answer, "🥇 V Kohli")
	require.NotNil(t, body.Result.TableData)
	assert.Equal(t, "V Kohli", body.Result.TableData.Rows[0][0])
}

func TestAskStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		complete translator.CompleterFunc
		body     string
		status   int
		kind     string
	}{
		{"empty question", completing("{}"), `{"question":"  "}`, http.StatusBadRequest, ""},
		{"bad body", completing("{}"), `{"question":`, http.StatusBadRequest, ""},
		{"llm down", func(context.Context, string) (string, error) { return "", errors.New("timeout") },
			`{"question":"top scorers"}`, http.StatusBadGateway, "llm"},
		{"malformed", completing("no idea"), `{"question":"top scorers"}`, http.StatusUnprocessableEntity, "malformed"},
		{"unknown field", completing(`{"querySpec":{"groupBy":["umpire"],"aggregation":"count"}}`),
			`{"question":"balls per umpire"}`, http.StatusUnprocessableEntity, "query"},
		{"no rows", completing(`{"querySpec":{"aggregation":"count","filters":{"dimensions":{"batter":["Nobody"]}}}}`),
			`{"question":"balls faced by Nobody"}`, http.StatusOK, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newServer(t, tt.complete), tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.kind != "" {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.kind, body["kind"])
			}
		})
	}
}

func TestReadEndpoints(t *testing.T) {
	h := newServer(t, completing("{}"))

	for path, want := range map[string]string{
		"/health":      `"records":3`,
		"/suggestions": "Top wicket takers in IPL 2024",
		"/schema":      `"name":"IPL ball-by-ball"`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}
}
