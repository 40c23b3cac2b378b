package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/pkg/adapters/httpapi"
	"github.com/parleyhq/parley/pkg/adapters/memory"
	"github.com/parleyhq/parley/pkg/domain"
)

type chapterMap map[string]*domain.Chapter

func (m chapterMap) Load(_ context.Context, id string) (*domain.Chapter, error) {
	ch, ok := m[id]
	if !ok {
		return nil, domain.ErrChapterNotFound
	}
	return ch, nil
}

func (m chapterMap) List(context.Context) ([]string, error) {
	return []string{"chapter_1", "chapter_2"}, nil
}

func testChapters() chapterMap {
	return chapterMap{
		"chapter_1": {
			Info: domain.ChapterInfo{ID: "chapter_1"},
			Variables: map[string]domain.VariableDef{
				"greeting": {Type: "string", Default: "Hello"},
			},
			Nodes: []domain.Node{
				{
					ID: "welcome", Kind: domain.KindAIMessage,
					Content: "{{greeting}}!", DelayMillis: 1200, NextNode: "ask_name",
				},
				{
					ID: "ask_name", Kind: domain.KindInput, InputKind: domain.InputText,
					Content: "Your name?", SetsVariable: "userName",
					Validation: &domain.Validation{Required: true},
					NextNode:   "pick",
				},
				{
					ID: "pick", Kind: domain.KindChoice, Content: "Employed?",
					SetsVariable: "employmentType",
					Options: []domain.ChoiceOption{
						{ID: "opt_yes", Label: "Yes, full time", Value: "employed", NextNode: "done"},
						{ID: "opt_no", Label: "No", Value: "unemployed", NextNode: "done"},
					},
				},
				{
					ID: "done", Kind: domain.KindAIMessage,
					Content: "Thanks, {{userName}}.", IsChapterEnd: true, NextChapter: "chapter_2",
				},
			},
		},
		"chapter_2": {
			Info: domain.ChapterInfo{ID: "chapter_2"},
			Nodes: []domain.Node{
				{ID: "next", Kind: domain.KindAIMessage, Content: "Chapter two, {{userName}}."},
			},
		},
	}
}

type env struct {
	srv *httptest.Server
}

func newEnv(t *testing.T, opts ...httpapi.Option) *env {
	t.Helper()
	handler := httpapi.NewHandler(testChapters(), memory.NewStore(), opts...)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &env{srv: srv}
}

type apiResponse struct {
	SessionID string          `json:"sessionId"`
	State     domain.Snapshot `json:"state"`
	Node      *domain.Node    `json:"node"`
	Error     string          `json:"error"`
}

func (e *env) do(t *testing.T, method, path string, body any) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (e *env) start(t *testing.T) apiResponse {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/sessions", map[string]string{"chapterId": "chapter_1"})
	require.Equal(t, http.StatusCreated, code)
	return resp
}

func TestCreateSession(t *testing.T) {
	e := newEnv(t)
	resp := e.start(t)

	assert.NotEmpty(t, resp.SessionID)
	assert.True(t, resp.State.WaitingForInput)
	require.NotNil(t, resp.Node)
	assert.Equal(t, "ask_name", resp.Node.ID)
	assert.Equal(t, domain.KindInput, resp.Node.Kind)

	require.Len(t, resp.State.Messages, 2)
	assert.Equal(t, "Hello!", resp.State.Messages[0].Content)
	assert.Equal(t, "welcome", resp.State.Messages[0].NodeID)
}

func TestCreateSessionUnknownChapter(t *testing.T) {
	e := newEnv(t)
	code, resp := e.do(t, http.MethodPost, "/sessions", map[string]string{"chapterId": "nope"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "chapter not found", resp.Error)
}

func TestSubmitInputFlow(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)
	base := "/sessions/" + created.SessionID

	code, resp := e.do(t, http.MethodPost, base+"/input", map[string]any{"value": "Sam"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Sam", resp.State.Variables["userName"])
	require.NotNil(t, resp.Node)
	assert.Equal(t, "pick", resp.Node.ID)

	code, resp = e.do(t, http.MethodPost, base+"/choice", map[string]any{"optionId": "opt_yes"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "employed", resp.State.Variables["employmentType"])
	assert.True(t, resp.State.Complete)
	assert.Equal(t, "chapter_2", resp.State.NextChapter)

	last := resp.State.Messages[len(resp.State.Messages)-1]
	assert.Equal(t, "Thanks, Sam.", last.Content)
}

func TestValidationFailureIs422(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)

	code, resp := e.do(t, http.MethodPost, "/sessions/"+created.SessionID+"/input", map[string]any{"value": "  "})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.NotEmpty(t, resp.Error)
}

func TestWrongActionIs409(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)

	// Waiting on a text input; a choice action is out of turn.
	code, resp := e.do(t, http.MethodPost, "/sessions/"+created.SessionID+"/choice", map[string]any{"optionId": "opt_yes"})
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, resp.Error)
}

func TestUnknownSessionIs404(t *testing.T) {
	e := newEnv(t)
	code, _ := e.do(t, http.MethodGet, "/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(t, http.MethodPost, "/sessions/ghost/input", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestContinueAcrossChapters(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)
	base := "/sessions/" + created.SessionID

	code, _ := e.do(t, http.MethodPost, base+"/input", map[string]any{"value": "Sam"})
	require.Equal(t, http.StatusOK, code)
	code, resp := e.do(t, http.MethodPost, base+"/choice", map[string]any{"optionId": "opt_no"})
	require.Equal(t, http.StatusOK, code)
	require.True(t, resp.State.Complete)

	code, resp = e.do(t, http.MethodPost, base+"/continue", nil)
	require.Equal(t, http.StatusOK, code)
	last := resp.State.Messages[len(resp.State.Messages)-1]
	assert.Equal(t, "Chapter two, Sam.", last.Content)

	// Chapter two ends without a follow-up reference.
	code, _ = e.do(t, http.MethodPost, base+"/continue", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestSessionPersistsAcrossRequests(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)
	base := "/sessions/" + created.SessionID

	code, _ := e.do(t, http.MethodPost, base+"/input", map[string]any{"value": "Sam"})
	require.Equal(t, http.StatusOK, code)

	code, resp := e.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Sam", resp.State.Variables["userName"])
	require.NotNil(t, resp.Node)
	assert.Equal(t, "pick", resp.Node.ID)
}

func TestDeleteSession(t *testing.T) {
	e := newEnv(t)
	created := e.start(t)
	base := "/sessions/" + created.SessionID

	code, _ := e.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = e.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListChapters(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.srv.URL + "/chapters")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{"chapter_1", "chapter_2"}, out["chapters"])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, httpapi.WithMetrics(metrics.New()))
	e.start(t)

	resp, err := http.Get(e.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "parley_sessions_started_total 1")
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
