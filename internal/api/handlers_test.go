package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokm/hr-assistant/internal/auth"
	"github.com/alokm/hr-assistant/internal/core"
	"github.com/alokm/hr-assistant/internal/history"
	"github.com/alokm/hr-assistant/internal/logging"
)

type fakeAgent struct {
	answer       string
	err          error
	gotQuery     string
	gotSessionID string
}

func (f *fakeAgent) Invoke(_ context.Context, query, sessionID string) (string, error) {
	f.gotQuery = query
	f.gotSessionID = sessionID
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeIndex struct{ count int }

func (f *fakeIndex) Count() int { return f.count }

func testHistories(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.New(filepath.Join(t.TempDir(), "history.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testServer(t *testing.T, agent ChatAgent, vectors VectorIndex, jwtSecret string) (*httptest.Server, *history.Store) {
	t.Helper()
	histories := testHistories(t)
	log := logging.New(nil, "silent")
	h := NewAPIHandler(agent, histories, vectors, jwtSecret, log)
	srv := httptest.NewServer(NewRouter(h, log))
	t.Cleanup(srv.Close)
	return srv, histories
}

func postChat(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/chat", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestChatReturnsAnswerAndSessionID(t *testing.T) {
	agent := &fakeAgent{answer: "You get 18 days of annual leave."}
	srv, _ := testServer(t, agent, &fakeIndex{count: 3}, "")

	resp := postChat(t, srv, `{"query": "How many leave days do I get?", "session_id": "abc-123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChatResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, "You get 18 days of annual leave.", body.Response)
	assert.Equal(t, "abc-123", body.SessionID)
	assert.Equal(t, "How many leave days do I get?", agent.gotQuery)
	assert.Equal(t, "abc-123", agent.gotSessionID)
}

func TestChatGeneratesSessionIDWhenAbsent(t *testing.T) {
	agent := &fakeAgent{answer: "ok"}
	srv, _ := testServer(t, agent, &fakeIndex{}, "")

	resp := postChat(t, srv, `{"query": "hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body ChatResponse
	decodeJSON(t, resp, &body)
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, body.SessionID, agent.gotSessionID)
}

func TestChatRejectsEmptyQuery(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "")

	resp := postChat(t, srv, `{"query": "   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatRejectsMalformedBody(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "")

	resp := postChat(t, srv, `{"query": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatUnavailableWithoutLLM(t *testing.T) {
	srv, _ := testServer(t, nil, nil, "")

	resp := postChat(t, srv, `{"query": "hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestChatHistoryFailureMapsTo503(t *testing.T) {
	agent := &fakeAgent{err: core.ErrHistoryUnavailable}
	srv, _ := testServer(t, agent, &fakeIndex{}, "")

	resp := postChat(t, srv, `{"query": "hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestChatOtherFailuresMapTo500(t *testing.T) {
	agent := &fakeAgent{err: errors.New("upstream exploded")}
	srv, _ := testServer(t, agent, &fakeIndex{}, "")

	resp := postChat(t, srv, `{"query": "hello"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthAllServicesUp(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{count: 12}, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Details["llm_service"].Status)
	assert.Equal(t, "healthy", body.Details["history_service"].Status)
	assert.Equal(t, "healthy", body.Details["vector_service"].Status)
}

func TestHealthDegradedWithoutLLM(t *testing.T) {
	srv, _ := testServer(t, nil, nil, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body healthResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Details["llm_service"].Status)
	assert.Equal(t, "unhealthy", body.Details["vector_service"].Status)
	assert.Equal(t, "healthy", body.Details["history_service"].Status)
}

func deleteHistory(t *testing.T, srv *httptest.Server, sessionID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/chat_history/"+sessionID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestClearHistoryUnknownSession(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "")

	resp := deleteHistory(t, srv, "never-seen")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClearHistoryActiveSession(t *testing.T) {
	srv, histories := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "")
	require.NoError(t, histories.Append("s1", history.Turn{Role: history.RoleUser, Content: "hi"}))

	resp := deleteHistory(t, srv, "s1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "Chat history for session s1 cleared.", body["message"])

	turns, err := histories.Load("s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	second := deleteHistory(t, srv, "s1")
	assert.Equal(t, http.StatusNotFound, second.StatusCode)
}

func TestBearerAuthRequiredWhenSecretSet(t *testing.T) {
	const secret = "test-secret"
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, secret)

	resp := postChat(t, srv, `{"query": "hello"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.GenerateToken(secret, "tester", time.Minute)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(`{"query": "hello"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestBearerAuthRejectsBadToken(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "test-secret")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(`{"query": "hello"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthStaysPublicWithAuthEnabled(t *testing.T) {
	srv, _ := testServer(t, &fakeAgent{answer: "ok"}, &fakeIndex{}, "test-secret")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
