package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zemon/zemon/config"
	"zemon/zemon/controllers"
	"zemon/zemon/services/assistant"
	"zemon/zemon/services/llm/llmtest"
	"zemon/zemon/services/search"
	"zemon/zemon/services/transcript"
	"zemon/zemon/sources/psql/dao"
	"zemon/zemon/sources/psql/psqltest"
	"zemon/zemon/types"
	httputils "zemon/zemon/utils/http"
	"zemon/zemon/utils/jsonutils"
	utypes "zemon/zemon/utils/types"
)

type env struct {
	srv  *httptest.Server
	fake *llmtest.Fake
}

func results(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	return []types.SearchResult{
		{Title: "One", Link: "https://one.example", Snippet: "first"},
		{Title: "Two", Link: "https://two.example", Snippet: "second"},
		{Title: "Three", Link: "https://three.example", Snippet: "third"},
	}, nil
}

func newEnv(t *testing.T, fake *llmtest.Fake, provider search.ProviderFunc) *env {
	t.Helper()
	cfg := config.Config{JWTSecret: "test-secret", AppEnv: "test", LLMModel: "m", SearchResultLimit: 3}
	db := psqltest.NewDatabase(t)
	users := dao.NewUserDAO(db.DB)
	persister := transcript.NewPersister(dao.NewChatDAO(db.DB))
	a := assistant.New(cfg, config.DefaultPrompts(), fake, provider, persister)

	health := controllers.NewHealthController()
	health.AddCheck("db", db.Ping)
	handler := NewRouter(cfg, Controllers{
		Auth:   controllers.NewAuthController(users, cfg),
		User:   controllers.NewUserController(users),
		Chat:   controllers.NewChatController(a),
		Chats:  controllers.NewChatsController(persister),
		Health: health,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &env{srv: srv, fake: fake}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.String()
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (e *env) signup(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/signup", "", utypes.SignupRequest{Name: "N", Email: email, Password: "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.do(t, http.MethodPost, "/auth/login", "", utypes.LoginRequest{Email: email, Password: "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	decodeBody(t, resp, &out)
	return out["token"]
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)

	token := e.signup(t, "ada@example.com")

	resp := e.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me types.Profile
	decodeBody(t, resp, &me)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.NotEmpty(t, me.ID)

	resp = e.do(t, http.MethodPost, "/auth/signup", "", utypes.SignupRequest{Name: "N", Email: "ada@example.com", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/auth/signup", "", utypes.SignupRequest{Email: "b@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/auth/login", "", utypes.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)

	resp := e.do(t, http.MethodPost, "/auth/signup", "", utypes.SignupRequest{
		Name: "N", Email: "long@example.com", Password: strings.Repeat("p", 80),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "password must be at most 72 bytes")

	resp = e.do(t, http.MethodPost, "/auth/login", "", utypes.LoginRequest{Email: "long@example.com", Password: strings.Repeat("p", 80)})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthRoute(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)
	resp := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestChatStream_PlainTurnIsPersisted(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "no", Chunks: []string{"2+2 ", "is ", "4"}}, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPost, "/chat", token, utypes.ChatRequest{Message: "What is 2+2?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chatID := resp.Header.Get("X-Chat-ID")
	require.NotEmpty(t, chatID)
	assert.Equal(t, "2+2 is 4", readBody(t, resp))

	resp = e.do(t, http.MethodGet, "/chats/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chat types.Chat
	decodeBody(t, resp, &chat)
	require.Len(t, chat.Messages, 2)
	assert.True(t, chat.Messages[1].Complete)
	assert.Equal(t, "2+2 is 4", chat.Messages[1].Content)
	assert.NotContains(t, chat.Messages[1].Content, assistant.ResearchHeader)
}

func TestChatStream_SearchAugmented(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "yes", Chunks: []string{"🤖 Based on my research: sunny"}}, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPost, "/chat", token, utypes.ChatRequest{Message: "weather today"})
	body := readBody(t, resp)
	assert.True(t, strings.HasPrefix(body, assistant.ResearchHeader))
	assert.Contains(t, body, "\nSources:\n[1] One\nLink: https://one.example\n")
	assert.True(t, strings.HasSuffix(body, "sunny"))
}

func TestChatStream_MidStreamErrorChunk(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "no", Chunks: []string{"partial"}, StreamErr: errors.New("reset")}, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPost, "/chat", token, utypes.ChatRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before, msg, ok := jsonutils.SplitErrorChunk(readBody(t, resp))
	require.True(t, ok)
	assert.Equal(t, "partial", before)
	assert.Equal(t, config.DefaultPrompts().ApologyGeneric, msg)
}

func TestChatStream_ThrottledBeforeFirstByte(t *testing.T) {
	fake := &llmtest.Fake{Reply: "no", OpenErr: &httputils.StatusError{Code: http.StatusTooManyRequests}}
	e := newEnv(t, fake, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPost, "/chat", token, utypes.ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	var out map[string]string
	decodeBody(t, resp, &out)
	assert.Equal(t, config.DefaultPrompts().ApologyThrottled, out["error"])
}

func TestChatStream_PreflightErrors(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "no", Chunks: []string{"x"}}, results)
	owner := e.signup(t, "owner@example.com")
	other := e.signup(t, "other@example.com")

	resp := e.do(t, http.MethodPost, "/chat", owner, utypes.ChatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/chat", owner, utypes.ChatRequest{Message: "hi", ChatID: "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/chat", owner, utypes.ChatRequest{Message: "hi"})
	chatID := resp.Header.Get("X-Chat-ID")
	readBody(t, resp)

	resp = e.do(t, http.MethodPost, "/chat", other, utypes.ChatRequest{Message: "hi", ChatID: chatID})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/chat", "", utypes.ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChats_ForeignUpdateIsForbidden(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)
	owner := e.signup(t, "owner@example.com")
	intruder := e.signup(t, "intruder@example.com")

	original := []types.Message{
		{Role: types.RoleUser, Content: "mine"},
		{Role: types.RoleAssistant, Content: "yours"},
	}
	resp := e.do(t, http.MethodPost, "/chats", owner, utypes.CreateChatRequest{Title: "t", Messages: original})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var chat types.Chat
	decodeBody(t, resp, &chat)

	resp = e.do(t, http.MethodPut, "/chats/"+chat.ID, intruder, utypes.UpdateChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "overwritten"}},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/chats/"+chat.ID, intruder, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/chats/"+chat.ID, owner, nil)
	var stored types.Chat
	decodeBody(t, resp, &stored)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "mine", stored.Messages[0].Content)
	assert.Equal(t, "yours", stored.Messages[1].Content)
}

func TestChats_UpdateWithoutMessagesKeepsTranscript(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)
	owner := e.signup(t, "owner@example.com")

	resp := e.do(t, http.MethodPost, "/chats", owner, utypes.CreateChatRequest{Title: "t", Messages: []types.Message{
		{Role: types.RoleUser, Content: "q"},
		{Role: types.RoleAssistant, Content: "a"},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var chat types.Chat
	decodeBody(t, resp, &chat)

	for _, body := range []any{map[string]string{"title": "x"}, map[string]any{}} {
		resp = e.do(t, http.MethodPut, "/chats/"+chat.ID, owner, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp = e.do(t, http.MethodGet, "/chats/"+chat.ID, owner, nil)
	var stored types.Chat
	decodeBody(t, resp, &stored)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "q", stored.Messages[0].Content)
	assert.Equal(t, chat.Revision, stored.Revision)
}

func TestChats_CRUD(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPut, "/chats/missing", token, utypes.UpdateChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "x"}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/chats", token, utypes.CreateChatRequest{Title: "first"})
	var first types.Chat
	decodeBody(t, resp, &first)
	time.Sleep(10 * time.Millisecond)
	resp = e.do(t, http.MethodPost, "/chats", token, utypes.CreateChatRequest{Title: "second"})
	var second types.Chat
	decodeBody(t, resp, &second)

	resp = e.do(t, http.MethodGet, "/chats", token, nil)
	var list []types.Chat
	decodeBody(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	stale := first.Revision + 3
	resp = e.do(t, http.MethodPut, "/chats/"+first.ID, token, utypes.UpdateChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "edit"}},
		Revision: &stale,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, http.MethodPut, "/chats/"+first.ID, token, utypes.UpdateChatRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "edit"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated types.Chat
	decodeBody(t, resp, &updated)
	assert.Equal(t, first.Revision+1, updated.Revision)
	assert.True(t, updated.Messages[0].Complete)

	resp = e.do(t, http.MethodDelete, "/chats/"+first.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, http.MethodDelete, "/chats/"+first.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchRoute(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "yes, here is code"}, results)
	token := e.signup(t, "a@example.com")

	resp := e.do(t, http.MethodPost, "/search", token, utypes.SearchRequest{Query: "sort in go", Type: "code"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out utypes.SearchResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "code", out.Type)
	assert.Equal(t, "yes, here is code", out.CodeSnippet)
	assert.Len(t, out.WebResults, 3)

	resp = e.do(t, http.MethodPost, "/search", token, utypes.SearchRequest{Query: "x", Type: "poem"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatWebSocket(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{Reply: "yes", Chunks: []string{"a", "b"}}, results)
	token := e.signup(t, "a@example.com")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, wsjson.Write(ctx, conn, utypes.WSChatRequest{
		Token:       token,
		ChatRequest: utypes.ChatRequest{Message: "news"},
	}))

	var seen []string
	var content string
	for {
		var ev utypes.WSEvent
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		seen = append(seen, ev.Type)
		if ev.Type == string(assistant.EventResponseChunk) {
			content += ev.Payload["content"].(string)
		}
		if ev.Type == string(assistant.EventResponseComplete) {
			break
		}
	}
	assert.Equal(t, []string{"chat_started", "search_started", "search_results"}, seen[:3])
	assert.True(t, strings.HasPrefix(content, assistant.ResearchHeader))
	assert.True(t, strings.HasSuffix(content, "ab"))

	// a second turn reuses the authenticated connection
	require.NoError(t, wsjson.Write(ctx, conn, utypes.WSChatRequest{ChatRequest: utypes.ChatRequest{Message: "  "}}))
	var ev utypes.WSEvent
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "error", ev.Type)
	assert.EqualValues(t, http.StatusBadRequest, ev.Payload["status"])
}

func TestChatWebSocket_BadToken(t *testing.T) {
	e := newEnv(t, &llmtest.Fake{}, results)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, utypes.WSChatRequest{Token: "nope", ChatRequest: utypes.ChatRequest{Message: "hi"}}))
	var ev utypes.WSEvent
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "invalid token", ev.Payload["message"])
}
