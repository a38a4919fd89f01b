package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mental-care-go/internal/agent"
	"mental-care-go/internal/model"
	"mental-care-go/internal/pipeline"
	"mental-care-go/internal/repository"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/tasks"
	"mental-care-go/pkg/token"
	"mental-care-go/pkg/tokenizer"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoResponder struct{ err error }

func (e *echoResponder) Chat(_ context.Context, _ string, _ []model.ChatMessage, userMessage string) (*agent.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &agent.Result{Reply: "echo: " + userMessage}, nil
}

type memObjects struct{}

func (memObjects) Put(context.Context, string, io.Reader, int64, string) error { return nil }
func (memObjects) Get(context.Context, string) (io.ReadCloser, error)         { return nil, errors.New("unused") }

type nopDispatcher struct{}

func (nopDispatcher) ProduceIngestTask(context.Context, tasks.IngestTask) error { return nil }

type testEnv struct {
	router    *gin.Engine
	users     repository.UserRepository
	responder *echoResponder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	stores := repository.NewLocalStores(configLocal(dir))
	userSvc := service.NewUserService(stores.Users, stores.Blacklist, token.NewJWTManager("secret", 24, 2))
	responder := &echoResponder{}
	mem := service.NewMemoryService(stores.Chats, tokenizer.NewWords(), 3000)
	scoreSvc := service.NewScoreService(stores.Scores)

	router := NewRouter(Services{
		Users:     userSvc,
		Chat:      service.NewChatService(mem, responder, nil),
		Scores:    scoreSvc,
		Dashboard: service.NewDashboardService(scoreSvc, time.UTC),
		Documents: service.NewDocumentService(pipeline.NewLoader(nil), memObjects{}, nopDispatcher{}),
	})
	return &testEnv{router: router, users: stores.Users, responder: responder}
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

func tokenOf(t *testing.T, resp map[string]interface{}) string {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has data: %v", resp)
	tok, ok := data["token"].(string)
	require.True(t, ok)
	return tok
}

func (e *testEnv) register(t *testing.T, username string) string {
	code, resp := e.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]interface{}{
		"username": username, "password": "Secret1", "confirmPassword": "Secret1", "email": username + "@x.vn",
	})
	require.Equal(t, http.StatusOK, code, "%v", resp)
	return tokenOf(t, resp)
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "alice")

	code, _ := env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]interface{}{
		"username": "alice", "password": "x", "confirmPassword": "x",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]interface{}{
		"username": "bob", "password": "x", "confirmPassword": "y",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp := env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]interface{}{"username": "alice", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, code)
	wrongMsg := resp["message"]
	_, resp = env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]interface{}{"username": "nobody", "password": "bad"})
	assert.Equal(t, wrongMsg, resp["message"])

	code, resp = env.do(t, http.MethodGet, "/api/v1/users/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.NotContains(t, data, "password")

	code, _ = env.do(t, http.MethodPost, "/api/v1/users/logout", tok, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodGet, "/api/v1/users/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestGuestChatFlow(t *testing.T) {
	env := newTestEnv(t)
	code, resp := env.do(t, http.MethodPost, "/api/v1/users/guest", "", nil)
	require.Equal(t, http.StatusOK, code)
	tok := tokenOf(t, resp)

	code, resp = env.do(t, http.MethodGet, "/api/v1/chat/history", tok, nil)
	require.Equal(t, http.StatusOK, code)
	history := resp["data"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, service.GreetingMessage, history[0].(map[string]interface{})["content"])

	code, resp = env.do(t, http.MethodPost, "/api/v1/chat/messages", tok, map[string]string{"message": "xin chào"})
	require.Equal(t, http.StatusOK, code)
	reply := resp["data"].(map[string]interface{})["reply"].(map[string]interface{})
	assert.Equal(t, "echo: xin chào", reply["content"])

	code, _ = env.do(t, http.MethodPost, "/api/v1/chat/messages", tok, map[string]string{"message": " "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGuestsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	guest := func() string {
		code, resp := env.do(t, http.MethodPost, "/api/v1/users/guest", "", nil)
		require.Equal(t, http.StatusOK, code)
		return tokenOf(t, resp)
	}
	first, second := guest(), guest()

	code, _ := env.do(t, http.MethodPost, "/api/v1/chat/messages", first, map[string]string{"message": "tôi mất ngủ"})
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPost, "/api/v1/scores", first, map[string]string{"score": "kém"})
	require.Equal(t, http.StatusOK, code)

	_, resp := env.do(t, http.MethodGet, "/api/v1/chat/history", second, nil)
	history := resp["data"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, service.GreetingMessage, history[0].(map[string]interface{})["content"])

	_, resp = env.do(t, http.MethodGet, "/api/v1/scores", second, nil)
	assert.Empty(t, resp["data"])
	_, resp = env.do(t, http.MethodGet, "/api/v1/scores", first, nil)
	assert.Len(t, resp["data"], 1)

	code, resp = env.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]interface{}{
		"username": model.GuestUsername, "password": "Secret1", "confirmPassword": "Secret1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Tên đăng nhập này đã được hệ thống sử dụng", resp["message"])
}

func TestChatFailureReturnsBadGateway(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "alice")
	env.responder.err = errors.New("timeout")

	code, resp := env.do(t, http.MethodPost, "/api/v1/chat/messages", tok, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, AIUnavailableMessage, resp["message"])

	_, resp = env.do(t, http.MethodGet, "/api/v1/chat/history", tok, nil)
	history := resp["data"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].(map[string]interface{})["content"])
}

func TestScoresAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "alice")

	code, resp := env.do(t, http.MethodPost, "/api/v1/scores", tok, map[string]string{"score": "Khá"})
	require.Equal(t, http.StatusOK, code)
	entry := resp["data"].(map[string]interface{})
	assert.Equal(t, "Khá", entry["Score"])
	assert.Equal(t, model.DefaultScoreContent, entry["Content"])

	code, resp = env.do(t, http.MethodGet, "/api/v1/scores", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["data"], 1)

	code, resp = env.do(t, http.MethodGet, "/api/v1/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, code)
	points := resp["data"].(map[string]interface{})["lastWeek"].([]interface{})
	require.Len(t, points, 1)
	assert.Equal(t, "yellow", points[0].(map[string]interface{})["color"])

	today := time.Now().UTC().Format("2006-01-02")
	code, resp = env.do(t, http.MethodGet, "/api/v1/dashboard/day?date="+today, tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["data"], 1)

	code, _ = env.do(t, http.MethodGet, "/api/v1/dashboard/day?date=yesterday", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodPost, "/api/v1/scores", tok, map[string]string{"score": ""})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", resp["data"].(map[string]interface{})["Score"])

	_, resp = env.do(t, http.MethodGet, "/api/v1/scores", tok, nil)
	assert.Len(t, resp["data"], 2)
}

func uploadRequest(t *testing.T, tok, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestAdminDocumentUpload(t *testing.T) {
	env := newTestEnv(t)
	userTok := env.register(t, "alice")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, userTok, "guide.md", "nội dung"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, env.users.Create(context.Background(), &model.User{Username: "root", Password: mustHash(t), Role: model.RoleAdmin}))
	_, resp := env.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "root", "password": "Secret1"})
	adminTok := tokenOf(t, resp)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, adminTok, "guide.md", "nội dung"))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, uploadRequest(t, adminTok, "tool.exe", "MZ"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebSocketChat(t *testing.T) {
	env := newTestEnv(t)
	tok := env.register(t, "alice")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/" + tok
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("chào bạn")))
	var reply, done map[string]interface{}
	require.NoError(t, conn.ReadJSON(&reply))
	require.NoError(t, conn.ReadJSON(&done))
	assert.Equal(t, "reply", reply["type"])
	assert.Equal(t, "echo: chào bạn", reply["content"])
	assert.Equal(t, "completion", done["type"])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/bogus", nil)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	code, _ := env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
}
