package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handler"
	"taskflow/internal/notify"
	"taskflow/internal/server"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Environment:     "test",
		JWTSecret:       "test-secret",
		JWTExpiryHours:  1,
		RequestTimeout:  5 * time.Second,
		NotifyQueueSize: 16,
	}
	s := server.New(cfg, log, db)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Dispatcher.Run(ctx)

	ts := httptest.NewServer(s.Engine)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		s.Dispatcher.Close()
	})
	return s, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server, username, orgID string) handler.AuthResponse {
	t.Helper()
	var res handler.AuthResponse
	code := call(t, ts, http.MethodPost, "/register", "", handler.RegisterRequest{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "password123",
		OrganizationID: &orgID,
	}, &res)
	require.Equal(t, http.StatusCreated, code)
	return res
}

func TestServer_Healthz(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]string
	code := call(t, ts, http.MethodGet, "/healthz", "", nil, &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ProtectedRoutesRequireToken(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/task/sortfilter", "/roles", "/dashboard/user-dashboard"} {
		code := call(t, ts, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

// Полный сценарий: организация, команда, задача и уведомление по websocket
func TestServer_TaskLifecycleNotifiesAssignee(t *testing.T) {
	s, ts := newTestServer(t)
	ctx := context.Background()

	_, err := s.Users.CreateSuperAdmin(ctx, "root", "root@example.com", "password123")
	require.NoError(t, err)
	var rootAuth handler.AuthResponse
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/login", "",
		handler.LoginRequest{Email: "root@example.com", Password: "password123"}, &rootAuth))

	var org handler.OrganizationResponse
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/organization/create", rootAuth.Token,
		handler.CreateOrganizationRequest{Name: "Acme"}, &org))

	// первый пользователь организации становится ее админом
	olga := register(t, ts, "olga", org.ID)
	assert.Equal(t, "admin", olga.User.Role)
	pavel := register(t, ts, "pavel", org.ID)
	u2 := register(t, ts, "u2", org.ID)
	assert.Equal(t, "member", u2.User.Role)

	var team handler.TeamResponse
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/team-create", olga.Token,
		handler.CreateTeamRequest{Name: "Platform"}, &team))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/team/"+team.ID+"/add-member", olga.Token,
		handler.AddMemberRequest{UserID: pavel.User.ID, Role: "manager"}, nil))
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/team/"+team.ID+"/add-member", olga.Token,
		handler.AddMemberRequest{UserID: u2.User.ID}, nil))

	// u2 подписывается на уведомления
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/notifications?token=" + u2.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	u2ID := uuid.MustParse(u2.User.ID)
	require.Eventually(t, func() bool { return s.Dispatcher.Connections(u2ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	// обычный участник не может создавать задачи
	assert.Equal(t, http.StatusForbidden, call(t, ts, http.MethodPost, "/task/"+team.ID+"/create-task", u2.Token,
		map[string]any{"title": "Nope"}, nil))

	var task handler.TaskResponse
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/task/"+team.ID+"/create-task", pavel.Token,
		map[string]any{"title": "Ship v1", "priority": "high", "assignee_id": u2.User.ID}, &task))
	assert.Equal(t, "not_started", task.Status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev notify.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, notify.EventTaskCreated, ev.Type)
	assert.Equal(t, task.ID, ev.TaskID.String())

	// повторное название в организации - конфликт
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/task/"+team.ID+"/create-task", pavel.Token,
		map[string]any{"title": "Ship v1"}, nil))

	var filtered []handler.TaskResponse
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/task/sortfilter?assignee=u2", olga.Token, nil, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, task.ID, filtered[0].ID)

	var msg handler.MessageResponse
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodDelete,
		"/task/"+team.ID+"/delete-task?task_id="+task.ID, pavel.Token, nil, &msg))
	assert.Equal(t, "Task deleted successfully", msg.Message)
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodDelete,
		"/task/"+team.ID+"/delete-task?task_id="+task.ID, pavel.Token, nil, nil))
}
