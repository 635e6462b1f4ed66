package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/internal/realtime"
	"github.com/noah-isme/demand-desk-api/internal/service"
)

type flowFixture struct {
	server *httptest.Server
	store  *memStore
	user   string
	other  string
	admin  string
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	tokens := service.NewTokenService(service.TokenConfig{Secret: "flow-secret"}, nil, nil)
	lifecycle := service.NewLifecycleService(store, nil, nil)
	hub := realtime.NewHub(nil, nil)
	router := realtime.NewRouter(hub, nil, nil)
	demands := service.NewDemandService(store, store, lifecycle, nil, nil, service.WithNotifier(router))
	live := realtime.NewServer(hub, realtime.ServerConfig{}, nil)

	engine := gin.New()
	RegisterRoutes(engine.Group("/api"), Handlers{
		Demand:   NewDemandHandler(demands),
		Admin:    NewAdminDemandHandler(demands),
		Realtime: NewRealtimeHandler(live, tokens, nil),
	}, tokens)
	ts := httptest.NewServer(engine)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})

	issue := func(id int64, role models.UserRole) string {
		token, err := tokens.Issue(id, role)
		require.NoError(t, err)
		return token
	}
	return &flowFixture{
		server: ts,
		store:  store,
		user:   issue(42, models.RoleUser),
		other:  issue(7, models.RoleUser),
		admin:  issue(1, models.RoleOperator),
	}
}

func (f *flowFixture) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	payload := map[string]interface{}{}
	_ = json.NewDecoder(res.Body).Decode(&payload)
	return res.StatusCode, payload
}

func (f *flowFixture) subscribe(t *testing.T, token string, join map[string]interface{}) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(join))
	ack := readFrame(t, conn, time.Second)
	require.Equal(t, realtime.EventJoined, ack.Event)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) realtime.Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg realtime.Message
	assert.Error(t, conn.ReadJSON(&msg), "unexpected frame %s", msg.Event)
}

func TestDemandLifecycleScenario(t *testing.T) {
	f := newFlowFixture(t)
	owner := f.subscribe(t, f.user, map[string]interface{}{"event": realtime.EventJoinUserRoom, "data": 42})
	bystander := f.subscribe(t, f.other, map[string]interface{}{"event": realtime.EventJoinUserRoom, "data": "7"})
	desk := f.subscribe(t, f.admin, map[string]interface{}{"event": realtime.EventJoinOperatorRoom})

	status, body := f.do(t, http.MethodPost, "/api/demands", f.user, map[string]interface{}{
		"gradeId": 1, "subjectId": 2, "locationAddress": "Elm St", "hourlyPrice": 120,
	})
	require.Equal(t, http.StatusCreated, status, body)
	demand := body["demand"].(map[string]interface{})
	assert.Equal(t, "PENDING", demand["status"])
	id := int64(demand["id"].(float64))

	announced := readFrame(t, desk, time.Second)
	assert.Equal(t, realtime.EventNewDemand, announced.Event)

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/demands/%d/status", id), f.admin, map[string]interface{}{"status": "MATCHED"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])

	update := readFrame(t, owner, time.Second)
	assert.Equal(t, realtime.EventStatusUpdate, update.Event)
	assert.JSONEq(t, fmt.Sprintf(`{"demandId":%d,"oldStatus":"PENDING","newStatus":"MATCHED"}`, id), string(update.Data))
	expectSilence(t, owner)
	expectSilence(t, bystander)

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/demands/%d", id), f.user, nil)
	require.Equal(t, http.StatusOK, status)
	demand = body["demand"].(map[string]interface{})
	assert.Equal(t, "MATCHED", demand["status"])
	logs := demand["statusLogs"].([]interface{})
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]interface{})
	assert.Equal(t, "PENDING", entry["oldStatus"])
	assert.Equal(t, "MATCHED", entry["newStatus"])
	assert.Equal(t, float64(1), entry["operatorId"])

	status, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/admin/demands/%d/history", id), f.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 1)
}

func TestUnknownDemandTransition(t *testing.T) {
	f := newFlowFixture(t)
	owner := f.subscribe(t, f.user, map[string]interface{}{"event": realtime.EventJoinUserRoom, "data": 42})

	status, body := f.do(t, http.MethodPut, "/api/demands/999999/status", f.admin, map[string]interface{}{"status": "MATCHED"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Zero(t, f.store.logCount())
	expectSilence(t, owner)
}

func TestBogusStatusIsRejected(t *testing.T) {
	f := newFlowFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/demands", f.user, map[string]interface{}{
		"gradeId": 1, "subjectId": 2, "locationAddress": "Elm St", "hourlyPrice": 120,
	})
	require.Equal(t, http.StatusCreated, status)
	id := int64(body["demand"].(map[string]interface{})["id"].(float64))

	status, body = f.do(t, http.MethodPut, fmt.Sprintf("/api/demands/%d/status", id), f.admin, map[string]interface{}{"status": "BOGUS"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", body["error"].(map[string]interface{})["code"])
	assert.Zero(t, f.store.logCount())

	stored, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.DemandStatusPending, stored.Status)
}

func TestRolesAndOwnershipAreEnforced(t *testing.T) {
	f := newFlowFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/demands", f.user, map[string]interface{}{
		"gradeId": 1, "subjectId": 2, "locationAddress": "Elm St", "hourlyPrice": 120,
	})
	require.Equal(t, http.StatusCreated, status)
	id := int64(body["demand"].(map[string]interface{})["id"].(float64))

	status, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/demands/%d/status", id), f.user, map[string]interface{}{"status": "CLOSED"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/demands/%d", id), f.other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodGet, "/api/admin/demands", f.user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = f.do(t, http.MethodGet, "/api/demands/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestListingEndpoints(t *testing.T) {
	f := newFlowFixture(t)
	for i := 0; i < 3; i++ {
		status, _ := f.do(t, http.MethodPost, "/api/demands", f.user, map[string]interface{}{
			"gradeId": 1, "subjectId": 2, "locationAddress": fmt.Sprintf("Elm St %d", i), "hourlyPrice": 100 + i,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := f.do(t, http.MethodGet, "/api/demands/my?page=1&limit=2", f.user, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["demands"].([]interface{}), 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["totalPages"])

	status, body = f.do(t, http.MethodGet, "/api/admin/demands?status=pending", f.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 3)

	status, body = f.do(t, http.MethodGet, "/api/admin/demands?status=LOST", f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", body["error"].(map[string]interface{})["code"])
}

func TestSubmitValidation(t *testing.T) {
	f := newFlowFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/demands", f.user, map[string]interface{}{
		"gradeId": 1, "subjectId": 2, "locationAddress": "  ", "hourlyPrice": 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]interface{})["code"])
}

func TestLiveChannelRejectsBadToken(t *testing.T) {
	f := newFlowFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/ws?token=garbage"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}
