package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parking-spot-keeper/backend/internal/api/handlers"
	"github.com/parking-spot-keeper/backend/internal/api/middleware"
	"github.com/parking-spot-keeper/backend/internal/reminder"
	"github.com/parking-spot-keeper/backend/internal/storage"
	"github.com/parking-spot-keeper/backend/internal/storage/models"
	"github.com/parking-spot-keeper/backend/internal/websocket"
)

type testEnv struct {
	router    http.Handler
	locations *storage.MemoryLocationStore
	scheduler *reminder.Scheduler
	hub       *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Minute)
	}

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	locations := storage.NewMemoryLocationStore(clock)
	scheduler := reminder.NewScheduler(nil, time.UTC)
	t.Cleanup(scheduler.Stop)

	router := NewRouter(Services{
		Locations: locations,
		Health:    locations,
		Reminders: reminder.NewService(storage.NewMemoryReminderStore(), scheduler),
		Hub:       hub,
		Info:      handlers.StatusInfo{Version: "test", Storage: "memory"},
	})

	return &testEnv{router: router, locations: locations, scheduler: scheduler, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFloors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/floors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	floors := decode[[]models.FloorConfig](t, rec)
	require.Len(t, floors, 6)
	assert.Equal(t, models.FloorConfig{Floor: 3, MinSpot: 70, MaxSpot: 98, SpotCount: 29}, floors[0])
	assert.Equal(t, 8, floors[5].Floor)
}

func TestParkingFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/parking/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = env.do(t, http.MethodPost, "/api/parking", `{"floor":4,"spot":120}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[models.ParkingLocation](t, rec)
	assert.True(t, first.Active)
	assert.Equal(t, 4, first.Floor)
	assert.Equal(t, 120, first.Spot)
	assert.Nil(t, first.UserID)

	rec = env.do(t, http.MethodPost, "/api/parking", `{"floor":5,"spot":200,"userId":7}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[models.ParkingLocation](t, rec)
	require.NotNil(t, second.UserID)
	assert.EqualValues(t, 7, *second.UserID)

	current := decode[models.ParkingLocation](t, env.do(t, http.MethodGet, "/api/parking/current", ""))
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, 200, current.Spot)

	history := decode[[]models.ParkingLocation](t, env.do(t, http.MethodGet, "/api/parking/history", ""))
	require.Len(t, history, 2)
	assert.Equal(t, 200, history[0].Spot)
	assert.True(t, history[0].Active)
	assert.Equal(t, 120, history[1].Spot)
	assert.False(t, history[1].Active)
	assert.True(t, history[0].Timestamp.After(history[1].Timestamp))

	rec = env.do(t, http.MethodPost, "/api/parking/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handlers.SuccessResponse{Success: true}, decode[handlers.SuccessResponse](t, rec))

	rec = env.do(t, http.MethodGet, "/api/parking/current", "")
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	rec = env.do(t, http.MethodPost, "/api/parking/clear", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, middleware.ErrNotFound, decode[middleware.ErrorResponse](t, rec).Error)
}

func TestClearWithoutActiveLocation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/parking/clear", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decode[middleware.ErrorResponse](t, rec)
	assert.Equal(t, middleware.ErrNotFound, resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestSaveParkingValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		body    string
		status  int
		code    string
		message string
	}{
		{
			name:    "missing floor and non-numeric spot",
			body:    `{"spot":"abc"}`,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Required at "floor"; Expected number at "spot"`,
		},
		{
			name:    "empty body",
			body:    ``,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Required at "floor"; Required at "spot"`,
		},
		{
			name:    "null floor",
			body:    `{"floor":null,"spot":4}`,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Expected number, received null at "floor"`,
		},
		{
			name:    "null spot",
			body:    `{"floor":4,"spot":null}`,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Expected number, received null at "spot"`,
		},
		{
			name:    "fractional spot",
			body:    `{"floor":4,"spot":12.5}`,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Expected integer at "spot"`,
		},
		{
			name:    "string user id",
			body:    `{"floor":4,"spot":120,"userId":"me"}`,
			status:  http.StatusBadRequest,
			code:    middleware.ErrValidation,
			message: `Validation error: Expected number at "userId"`,
		},
		{
			name:   "not JSON",
			body:   `floor=4`,
			status: http.StatusBadRequest,
			code:   middleware.ErrBadRequest,
		},
		{
			name:   "JSON array",
			body:   `[4,120]`,
			status: http.StatusBadRequest,
			code:   middleware.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/parking", tt.body)
			require.Equal(t, tt.status, rec.Code)

			resp := decode[middleware.ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
				assert.NotNil(t, resp.Details)
			}
		})
	}

	history, err := env.locations.GetHistory(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history, "rejected requests store nothing")
}

func TestSaveParkingNullKeepsCurrent(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/parking", `{"floor":4,"spot":120}`).Code)

	rec := env.do(t, http.MethodPost, "/api/parking", `{"floor":null,"spot":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	current := decode[models.ParkingLocation](t, env.do(t, http.MethodGet, "/api/parking/current", ""))
	assert.Equal(t, 4, current.Floor)
	assert.Equal(t, 120, current.Spot)
	assert.True(t, current.Active)
}

func TestSaveParkingAcceptsNullUserID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/parking", `{"floor":3,"spot":70,"userId":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decode[models.ParkingLocation](t, rec).UserID)
}

func TestParkingHistoryLimit(t *testing.T) {
	env := newTestEnv(t)

	for spot := 100; spot < 112; spot++ {
		_, err := env.locations.Create(context.Background(), 4, spot, nil)
		require.NoError(t, err)
	}

	history := decode[[]models.ParkingLocation](t, env.do(t, http.MethodGet, "/api/parking/history", ""))
	require.Len(t, history, models.DefaultHistoryLimit)
	assert.Equal(t, 111, history[0].Spot)

	history = decode[[]models.ParkingLocation](t, env.do(t, http.MethodGet, "/api/parking/history?limit=3", ""))
	require.Len(t, history, 3)
	assert.Equal(t, []int{111, 110, 109}, []int{history[0].Spot, history[1].Spot, history[2].Spot})

	for _, bad := range []string{"0", "101", "ten"} {
		rec := env.do(t, http.MethodGet, "/api/parking/history?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestEmptyHistoryIsArray(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/parking/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestReminderFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/reminder", "")
	require.Equal(t, http.StatusOK, rec.Code)
	defaults := decode[models.ReminderSettings](t, rec)
	assert.True(t, defaults.Enabled)
	assert.Equal(t, "08:00", defaults.Time)
	assert.JSONEq(t, `{"enabled":true,"time":"08:00","userId":null}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/reminder", `{"enabled":true,"time":"09:30"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[models.ReminderSettings](t, rec)
	assert.Equal(t, models.ReminderSettingsID, saved.ID)
	assert.Equal(t, "09:30", saved.Time)
	assert.JSONEq(t, `{"id":1,"enabled":true,"time":"09:30","userId":null}`, rec.Body.String())

	at, armed := env.scheduler.ArmedTime()
	require.True(t, armed)
	assert.Equal(t, reminder.TimeOfDay{Hour: 9, Minute: 30}, at)

	next := env.scheduler.NextRun()
	require.NotNil(t, next)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 30, next.Minute())

	got := decode[models.ReminderSettings](t, env.do(t, http.MethodGet, "/api/reminder", ""))
	assert.Equal(t, saved, got)

	// Partial update keeps the stored time.
	rec = env.do(t, http.MethodPost, "/api/reminder", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	disabled := decode[models.ReminderSettings](t, rec)
	assert.False(t, disabled.Enabled)
	assert.Equal(t, "09:30", disabled.Time)
	assert.Equal(t, models.ReminderSettingsID, disabled.ID)
	assert.False(t, env.scheduler.Armed())
}

func TestReminderRejectsMalformedTime(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/reminder", `{"time":"07:15"}`).Code)

	for _, body := range []string{`{"time":"25:99"}`, `{"time":"9:30"}`, `{"time":""}`, `{"time":930}`, `{"enabled":"yes"}`} {
		rec := env.do(t, http.MethodPost, "/api/reminder", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, middleware.ErrValidation, decode[middleware.ErrorResponse](t, rec).Error, body)
	}

	at, armed := env.scheduler.ArmedTime()
	require.True(t, armed)
	assert.Equal(t, "07:15", at.String())

	got := decode[models.ReminderSettings](t, env.do(t, http.MethodGet, "/api/reminder", ""))
	assert.Equal(t, "07:15", got.Time)
}

func TestNotificationTest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/notification/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"Parking Reminder","body":"Don't forget where you parked!"}`, rec.Body.String())
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("database is closed") }

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handlers.HealthResponse{Status: "healthy", DBConnected: true}, decode[handlers.HealthResponse](t, rec))

	rec = httptest.NewRecorder()
	handlers.HealthCheck(downPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[handlers.HealthResponse](t, rec).Status)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/parking", `{"floor":6,"spot":250}`).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/reminder", `{"time":"18:45"}`).Code)

	status := decode[handlers.StatusResponse](t, env.do(t, http.MethodGet, "/api/status", ""))
	assert.Equal(t, "test", status.Version)
	assert.True(t, status.ReminderArmed)
	assert.Equal(t, "18:45", status.ReminderTime)
	assert.NotNil(t, status.NextReminderAt)
	require.NotNil(t, status.ActiveLocation)
	assert.Equal(t, 250, status.ActiveLocation.Spot)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/floors", "")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/floors", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/parking", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>parking</h1>"), 0o644))

	scheduler := reminder.NewScheduler(nil, time.UTC)
	locations := storage.NewMemoryLocationStore(nil)
	router := NewRouter(Services{
		Locations: locations,
		Health:    locations,
		Reminders: reminder.NewService(storage.NewMemoryReminderStore(), scheduler),
		Hub:       websocket.NewHub(),
		StaticDir: dir,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "parking")
}

func TestWebSocketEvents(t *testing.T) {
	env := newTestEnv(t)

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	read := func() websocket.MessageType {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type websocket.MessageType `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg.Type
	}

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, websocket.TypePong, read())

	resp, err := http.Post(server.URL+"/api/parking", "application/json", bytes.NewBufferString(`{"floor":7,"spot":300}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, websocket.TypeParkingSaved, read())

	resp, err = http.Post(server.URL+"/api/parking/clear", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, websocket.TypeParkingCleared, read())

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Equal(t, websocket.TypeError, read())
}
