package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/domain"
	"github.com/callsight/callsight/internal/engine"
	"github.com/callsight/callsight/internal/logging"
)

type mockEngine struct {
	processFunc  func(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error)
	finalizeFunc func(ctx context.Context, callID, clientEmail string) (*domain.AnalyticsRecord, error)
}

func (m *mockEngine) ProcessWindow(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error) {
	if m.processFunc != nil {
		return m.processFunc(ctx, req)
	}
	return &engine.WindowResult{}, nil
}

func (m *mockEngine) FinalizeCall(ctx context.Context, callID, clientEmail string) (*domain.AnalyticsRecord, error) {
	if m.finalizeFunc != nil {
		return m.finalizeFunc(ctx, callID, clientEmail)
	}
	return &domain.AnalyticsRecord{CallID: callID, ClientEmail: clientEmail}, nil
}

func newTestServer(eng Processor, mutate ...func(*config.Config)) *httptest.Server {
	cfg := config.Defaults()
	for _, m := range mutate {
		m(&cfg)
	}
	s := New(cfg, eng, logging.New(nil, "silent"))
	return httptest.NewServer(s.routes())
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&mockEngine{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProcessWindow(t *testing.T) {
	eng := &mockEngine{
		processFunc: func(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error) {
			assert.Equal(t, "c1", req.CallID)
			assert.Equal(t, 0, req.WindowNum)
			return &engine.WindowResult{
				AiTips: []domain.AiTip{{Tag: "Info", Content: "tip"}},
				ActivityFeed: []domain.ToolCallRecord{
					{Name: domain.ToolGetContactByEmail, Status: domain.ToolStatusSuccess},
				},
			}, nil
		},
	}
	ts := newTestServer(eng)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/windows",
		`{"callId":"c1","windowNum":0,"turns":[{"speaker":"customer","transcript":"hi"}]}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result engine.WindowResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.AiTips, 1)
	require.Len(t, result.ActivityFeed, 1)
}

func TestProcessWindowErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"input error", &engine.InputError{Reason: "turns must be a non-empty list"}, http.StatusBadRequest},
		{"upstream error", &engine.UpstreamError{Op: "analyzing window", Err: errors.New("overloaded")}, http.StatusBadGateway},
		{"store error", &engine.StoreError{Op: "reading call windows", Err: errors.New("disk full")}, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := &mockEngine{
				processFunc: func(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error) {
					return nil, tc.err
				},
			}
			ts := newTestServer(eng)
			defer ts.Close()

			resp := postJSON(t, ts.URL+"/v1/windows", `{"callId":"c1","turns":[{"speaker":"customer","transcript":"hi"}]}`)
			defer resp.Body.Close()
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestProcessWindowBadJSON(t *testing.T) {
	ts := newTestServer(&mockEngine{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/windows", `{not json`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFinalizeCall(t *testing.T) {
	eng := &mockEngine{
		finalizeFunc: func(ctx context.Context, callID, clientEmail string) (*domain.AnalyticsRecord, error) {
			return &domain.AnalyticsRecord{
				CallID:      callID,
				ClientEmail: clientEmail,
				Sentiment:   domain.Sentiment{Score: 80, Label: "Positive"},
			}, nil
		},
	}
	ts := newTestServer(eng)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/calls/finalize", `{"callId":"c1","clientEmail":"amy@example.com"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec domain.AnalyticsRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "c1", rec.CallID)
	assert.Equal(t, "Positive", rec.Sentiment.Label)
}

func TestAuthToken(t *testing.T) {
	ts := newTestServer(&mockEngine{}, func(cfg *config.Config) {
		cfg.Gateway.Auth.Token = "secret"
	})
	defer ts.Close()

	// Health stays public.
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Engine endpoints require the token.
	resp = postJSON(t, ts.URL+"/v1/windows", `{}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/calls/finalize",
		strings.NewReader(`{"callId":"c1","clientEmail":"a@b.com"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A wrong token is rejected.
	req, err = http.NewRequest(http.MethodPost, ts.URL+"/v1/windows", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSafeEqual_Match(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
}

func TestSafeEqual_Mismatch(t *testing.T) {
	assert.False(t, safeEqual("secret", "wrong"))
}

func TestSafeEqual_DifferentLengths(t *testing.T) {
	assert.False(t, safeEqual("short", "longer-string"))
}

func TestSafeEqual_BothEmpty(t *testing.T) {
	assert.True(t, safeEqual("", ""))
}

func TestSafeEqual_OneEmpty(t *testing.T) {
	assert.False(t, safeEqual("secret", ""))
	assert.False(t, safeEqual("", "secret"))
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(&mockEngine{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(&mockEngine{}, func(cfg *config.Config) {
		cfg.Gateway.AllowedOrigins = []string{"https://dash.example.com"}
	})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/windows", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestFeedBroadcast(t *testing.T) {
	ts := newTestServer(&mockEngine{
		processFunc: func(ctx context.Context, req engine.WindowRequest) (*engine.WindowResult, error) {
			return &engine.WindowResult{
				AiTips: []domain.AiTip{{Tag: "Urgent", Content: "Escalate."}},
			}, nil
		},
	})
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a beat to register the connection.
	time.Sleep(50 * time.Millisecond)

	resp := postJSON(t, ts.URL+"/v1/windows",
		`{"callId":"c1","windowNum":2,"turns":[{"speaker":"customer","transcript":"hi"}]}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type    string                 `json:"type"`
		Payload WindowProcessedPayload `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, EventWindowProcessed, event.Type)
	assert.Equal(t, "c1", event.Payload.CallID)
	assert.Equal(t, 2, event.Payload.WindowNum)
	require.Len(t, event.Payload.AiTips, 1)
}

// newFeedFixture starts a bare upgrade server wired to a fresh Feed and dials
// one client into it.
func newFeedFixture(t *testing.T) (*Feed, *websocket.Conn) {
	t.Helper()
	feed := NewFeed(logging.New(nil, "silent"))
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		feed.Add(conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Give the server a beat to register the connection.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, feed.Count())
	return feed, conn
}

// Broadcasts run concurrently when overlapping requests finish at the same
// time; writes to a single connection must stay serialized.
func TestFeedConcurrentBroadcast(t *testing.T) {
	feed, conn := newFeedFixture(t)

	const writers, perWriter = 8, 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				feed.Broadcast(Event{
					Type:    EventCallFinalized,
					Payload: CallFinalizedPayload{CallID: "c1"},
				})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, feed.Count())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < writers*perWriter; i++ {
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, EventCallFinalized, event.Type)
	}
}

func TestFeedCloseAllDuringBroadcast(t *testing.T) {
	feed, _ := newFeedFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				feed.Broadcast(Event{Type: EventWindowProcessed})
			}
		}()
	}
	feed.CloseAll()
	wg.Wait()

	assert.Equal(t, 0, feed.Count())
}

func TestResolveBindAddr(t *testing.T) {
	cases := []struct {
		cfg  config.GatewayConfig
		want string
	}{
		{config.GatewayConfig{Bind: "loopback", Port: 18790}, "127.0.0.1:18790"},
		{config.GatewayConfig{Bind: "lan", Port: 18790}, "0.0.0.0:18790"},
		{config.GatewayConfig{Bind: "custom", CustomBindHost: "10.0.0.5", Port: 9000}, "10.0.0.5:9000"},
		{config.GatewayConfig{Bind: "custom", Port: 9000}, "0.0.0.0:9000"},
		{config.GatewayConfig{Bind: "", Port: 18790}, "127.0.0.1:18790"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, resolveBindAddr(tc.cfg))
	}
}
