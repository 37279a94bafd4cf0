package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillforge-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestHubPublishReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), time.Minute)
	userID := uuid.New()
	otherID := uuid.New()

	a := hub.Subscribe(userID)
	b := hub.Subscribe(userID)
	other := hub.Subscribe(otherID)
	require.Equal(t, 2, hub.ConnectionCount(userID))
	require.Equal(t, 3, hub.TotalConnections())

	hub.Publish(userID, SSEEventLevelUp, map[string]any{"new_level": 3})

	for _, c := range []*SSEClient{a, b} {
		got := recvMessage(t, c.Outbound, time.Second)
		assert.Equal(t, SSEEventLevelUp, got.Event)
		assert.False(t, got.Timestamp.IsZero())
	}
	select {
	case msg := <-other.Outbound:
		t.Fatalf("unexpected message for other user: %s", msg.Event)
	default:
	}
}

func TestHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), time.Minute)
	userID := uuid.New()

	clientA := hub.Subscribe(userID)
	hub.Publish(userID, SSEEventProgressUpdate, map[string]any{"seq": 1})
	hub.Publish(userID, SSEEventAssessmentCompleted, map[string]any{"seq": 2})

	assert.Equal(t, SSEEventProgressUpdate, recvMessage(t, clientA.Outbound, time.Second).Event)
	assert.Equal(t, SSEEventAssessmentCompleted, recvMessage(t, clientA.Outbound, time.Second).Event)

	hub.Unsubscribe(clientA)
	hub.Unsubscribe(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		require.False(t, ok, "outbound should be closed after unsubscribe")
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for outbound close")
	}
	assert.Equal(t, 0, hub.ConnectionCount(userID))

	clientB := hub.Subscribe(userID)
	hub.Publish(userID, SSEEventStreakMilestone, map[string]any{"streak": 7})
	assert.Equal(t, SSEEventStreakMilestone, recvMessage(t, clientB.Outbound, time.Second).Event)
}

func TestHubPublishWithoutConnectionsIsNoop(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), time.Minute)
	hub.Publish(uuid.New(), SSEEventAchievementUnlocked, nil)
	hub.Broadcast(SSEMessage{Channel: "not-a-uuid", Event: SSEEventLevelUp})
}

func TestHubFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), time.Minute)
	userID := uuid.New()
	c := hub.Subscribe(userID)

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBufferSize*3; i++ {
			hub.Publish(userID, SSEEventProgressUpdate, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow client")
	}
	assert.Len(t, c.Outbound, defaultBufferSize)
}

func TestHubConcurrentSubscribeDuringPublish(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), time.Minute)
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c := hub.Subscribe(userID)
			hub.Unsubscribe(c)
		}()
		go func() {
			defer wg.Done()
			hub.Publish(userID, SSEEventProgressUpdate, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.ConnectionCount(userID))
}

func TestEncodeFrame(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	frame, err := EncodeFrame(SSEEventLevelUp, map[string]int{"new_level": 2}, ts)
	require.NoError(t, err)

	s := string(frame)
	require.True(t, strings.HasPrefix(s, "event: level_up\ndata: "))
	require.True(t, strings.HasSuffix(s, "\n\n"))

	var body struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	line := strings.TrimSuffix(strings.TrimPrefix(s, "event: level_up\ndata: "), "\n\n")
	require.NoError(t, json.Unmarshal([]byte(line), &body))
	assert.Equal(t, "level_up", body.Type)
	assert.Equal(t, 2, body.Data["new_level"])
}

func TestServeHTTPStreamsEventsAndHeartbeat(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t), 50*time.Millisecond)
	userID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := hub.Subscribe(userID)
		defer hub.Unsubscribe(c)
		hub.ServeHTTP(w, r, c)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	require.Equal(t, string(SSEEventConnected), nextEvent())
	hub.Publish(userID, SSEEventAchievementUnlocked, map[string]string{"id": "first_steps"})

	seen := map[string]bool{}
	for i := 0; i < 10 && !(seen[string(SSEEventAchievementUnlocked)] && seen[string(SSEEventHeartbeat)]); i++ {
		seen[nextEvent()] = true
	}
	assert.True(t, seen[string(SSEEventAchievementUnlocked)])
	assert.True(t, seen[string(SSEEventHeartbeat)])
}
