package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/wallfollower/internal/core/navigation"
	"chosenoffset.com/wallfollower/internal/simulation"
	"chosenoffset.com/wallfollower/internal/telemetry"
	"chosenoffset.com/wallfollower/internal/world/occupancy"
)

func newRunner(t *testing.T) *Runner {
	t.Helper()

	sim, err := simulation.New(simulation.DefaultConfig(), occupancy.Room(300, 300, 10))
	require.NoError(t, err)
	return NewRunner(sim, 100)
}

func newTestServer(t *testing.T, opts Options) (*Server, *Runner) {
	t.Helper()

	runner := newRunner(t)
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	return New(runner, hub, opts), runner
}

func doJSON(t *testing.T, s *Server, method, path string, out any) int {
	t.Helper()

	resp, err := s.App().Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	var health map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/health", &health))
	assert.Equal(t, "OK", health["status"])
	assert.Equal(t, "Init", health["mode"])
	assert.Equal(t, false, health["running"])
}

func TestStepSnapshotAndReset(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	var stepped simulation.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/step", &stepped))
	assert.Equal(t, 1, stepped.Tick)
	assert.Equal(t, navigation.ApproachWall, stepped.Mode)
	require.NotNil(t, stepped.Target)

	var snap simulation.Snapshot
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/snapshot", &snap))
	assert.Equal(t, stepped.Tick, snap.Tick)
	assert.Equal(t, len(stepped.Points), len(snap.Points))
	assert.Equal(t, stepped.Segments, snap.Segments)

	var reset map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/reset", &reset))
	assert.Equal(t, 0.0, reset["tick"])

	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/snapshot", &snap))
	assert.Equal(t, 0, snap.Tick)
	assert.Empty(t, snap.Points)
}

func TestStepRejectedWhileRunning(t *testing.T) {
	s, runner := newTestServer(t, Options{})
	runner.Start()
	defer runner.Stop()

	assert.Equal(t, http.StatusConflict, doJSON(t, s, http.MethodPost, "/api/step", nil))
}

func TestGeoJSONRoutes(t *testing.T) {
	s, runner := newTestServer(t, Options{})
	snap := runner.Step()

	for _, path := range []string{"/api/snapshot.geojson", "/api/walls.geojson"} {
		resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

		fc, err := geojson.UnmarshalFeatureCollection(body)
		require.NoError(t, err, path)
		if path == "/api/walls.geojson" {
			assert.Len(t, fc.Features, len(snap.Walls))
		} else {
			assert.NotEmpty(t, fc.Features)
		}
	}
}

func TestEnvironments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "room.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cave.png"), nil, 0o644))

	s, _ := newTestServer(t, Options{DataDir: dir})

	var out struct {
		Count        int `json:"count"`
		Environments []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"environments"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/environments", &out))
	require.Equal(t, 2, out.Count)
	assert.Equal(t, "cave", out.Environments[0].Name)
	assert.Equal(t, "image", out.Environments[0].Kind)

	s, _ = newTestServer(t, Options{DataDir: filepath.Join(dir, "missing")})
	assert.Equal(t, http.StatusInternalServerError, doJSON(t, s, http.MethodGet, "/api/environments", nil))
}

func TestRunTicks(t *testing.T) {
	store, err := telemetry.Open(filepath.Join(t.TempDir(), "t.db"))
	require.NoError(t, err)
	defer store.Close()

	run, err := store.StartRun("room", nil)
	require.NoError(t, err)

	s, runner := newTestServer(t, Options{Store: store, RunID: run.ID})
	rec := telemetry.NewRecorder(store, run.ID, 1, 0)
	runner.OnSnapshot(rec.Record)
	for i := 0; i < 3; i++ {
		runner.Step()
	}
	rec.Stop()

	var out struct {
		Count int              `json:"count"`
		Modes map[string]int64 `json:"modes"`
		Ticks []struct {
			Tick int `json:"tick"`
		} `json:"ticks"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/runs/"+run.ID.String()+"/ticks?limit=2", &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 3, out.Ticks[0].Tick)
	var total int64
	for _, n := range out.Modes {
		total += n
	}
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(3), out.Modes["ApproachWall"]+out.Modes["FollowWall"])

	var runs struct {
		Current string `json:"current"`
		Count   int    `json:"count"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/runs", &runs))
	assert.Equal(t, run.ID.String(), runs.Current)
	assert.Equal(t, 1, runs.Count)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, http.MethodGet, "/api/runs/not-a-uuid/ticks", nil))
}

func TestRunsDisabledWithoutStore(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, http.MethodGet, "/api/runs", nil))
}

func TestStreamRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	assert.Equal(t, http.StatusUpgradeRequired, doJSON(t, s, http.MethodGet, "/ws/snapshots", nil))
}

// fakeConn records the frames the hub writes
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	good, bad := &fakeConn{}, &fakeConn{fail: true}
	hub.Register(good)
	hub.Register(bad)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	runner := newRunner(t)
	runner.OnSnapshot(hub.BroadcastSnapshot)
	runner.Step()

	require.Eventually(t, func() bool { return good.frameCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.isClosed(), "failed clients are dropped")

	var msg Message
	require.NoError(t, json.Unmarshal(good.frames[0], &msg))
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, 1, msg.Data.Tick)

	hub.Unregister(good)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, good.isClosed())
}

func TestRunnerTicksInBackground(t *testing.T) {
	runner := newRunner(t)

	var mu sync.Mutex
	ticks := 0
	runner.OnSnapshot(func(simulation.Snapshot) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	runner.Start()
	assert.True(t, runner.Running())
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 3
	}, 5*time.Second, 10*time.Millisecond)
	runner.Stop()
	assert.False(t, runner.Running())

	mu.Lock()
	stopped := ticks
	mu.Unlock()
	assert.Equal(t, stopped, runner.Snapshot().Tick)
}

func TestAccuracy(t *testing.T) {
	s, runner := newTestServer(t, Options{Outline: occupancy.Room(300, 300, 10).Outline()})
	runner.Step()

	var out struct {
		Tick     int `json:"tick"`
		Accuracy struct {
			Points    int     `json:"points"`
			MeanError float64 `json:"mean_error"`
			Coverage  float64 `json:"coverage"`
		} `json:"accuracy"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/accuracy", &out))
	assert.Equal(t, 1, out.Tick)
	assert.Positive(t, out.Accuracy.Points)
	assert.Less(t, out.Accuracy.MeanError, 1.0, "hits sit just inside the walls")
	assert.Greater(t, out.Accuracy.Coverage, 0.9)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, s, http.MethodGet, "/api/accuracy?tolerance=-1", nil))
	assert.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/outline.geojson", nil))

	s, _ = newTestServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, doJSON(t, s, http.MethodGet, "/api/accuracy", nil))
}

func TestStepNotifiesEveryListener(t *testing.T) {
	runner := newRunner(t)

	var got []string
	runner.OnSnapshot(func(s simulation.Snapshot) { got = append(got, fmt.Sprintf("a%d", s.Tick)) })
	runner.OnSnapshot(func(s simulation.Snapshot) { got = append(got, fmt.Sprintf("b%d", s.Tick)) })

	runner.Step()
	runner.Step()
	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, got)
}
