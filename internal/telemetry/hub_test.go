package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/internal/core/sensor"
	"github.com/zeusync/flightcore/internal/core/world"
	"gonum.org/v1/gonum/spatial/r3"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/contacts" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 5*time.Millisecond)
}

func sampleFrame() Frame {
	pos := Vec{0, 30000, 5000}
	return Frame{
		Scenario: "intercept",
		Time:     12.5,
		Packs: []PackFrame{
			{Body: "blue1", Side: "blue", Contacts: []ContactFrame{{Body: "red1", Pos: &pos, Firsthand: true, Sensors: []string{"radar"}}}},
			{Body: "blue2", Side: "blue"},
		},
	}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(log.NewNop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	all := dial(t, srv, "")
	one := dial(t, srv, "?pack=blue2")
	waitClients(t, hub, 2)

	hub.Broadcast(sampleFrame())

	var got Frame
	require.NoError(t, all.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, all.ReadJSON(&got))
	assert.Equal(t, sampleFrame(), got)

	var filtered Frame
	require.NoError(t, one.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, one.ReadJSON(&filtered))
	require.Len(t, filtered.Packs, 1)
	assert.Equal(t, "blue2", filtered.Packs[0].Body)
	assert.Equal(t, 12.5, filtered.Time)
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub(log.NewNop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	waitClients(t, hub, 1)
	require.NoError(t, conn.Close())
	waitClients(t, hub, 0)

	hub.Broadcast(sampleFrame())
	assert.Zero(t, hub.Clients())
}

func TestHubClientLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxClients = 1
	hub := NewHub(log.NewNop(), WithConfig(cfg))
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	dial(t, srv, "")
	waitClients(t, hub, 1)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/contacts"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	hub.Close()
	assert.Zero(t, hub.Clients())
}

func TestSnapshotPack(t *testing.T) {
	w := world.New()
	blue := world.NewCraft(world.CraftConfig{Name: "blue1", Family: "plane", Side: "blue", Vel: r3.Vec{Y: 200}})
	red := world.NewCraft(world.CraftConfig{Name: "red1", Family: "plane", Side: "red", Pos: r3.Vec{Y: 9000}})
	require.NoError(t, w.Add(blue))
	require.NoError(t, w.Add(red))
	red.SetTarget(blue)

	pack := sensor.NewPack(blue, w, sensor.PackConfig{ScanPeriod: 1, MaxTracked: 1})
	require.NoError(t, pack.Add(sensor.NewMagicTargeted(w.Env(blue), sensor.NewFamilySet("plane")), "warning"))
	for range 8 {
		w.Advance(0.25)
		require.True(t, pack.Tick(0.25))
	}

	frame := SnapshotPack(pack)
	assert.Equal(t, "blue1", frame.Body)
	assert.Equal(t, "blue", frame.Side)
	assert.Equal(t, Vec{0, 200, 0}, frame.Vel)
	require.Len(t, frame.Contacts, 1)
	c := frame.Contacts[0]
	assert.Equal(t, "red1", c.Body)
	assert.Equal(t, "plane", c.Family)
	assert.Nil(t, c.Pos)
	assert.Equal(t, []string{"warning"}, c.Sensors)
	assert.False(t, c.Tracked, "bearing-only contacts are not trackable")
}
