package stream

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-transit/internal/metrics"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/state"
	"github.com/litescript/ls-transit/internal/texture"
)

func newTestHub(t *testing.T) (*Hub, *metrics.Collector, *httptest.Server) {
	t.Helper()
	col, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	session := state.NewSession(state.DefaultConfig())
	driver := scene.NewDriver(session, scene.DefaultConfig(), scene.WithObserver(col))
	hub := NewHub(driver, nil,
		WithInterval(10*time.Millisecond),
		WithMetrics(col),
		WithTextureOptions(texture.Options{Width: 32, Height: 16}),
	)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, col, srv
}

func startHub(t *testing.T, hub *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/frames"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) scene.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f scene.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFramesBroadcast(t *testing.T) {
	hub, col, srv := newTestHub(t)
	startHub(t, hub)

	conn := dial(t, srv)
	waitFor(t, func() bool { return testutil.ToFloat64(col.StreamClients) == 1 })
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", hub.Clients())
	}

	first := readFrame(t, conn)
	if len(first.Bodies) != 3 {
		t.Fatalf("bodies = %d, want 3 didactic planets", len(first.Bodies))
	}
	second := readFrame(t, conn)
	if second.Seq <= first.Seq {
		t.Errorf("seq did not advance: %d then %d", first.Seq, second.Seq)
	}
	if testutil.ToFloat64(col.Frames) == 0 {
		t.Error("frames counter not incremented")
	}
}

func TestClientDisconnect(t *testing.T) {
	hub, col, srv := newTestHub(t)
	startHub(t, hub)

	conn := dial(t, srv)
	waitFor(t, func() bool { return hub.Clients() == 1 })
	conn.Close()
	waitFor(t, func() bool { return testutil.ToFloat64(col.StreamClients) == 0 })
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d, want 0", hub.Clients())
	}
}

func TestControlPause(t *testing.T) {
	hub, _, srv := newTestHub(t)
	startHub(t, hub)

	resp, err := http.Post(srv.URL+"/control/pause", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	conn := dial(t, srv)
	// The frame queued on connect may predate the pause.
	f := readFrame(t, conn)
	for i := 0; !f.Paused && i < 10; i++ {
		f = readFrame(t, conn)
	}
	if !f.Paused {
		t.Fatal("frames after pause should report paused")
	}
	elapsed := f.Elapsed
	f = readFrame(t, conn)
	if f.Elapsed != elapsed {
		t.Errorf("elapsed moved while paused: %v -> %v", elapsed, f.Elapsed)
	}

	resp, err = http.Post(srv.URL+"/control/warp", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want 404", resp.StatusCode)
	}
}

func TestLatestFrame(t *testing.T) {
	hub, _, srv := newTestHub(t)

	resp, err := http.Get(srv.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before Run = %d, want 503", resp.StatusCode)
	}

	startHub(t, hub)
	waitFor(t, func() bool { return hub.Latest() != nil })

	resp, err = http.Get(srv.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var f scene.Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.Mode != "simplified" {
		t.Errorf("mode = %q", f.Mode)
	}
}

func TestTextures(t *testing.T) {
	_, col, srv := newTestHub(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/textures/rocky.png", http.StatusOK},
		{"/textures/gas.png?radius=11&color=%23c88b3a", http.StatusOK},
		{"/textures/ice.png?layer=normal", http.StatusOK},
		{"/textures/super-earth.png?layer=clouds", http.StatusOK},
		{"/textures/lava.png", http.StatusNotFound},
		{"/textures/rocky", http.StatusNotFound},
		{"/textures/rocky.png?radius=-1", http.StatusBadRequest},
		{"/textures/rocky.png?layer=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			img, err := png.Decode(resp.Body)
			if err != nil {
				t.Fatalf("decode png: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
				t.Errorf("bounds = %v, want 32x16", b)
			}
		})
	}

	// Same rocky surface again is a cache hit.
	resp, err := http.Get(srv.URL + "/textures/rocky.png")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := testutil.ToFloat64(col.TextureLookups.WithLabelValues("hit")); got < 1 {
		t.Errorf("cache hits = %v, want >= 1", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, srv := newTestHub(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}
