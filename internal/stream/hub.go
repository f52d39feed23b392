// Package stream serves scene frames to websocket clients and exposes the
// texture cache and metrics over HTTP.
//
// Run owns the scene driver: it advances it on a ticker and is the only
// goroutine that touches it. HTTP handlers read the latest encoded frame and
// send control actions to Run over a channel.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-transit/internal/logging"
	"github.com/litescript/ls-transit/internal/metrics"
	"github.com/litescript/ls-transit/internal/planet"
	"github.com/litescript/ls-transit/internal/scene"
	"github.com/litescript/ls-transit/internal/texture"
)

// Defaults for hub timing.
const (
	DefaultInterval     = 100 * time.Millisecond
	DefaultWriteTimeout = 5 * time.Second
	sendBuffer          = 8
)

// Hub fans frames out to connected clients.
type Hub struct {
	driver       *scene.Driver
	cache        *texture.Cache
	texOpts      texture.Options
	metrics      *metrics.Collector
	log          *logging.Logger
	interval     time.Duration
	writeTimeout time.Duration
	upgrader     websocket.Upgrader
	controls     chan func(*scene.Driver)

	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Option configures a Hub.
type Option func(*Hub)

// WithInterval sets the frame period.
func WithInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithWriteTimeout bounds each websocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithMetrics sets the collector served at /metrics and fed client counts.
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Hub) {
		h.metrics = c
	}
}

// WithLogger sets the hub's logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Hub) {
		h.log = l
	}
}

// WithTextureOptions sets the size and storm settings for served textures.
func WithTextureOptions(o texture.Options) Option {
	return func(h *Hub) {
		h.texOpts = o
	}
}

// NewHub creates a hub around driver. cache may be nil, in which case a
// private cache is used.
func NewHub(driver *scene.Driver, cache *texture.Cache, opts ...Option) *Hub {
	h := &Hub{
		driver:       driver,
		cache:        cache,
		texOpts:      texture.DefaultOptions(),
		log:          logging.Discard(),
		interval:     DefaultInterval,
		writeTimeout: DefaultWriteTimeout,
		controls:     make(chan func(*scene.Driver)),
		clients:      make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cache == nil {
		h.cache = texture.NewCache(h.metrics)
	}
	return h
}

// Run advances the driver every interval and broadcasts each frame until ctx
// is cancelled. All client connections are closed on return.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer h.closeAll()

	h.publish(h.driver.Frame())
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-h.controls:
			fn(h.driver)
			h.publish(h.driver.Frame())
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			h.publish(h.driver.Advance(dt))
		}
	}
}

func (h *Hub) publish(f scene.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.log.Error("encoding frame %d: %v", f.Seq, err)
		return
	}

	h.mu.Lock()
	h.latest = data
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()

	if len(slow) > 0 {
		h.log.Warn("dropped %d slow client(s)", len(slow))
		h.metrics.StreamClientsChanged(n)
	}
}

// Latest returns the most recently published frame as JSON, or nil before
// the first frame.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client %s connected (%d total)", c.conn.RemoteAddr(), n)
	h.metrics.StreamClientsChanged(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.log.Debug("client %s disconnected (%d total)", c.conn.RemoteAddr(), n)
		h.metrics.StreamClientsChanged(n)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	h.metrics.StreamClientsChanged(0)
}

// Handler returns the hub's HTTP routes.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /frames", h.serveFrames)
	mux.HandleFunc("GET /frame", h.serveLatest)
	mux.HandleFunc("POST /control/{action}", h.serveControl)
	mux.HandleFunc("GET /textures/{name}", h.serveTexture)
	mux.Handle("GET /metrics", h.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (h *Hub) serveFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and unregisters on disconnect.
func (h *Hub) readPump(c *client) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("write to %s: %v", c.conn.RemoteAddr(), err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
}

func (h *Hub) serveLatest(w http.ResponseWriter, r *http.Request) {
	data := h.Latest()
	if data == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

var controlActions = map[string]func(*scene.Driver){
	"pause":  (*scene.Driver).Pause,
	"play":   (*scene.Driver).Play,
	"toggle": func(d *scene.Driver) { d.TogglePause() },
	"reset":  (*scene.Driver).ResetOrbits,
	"mode":   func(d *scene.Driver) { d.ToggleMode() },
}

func (h *Hub) serveControl(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	fn, ok := controlActions[action]
	if !ok {
		http.Error(w, "unknown action "+strconv.Quote(action), http.StatusNotFound)
		return
	}
	select {
	case h.controls <- fn:
		w.WriteHeader(http.StatusNoContent)
	case <-r.Context().Done():
	case <-time.After(h.writeTimeout):
		http.Error(w, "scene not running", http.StatusServiceUnavailable)
	}
}

// serveTexture renders /textures/{type}.png. Query parameters: color
// (#rrggbb), radius (Earth radii, gates rings) and layer (surface, normal,
// clouds).
func (h *Hub) serveTexture(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("name"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	typ, err := planet.ParseType(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	opts := h.texOpts
	if s := q.Get("radius"); s != "" {
		radius, err := strconv.ParseFloat(s, 64)
		if err != nil || radius <= 0 {
			http.Error(w, "radius must be a positive number", http.StatusBadRequest)
			return
		}
		opts.Radius = radius
	}
	base := texture.ParseColor(q.Get("color"), typ)
	surf := h.cache.Get(typ, base, opts)

	w.Header().Set("Content-Type", "image/png")
	switch q.Get("layer") {
	case "", "surface":
		err = texture.EncodePNG(w, surf.Image())
	case "normal":
		err = texture.EncodePNG(w, texture.RGBImage(
			texture.NormalMap(surf, texture.DefaultNormalStrength), surf.Width, surf.Height))
	case "clouds":
		err = texture.EncodePNG(w, texture.AlphaImage(
			texture.Clouds(surf.Width, surf.Height, float64(typ)), surf.Width, surf.Height))
	default:
		w.Header().Del("Content-Type")
		http.Error(w, "unknown layer", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Warn("serving %s texture: %v", typ, err)
	}
}
