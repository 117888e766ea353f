// Package stream broadcasts downsampled trail frames to websocket clients.
//
// A client receives one JSON config message on join, then binary frames:
// an 8-byte little-endian tick followed by one byte of normalized
// intensity per frame pixel in row-major order. Clients may send JSON
// control messages ({"type": "pause"|"resume"|"reset"|"speed", "value": n}).
package stream

import (
	"encoding/binary"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/physarum/field"
)

// HeaderSize is the byte length of the tick prefix on each frame.
const HeaderSize = 8

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Config is sent to every client when it joins.
type Config struct {
	Type       string `json:"type"`
	Width      int    `json:"w"`
	Height     int    `json:"h"`
	Downsample int    `json:"downsample"`
}

// Command is a control message received from a client.
type Command struct {
	Type  string  `json:"type"`
	Value float64 `json:"value,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) sendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks connected clients and fans frames out to them.
type Hub struct {
	width, height int // source field size
	downsample    int
	frameW        int
	frameH        int

	mu      sync.Mutex
	clients map[*client]struct{}

	commands chan Command

	// Publish scratch
	norm  []float64
	frame []byte
}

// NewHub creates a hub for a width x height field, averaging
// downsample x downsample blocks into one frame pixel.
func NewHub(width, height, downsample int) *Hub {
	downsample = max(downsample, 1)
	fw := (width + downsample - 1) / downsample
	fh := (height + downsample - 1) / downsample
	return &Hub{
		width:      width,
		height:     height,
		downsample: downsample,
		frameW:     fw,
		frameH:     fh,
		clients:    make(map[*client]struct{}),
		commands:   make(chan Command, 32),
		norm:       make([]float64, width*height),
		frame:      make([]byte, HeaderSize+fw*fh),
	}
}

// FrameSize returns the frame dimensions in pixels.
func (h *Hub) FrameSize() (int, int) { return h.frameW, h.frameH }

// Commands returns control messages from clients. Messages are dropped
// when the buffer is full.
func (h *Hub) Commands() <-chan Command { return h.commands }

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	cfg := Config{Type: "config", Width: h.frameW, Height: h.frameH, Downsample: h.downsample}
	if err := c.sendJSON(cfg); err != nil {
		conn.Close()
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("stream client joined", "remote", r.RemoteAddr, "clients", n)

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		select {
		case h.commands <- cmd:
		default:
		}
	}

	h.remove(c)
	slog.Info("stream client left", "remote", r.RemoteAddr)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// Publish encodes f as a frame and sends it to every client. Clients
// whose write fails are dropped. Publish must not be called concurrently.
func (h *Hub) Publish(tick int64, f field.Reader) {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()
	if len(list) == 0 {
		return
	}

	frame := h.Encode(tick, f)
	for _, c := range list {
		if err := c.send(websocket.BinaryMessage, frame); err != nil {
			slog.Warn("stream client dropped", "error", err)
			h.remove(c)
		}
	}
}

// Encode builds the binary frame for f. The returned slice is reused by
// the next call.
func (h *Hub) Encode(tick int64, f field.Reader) []byte {
	binary.LittleEndian.PutUint64(h.frame, uint64(tick))
	if f.Width() != h.width || f.Height() != h.height {
		clear(h.frame[HeaderSize:])
		return h.frame
	}

	f.Normalize(h.norm)
	ds := h.downsample
	px := h.frame[HeaderSize:]
	for fy := 0; fy < h.frameH; fy++ {
		y0, y1 := fy*ds, min((fy+1)*ds, h.height)
		for fx := 0; fx < h.frameW; fx++ {
			x0, x1 := fx*ds, min((fx+1)*ds, h.width)
			var sum float64
			for y := y0; y < y1; y++ {
				row := h.norm[y*h.width : (y+1)*h.width]
				for x := x0; x < x1; x++ {
					sum += row[x]
				}
			}
			mean := sum / float64((x1-x0)*(y1-y0))
			px[fy*h.frameW+fx] = uint8(mean*255 + 0.5)
		}
	}
	return h.frame
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	list := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()
	for _, c := range list {
		h.remove(c)
	}
}
