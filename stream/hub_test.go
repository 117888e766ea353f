package stream

import (
	"encoding/binary"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/physarum/field"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
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

func TestEncodeDownsamples(t *testing.T) {
	h := NewHub(5, 4, 2)
	if w, hh := h.FrameSize(); w != 3 || hh != 2 {
		t.Fatalf("frame size = %dx%d, want 3x2", w, hh)
	}

	f := field.New(5, 4, field.Toroidal)
	f.Set(0, 0, 4)
	f.Set(1, 0, 4)
	f.Set(0, 1, 4)
	f.Set(1, 1, 4)
	f.Set(4, 3, 2)

	frame := h.Encode(42, f)
	if len(frame) != HeaderSize+6 {
		t.Fatalf("frame length = %d", len(frame))
	}
	if tick := binary.LittleEndian.Uint64(frame); tick != 42 {
		t.Errorf("tick = %d, want 42", tick)
	}
	px := frame[HeaderSize:]
	// Top-left block is fully saturated; the edge block (4..5, 2..4)
	// holds one half-intensity cell out of two.
	want := []byte{255, 0, 0, 0, 0, 64}
	for i := range want {
		if px[i] != want[i] {
			t.Errorf("pixel %d = %d, want %d (frame %v)", i, px[i], want[i], px)
		}
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(8, 8, 2)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)

	var cfg Config
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatalf("read config: %v", err)
	}
	if cfg.Type != "config" || cfg.Width != 4 || cfg.Height != 4 || cfg.Downsample != 2 {
		t.Errorf("config = %+v", cfg)
	}
	waitFor(t, func() bool { return h.Len() == 1 })

	f := field.New(8, 8, field.Toroidal)
	f.Set(3, 3, 1)
	h.Publish(7, f)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if mt != websocket.BinaryMessage || len(data) != HeaderSize+16 {
		t.Fatalf("frame type %d length %d", mt, len(data))
	}
	if binary.LittleEndian.Uint64(data) != 7 {
		t.Errorf("tick = %d", binary.LittleEndian.Uint64(data))
	}
	// Cell (3,3) lands in frame pixel (1,1) at a quarter of full intensity.
	if got := data[HeaderSize+5]; got != 64 {
		t.Errorf("pixel (1,1) = %d, want 64", got)
	}
}

func TestHubCommandsAndLeave(t *testing.T) {
	h := NewHub(4, 4, 1)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	var cfg Config
	if err := conn.ReadJSON(&cfg); err != nil {
		t.Fatal(err)
	}

	if err := conn.WriteJSON(Command{Type: "speed", Value: 4}); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-h.Commands():
		if cmd.Type != "speed" || cmd.Value != 4 {
			t.Errorf("command = %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no command received")
	}

	conn.Close()
	waitFor(t, func() bool { return h.Len() == 0 })
}
