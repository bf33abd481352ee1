// Package bridge serves the local WebSocket endpoint the desktop UI talks
// to. Commands arrive as JSON text frames, run on a bounded worker pool, and
// complete with correlated command_result frames. The bridge can also push
// server-initiated events, which is how overlay surface control reaches the
// UI layer.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framesense/agent/internal/auth"
	"github.com/framesense/agent/internal/cache"
	"github.com/framesense/agent/internal/capture"
	"github.com/framesense/agent/internal/logging"
	"github.com/framesense/agent/internal/ocr"
	"github.com/framesense/agent/internal/overlay"
	"github.com/framesense/agent/internal/screen"
	"github.com/framesense/agent/internal/workerpool"
)

var log = logging.L("bridge")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// OCR payloads carry whole captures inline.
	maxMessageSize = 32 * 1024 * 1024
)

// ErrNoClient is returned by Push when no UI client is connected.
var ErrNoClient = errors.New("no bridge client connected")

// Command is one request from the UI.
type Command struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type commandResultMsg struct {
	Type      string `json:"type"`
	CommandID string `json:"commandId"`
	Result
}

type eventMsg struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Deps are the subsystems commands operate on.
type Deps struct {
	Cache   *cache.Cache
	Topo    *screen.Resolver
	Backend capture.Backend
	Auth    *auth.Client
	OCR     *ocr.Service
}

// Bridge owns the listening socket and at most one UI client connection. A
// newly connecting client replaces the previous one; the UI reconnects after
// restarts and only one window exists.
type Bridge struct {
	addr    string
	deps    Deps
	workers *workerpool.Pool

	overlayMu sync.RWMutex
	overlay   *overlay.Pool

	connMu sync.Mutex
	conn   *websocket.Conn
	send   chan []byte

	upgrader websocket.Upgrader
}

// New creates a bridge listening on addr once Serve is called.
func New(addr string, deps Deps, workers *workerpool.Pool) *Bridge {
	return &Bridge{
		addr:    addr,
		deps:    deps,
		workers: workers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			// The listener is loopback-only; the UI sets no Origin header
			// when connecting from the desktop shell.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetOverlay wires the overlay pool. Set after construction because the pool
// renders through this bridge's compositor.
func (b *Bridge) SetOverlay(p *overlay.Pool) {
	b.overlayMu.Lock()
	defer b.overlayMu.Unlock()
	b.overlay = p
}

func (b *Bridge) overlayPool() *overlay.Pool {
	b.overlayMu.RLock()
	defer b.overlayMu.RUnlock()
	return b.overlay
}

// Serve listens on the configured loopback address until ctx is done.
func (b *Bridge) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", b.handleWS)

	srv := &http.Server{
		Addr:              b.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("bridge listening", "addr", b.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge listen: %w", err)
	}
	return nil
}

func (b *Bridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	send := make(chan []byte, 256)
	b.attach(conn, send)
	log.Info("client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go b.writePump(conn, send, done)
	b.readLoop(conn)
	close(done)

	b.detach(conn)
	conn.Close()
	log.Info("client disconnected", "remote", r.RemoteAddr)
}

// attach makes conn the current client, displacing any previous one.
func (b *Bridge) attach(conn *websocket.Conn, send chan []byte) {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if b.conn != nil {
		log.Warn("replacing existing client connection")
		b.conn.Close()
	}
	b.conn = conn
	b.send = send
}

func (b *Bridge) detach(conn *websocket.Conn) {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if b.conn == conn {
		b.conn = nil
		b.send = nil
	}
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read error", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Warn("unparseable frame", "error", err)
			continue
		}
		if cmd.ID == "" || cmd.Type == "" {
			// Acks and other non-command chatter.
			continue
		}

		accepted := b.workers.Submit(func() {
			result := b.dispatch(cmd)
			b.sendResult(cmd.ID, result)
		})
		if !accepted {
			b.sendResult(cmd.ID, NewErrorResult(errors.New("command queue full")))
		}
	}
}

func (b *Bridge) writePump(conn *websocket.Conn, send chan []byte, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case message := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("write error", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) sendResult(commandID string, result Result) {
	msg := commandResultMsg{Type: "command_result", CommandID: commandID, Result: result}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("marshal result", "commandId", commandID, "error", err)
		return
	}
	if err := b.enqueue(data); err != nil {
		log.Warn("result dropped", "commandId", commandID, "error", err)
	}
}

// Push sends a server-initiated event frame to the connected client.
func (b *Bridge) Push(event string, data any) error {
	msg, err := json.Marshal(eventMsg{Type: "event", Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.enqueue(msg)
}

func (b *Bridge) enqueue(data []byte) error {
	b.connMu.Lock()
	send := b.send
	b.connMu.Unlock()

	if send == nil {
		return ErrNoClient
	}
	select {
	case send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}
