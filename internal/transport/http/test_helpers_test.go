package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tagrelay/internal/config"
	"github.com/vovakirdan/tagrelay/internal/core"
	"github.com/vovakirdan/tagrelay/internal/proto"
	"github.com/vovakirdan/tagrelay/internal/store/sqlite"
)

type testEnv struct {
	ts  *httptest.Server
	db  *sql.DB
	hub *core.Hub
}

// startTestServer wires a full relay over an in-memory SQLite store.
func startTestServer(t *testing.T, opts core.PipelineOptions) *testEnv {
	t.Helper()

	var db *sql.DB
	st, err := sqlite.NewWithSetup(":memory:", func(d *sql.DB) error {
		db = d
		_, err := d.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	disabledLogger := zerolog.Nop()
	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(registry, &disabledLogger)
	resolver := core.NewTagResolver(st, opts.PersistTimeout, &disabledLogger)
	pipeline := core.NewPipeline(st, resolver, dispatcher, opts, &disabledLogger)
	hub := core.NewHub(registry, pipeline, &disabledLogger)

	cfg := config.Default()
	cfg.Addr = ":0"
	server := NewServer(hub, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, db: db, hub: hub}
}

func (e *testEnv) dial(ctx context.Context, t *testing.T, room string) *websocket.Conn {
	t.Helper()

	before := e.hub.Registry().Count(room)
	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws?roomId=" + room
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial room %s: %v", room, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	// The handler joins the room after the upgrade; wait until it is visible.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.hub.Registry().Count(room) > before {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session for room %s never joined", room)
	return nil
}

func sendMessage(ctx context.Context, t *testing.T, conn *websocket.Conn, data proto.SendMessageData) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
		t.Fatalf("send: %v", err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readOutbound(ctx context.Context, t *testing.T, conn *websocket.Conn) rawOutbound {
	t.Helper()

	var out rawOutbound
	if err := wsjson.Read(ctx, conn, &out); err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	return out
}

func readMessageEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.EventMessage {
	t.Helper()

	out := readOutbound(ctx, t, conn)
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventReceiveMessage {
		t.Fatalf("unexpected outbound: %+v", out)
	}
	var ev proto.EventMessage
	if err := json.Unmarshal(out.Data, &ev); err != nil {
		t.Fatalf("unmarshal event data: %v", err)
	}
	return ev
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()

	var n int
	if err := e.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count query %q: %v", query, err)
	}
	return n
}
