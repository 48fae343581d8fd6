package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"poker-room/internal/game"
	"poker-room/internal/lobby"
	"poker-room/internal/store"
	"poker-room/internal/table"
)

type frozenTimer struct{}

func (frozenTimer) Stop() bool { return true }

type frozenClock struct{}

func (frozenClock) AfterFunc(time.Duration, func()) table.Timer { return frozenTimer{} }

func newTestServer(t *testing.T) (*httptest.Server, *lobby.Service) {
	t.Helper()
	svc := lobby.New(store.NewMemory(), lobby.Options{
		StartingBalance: 10000,
		Table:           table.Options{Clock: frozenClock{}, Seed: 3},
	})
	srv := NewServer(svc)
	svc.AddNotifier(srv)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
		svc.Close()
	})
	return ts, svc
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteJSON(Envelope{Event: event, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", event, err)
	}
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// expect reads until an event named want arrives for which match holds.
func expect(t *testing.T, conn *websocket.Conn, want string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if msg.Event == want && (match == nil || match(msg.Data)) {
			return msg.Data
		}
	}
}

func expectError(t *testing.T, conn *websocket.Conn, code string) {
	t.Helper()
	raw := expect(t, conn, EventError, nil)
	var e ErrorData
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("decode error event: %v", err)
	}
	if e.Code != code {
		t.Fatalf("expected error %s, got %s", code, e.Code)
	}
}

func joinGame(t *testing.T, conn *websocket.Conn, address string) store.User {
	t.Helper()
	send(t, conn, ActionJoinGame, JoinGameData{Address: address})
	var u store.User
	if err := json.Unmarshal(expect(t, conn, EventUserInfo, nil), &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	expect(t, conn, EventLobbyInfo, nil)
	return u
}

func snapshotOf(t *testing.T, raw json.RawMessage) game.Snapshot {
	t.Helper()
	var s game.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return s
}

func TestConnectAndJoinGame(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)
	expect(t, conn, EventPing, nil)

	u := joinGame(t, conn, "alice")
	if u.Address != "alice" || u.Balance != 10000 {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestRequestsBeforeJoinAreRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, ActionCall, ActionData{ID: 0})
	expectError(t, conn, "not_joined")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectError(t, conn, "invalid_data")

	joinGame(t, conn, "alice")
	send(t, conn, "shuffleUp", map[string]int{"id": 0})
	expectError(t, conn, "unknown_event")
	send(t, conn, ActionTableInfo, TableInfoData{ID: 42})
	expectError(t, conn, "table_not_found")
}

func TestSeatedPlayersReceivePrivateViews(t *testing.T) {
	ts, _ := newTestServer(t)
	alice := dial(t, ts)
	bob := dial(t, ts)
	joinGame(t, alice, "alice")
	joinGame(t, bob, "bob")

	send(t, alice, ActionCreateTable, CreateTableData{
		Name: "main", Type: string(game.VariantHoldem), SmallBlind: 5, BigBlind: 10, BuyIn: 1000,
	})
	created := snapshotOf(t, expect(t, alice, EventTableInfo, nil))
	if created.Players[0].Address != "alice" {
		t.Fatalf("creator not seated: %+v", created.Players[0])
	}
	expect(t, alice, EventUserInfo, func(raw json.RawMessage) bool {
		var u store.User
		return json.Unmarshal(raw, &u) == nil && u.Balance == 9000
	})

	send(t, bob, ActionTakeSeat, TakeSeatData{ID: created.ID, Position: 0, BuyIn: 500})
	expectError(t, bob, "seat_taken")
	send(t, bob, ActionTakeSeat, TakeSeatData{ID: created.ID, Position: 2, BuyIn: 500})
	seated := snapshotOf(t, expect(t, bob, EventTableInfo, nil))
	if len(seated.Players[2].Cards) != 2 || len(seated.Players[0].Cards) != 0 {
		t.Fatal("bob must see only his own hole cards")
	}

	view := snapshotOf(t, expect(t, alice, EventTableInfo, func(raw json.RawMessage) bool {
		var s game.Snapshot
		return json.Unmarshal(raw, &s) == nil && s.Players[2].Address == "bob"
	}))
	if len(view.Players[0].Cards) != 2 || len(view.Players[2].Cards) != 0 {
		t.Fatal("alice must see only her own hole cards")
	}
	if view.Status != game.PhasePreflop {
		t.Fatalf("expected a dealt hand, got %s", view.Status)
	}
}

func TestSocketCloseDisconnects(t *testing.T) {
	ts, svc := newTestServer(t)
	conn := dial(t, ts)
	joinGame(t, conn, "alice")
	send(t, conn, ActionCreateTable, CreateTableData{
		Name: "solo", Type: string(game.VariantOmaha), SmallBlind: 1, BigBlind: 2, BuyIn: 100,
	})
	expect(t, conn, EventTableInfo, nil)
	if len(svc.LobbyInfo()) != 1 {
		t.Fatal("expected one listed table")
	}

	_ = conn.Close()
	deadline := time.Now().Add(3 * time.Second)
	for len(svc.LobbyInfo()) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("table not collapsed after the socket closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{lobby.ErrTableNotFound, "table_not_found"},
		{game.ErrNotYourTurn, "not_your_turn"},
		{errors.Join(errors.New("x"), game.ErrSeatTaken), "seat_taken"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tc := range cases {
		if got := mapError(tc.err); got != tc.want {
			t.Fatalf("mapError(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
