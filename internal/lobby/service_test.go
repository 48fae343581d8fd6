package lobby

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"poker-room/internal/game"
	"poker-room/internal/store"
	"poker-room/internal/table"
)

type frozenTimer struct{}

func (frozenTimer) Stop() bool { return true }

// frozenClock never fires, so hands stay where the last command left them.
type frozenClock struct{}

func (frozenClock) AfterFunc(time.Duration, func()) table.Timer { return frozenTimer{} }

type recordingNotifier struct {
	mu     sync.Mutex
	tables []table.Update
	lobby  [][]game.LobbyInfo
}

func (n *recordingNotifier) TableUpdated(u table.Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tables = append(n.tables, u)
}

func (n *recordingNotifier) LobbyUpdated(tables []game.LobbyInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lobby = append(n.lobby, tables)
}

func (n *recordingNotifier) lastTable() table.Update {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tables[len(n.tables)-1]
}

func newTestService(t *testing.T) (*Service, *store.Memory, *recordingNotifier) {
	t.Helper()
	mem := store.NewMemory()
	svc := New(mem, Options{
		StartingBalance: 10000,
		Table:           table.Options{Clock: frozenClock{}, Seed: 1},
	})
	n := &recordingNotifier{}
	svc.AddNotifier(n)
	t.Cleanup(svc.Close)
	return svc, mem, n
}

func balance(t *testing.T, mem *store.Memory, address string) int64 {
	t.Helper()
	u, err := mem.GetUser(context.Background(), address)
	if err != nil {
		t.Fatalf("get %s: %v", address, err)
	}
	return u.Balance
}

func createTable(t *testing.T, svc *Service, address string, buyIn int64) game.Snapshot {
	t.Helper()
	snap, err := svc.CreateTable(context.Background(), CreateTableRequest{
		Address: address, Name: "main", Type: game.VariantHoldem, SmallBlind: 5, BigBlind: 10, BuyIn: buyIn,
	})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return snap
}

func TestJoinGameCreatesAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	u, err := svc.JoinGame(ctx, "alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if u.Balance != 10000 || u.Name != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := svc.JoinGame(ctx, ""); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestCreateTableValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	valid := CreateTableRequest{Address: "alice", Name: "t", Type: game.VariantOmaha, SmallBlind: 5, BigBlind: 10, BuyIn: 500}
	cases := []struct {
		name string
		mut  func(r *CreateTableRequest)
		want error
	}{
		{"no address", func(r *CreateTableRequest) { r.Address = "" }, ErrInvalidData},
		{"no name", func(r *CreateTableRequest) { r.Name = "" }, ErrInvalidData},
		{"unknown variant", func(r *CreateTableRequest) { r.Type = "stud" }, ErrInvalidData},
		{"zero blind", func(r *CreateTableRequest) { r.SmallBlind = 0 }, ErrInvalidData},
		{"big below small", func(r *CreateTableRequest) { r.BigBlind = 4 }, ErrInvalidData},
		{"buy in below ten big blinds", func(r *CreateTableRequest) { r.BuyIn = 99 }, ErrInsufficientChips},
		{"buy in above balance", func(r *CreateTableRequest) { r.BuyIn = 10001 }, ErrInsufficientChips},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mut(&req)
			if _, err := svc.CreateTable(context.Background(), req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(svc.LobbyInfo()) != 0 {
		t.Fatal("rejected requests must not create tables")
	}
}

func TestCreateTableSeatsCreator(t *testing.T) {
	svc, mem, n := newTestService(t)
	first := createTable(t, svc, "alice", 1000)
	second := createTable(t, svc, "bob", 200)

	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("expected sequential ids, got %d and %d", first.ID, second.ID)
	}
	if first.Players[0].Address != "alice" || first.Players[0].Stack != 1000 || first.Players[0].Name != "alice" {
		t.Fatalf("creator not seated at 0: %+v", first.Players[0])
	}
	if balance(t, mem, "alice") != 9000 || balance(t, mem, "bob") != 9800 {
		t.Fatal("buy-ins not debited")
	}
	lobby := svc.LobbyInfo()
	if len(lobby) != 2 || lobby[0].ID != 0 || lobby[1].ActivePlayersCnt != 1 {
		t.Fatalf("unexpected lobby %+v", lobby)
	}
	n.mu.Lock()
	published := len(n.lobby)
	n.mu.Unlock()
	if published == 0 {
		t.Fatal("expected lobby updates to be published")
	}
}

func TestTakeSeatChecks(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()
	createTable(t, svc, "alice", 1000)

	cases := []struct {
		name string
		req  SeatRequest
		want error
	}{
		{"unknown table", SeatRequest{Address: "bob", TableID: 9, Position: 1, BuyIn: 500}, ErrTableNotFound},
		{"bad position", SeatRequest{Address: "bob", TableID: 0, Position: game.SeatCount, BuyIn: 500}, ErrInvalidData},
		{"seat taken", SeatRequest{Address: "bob", TableID: 0, Position: 0, BuyIn: 500}, ErrSeatTaken},
		{"already seated", SeatRequest{Address: "alice", TableID: 0, Position: 3, BuyIn: 500}, ErrAlreadySeated},
		{"below min buy in", SeatRequest{Address: "bob", TableID: 0, Position: 1, BuyIn: 50}, ErrInsufficientChips},
		{"above balance", SeatRequest{Address: "bob", TableID: 0, Position: 1, BuyIn: 20000}, ErrInsufficientChips},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.TakeSeat(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := mem.GetUser(ctx, "bob"); err == nil && balance(t, mem, "bob") != 10000 {
		t.Fatal("failed seat attempts must not move chips")
	}

	snap, err := svc.TakeSeat(ctx, SeatRequest{Address: "bob", TableID: 0, Position: 3, BuyIn: 500})
	if err != nil {
		t.Fatalf("take seat: %v", err)
	}
	if snap.Status != game.PhasePreflop || len(snap.Players[3].Cards) != 2 || len(snap.Players[0].Cards) != 0 {
		t.Fatalf("expected a dealt hand seen from bob's seat, got %s", snap.Status)
	}
	if balance(t, mem, "bob") != 9500 {
		t.Fatalf("expected 9500, got %d", balance(t, mem, "bob"))
	}
}

func TestActionsResolveSeat(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	createTable(t, svc, "alice", 1000)

	if err := svc.Check(ctx, "mallory", 0); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated, got %v", err)
	}
	if err := svc.Raise(ctx, "alice", 5, 100); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if err := svc.Fold(ctx, "", 0); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if err := svc.Call(ctx, "alice", 0); !errors.Is(err, game.ErrNotAcceptingActions) {
		t.Fatalf("expected ErrNotAcceptingActions while waiting, got %v", err)
	}
}

func TestLeaveTableCollapsesEmptyTable(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()
	createTable(t, svc, "alice", 1000)

	if err := svc.LeaveTable(ctx, "alice", 0, 2); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated for the wrong position, got %v", err)
	}
	if err := svc.LeaveTable(ctx, "alice", 0, 0); err != nil {
		t.Fatalf("leave: %v", err)
	}
	svc.Flush()
	if len(svc.LobbyInfo()) != 0 {
		t.Fatal("empty table must leave the lobby")
	}
	if _, err := svc.TableInfo(ctx, "alice", 0); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if balance(t, mem, "alice") != 10000 {
		t.Fatalf("stack not cashed out: %d", balance(t, mem, "alice"))
	}
}

func TestDisconnectDuringHandReturnsChips(t *testing.T) {
	svc, mem, _ := newTestService(t)
	ctx := context.Background()
	createTable(t, svc, "alice", 1000)
	if _, err := svc.TakeSeat(ctx, SeatRequest{Address: "bob", TableID: 0, Position: 1, BuyIn: 400}); err != nil {
		t.Fatalf("take seat: %v", err)
	}

	svc.Disconnect(ctx, "alice")
	if len(svc.LobbyInfo()) != 1 {
		t.Fatal("table with a remaining player must stay listed")
	}
	svc.Disconnect(ctx, "bob")
	svc.Flush()
	if len(svc.LobbyInfo()) != 0 {
		t.Fatal("table must collapse once nobody is left")
	}
	if balance(t, mem, "alice") != 10000 || balance(t, mem, "bob") != 10000 {
		t.Fatalf("chips lost on collapse: alice=%d bob=%d", balance(t, mem, "alice"), balance(t, mem, "bob"))
	}
	// unknown addresses are a no-op
	svc.Disconnect(ctx, "carol")
}

func TestUpdatesCarryProfiles(t *testing.T) {
	svc, mem, n := newTestService(t)
	ctx := context.Background()
	if _, err := mem.EnsureUser(ctx, "alice", 10000); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := mem.UpdateUser(ctx, store.User{Address: "alice", Name: "Alice", AvatarURL: "https://img/a.png"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.JoinGame(ctx, "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	createTable(t, svc, "alice", 1000)

	u := n.lastTable()
	if u.Public.Players[0].Name != "Alice" || u.Public.Players[0].AvatarURL != "https://img/a.png" {
		t.Fatalf("public view not decorated: %+v", u.Public.Players[0])
	}
	if u.BySeat["alice"].Players[0].Name != "Alice" {
		t.Fatal("seat view not decorated")
	}
	if u.Lobby.ActivePlayersCnt != 1 {
		t.Fatalf("unexpected lobby info %+v", u.Lobby)
	}
}
