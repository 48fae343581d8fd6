package game

import "testing"

func TestSnapshotRedactsOtherHoleCards(t *testing.T) {
	e := newTestEngine(t, VariantHoldem, 1000, 1000, 1000)
	step, _ := e.NewHand()
	runUntilDecision(t, e, step)
	s := e.State

	view := s.SnapshotFor("p0")
	if len(view.Players) != SeatCount {
		t.Fatalf("expected %d seat views, got %d", SeatCount, len(view.Players))
	}
	if len(view.Players[0].Cards) != 2 {
		t.Fatal("viewer must see their own cards")
	}
	if len(view.Players[1].Cards) != 0 || len(view.Players[2].Cards) != 0 {
		t.Fatal("other hole cards must be hidden before showdown")
	}
	for _, seat := range s.SnapshotFor("").Players {
		if len(seat.Cards) != 0 {
			t.Fatal("public view must hide every hole card")
		}
	}

	cur := view.Players[s.CurrentPlayerID]
	if cur.Status != DisplayActive || cur.RawStatus != string(StatusNone) {
		t.Fatalf("expected acting seat to display ACTIVE, got %s/%s", cur.Status, cur.RawStatus)
	}
	if view.HandID == "" || view.Round != "preflop" || view.Status != PhaseIdle {
		t.Fatalf("unexpected snapshot header %+v", view)
	}
	if view.Players[4].Address != "" || view.Players[4].Position != 4 {
		t.Fatalf("empty seat rendered as %+v", view.Players[4])
	}

	s.Round = RoundOver
	for i, seat := range s.SnapshotFor("").Players[:3] {
		if len(seat.Cards) != 2 {
			t.Fatalf("seat %d hidden at showdown", i)
		}
	}
}

func TestDisplayStatus(t *testing.T) {
	s := NewTableState(1, "t", VariantHoldem, 5, 10)
	_ = s.Seats.Sit(0, &Player{Address: "a", Status: StatusRaise})
	_ = s.Seats.Sit(1, &Player{Address: "b", Status: StatusFold})
	_ = s.Seats.Sit(2, &Player{Address: "c", Status: StatusCall})
	s.CurrentPlayerID = 0
	s.Status = PhaseRaise

	view := s.SnapshotFor("")
	if view.Players[0].Status != DisplayBet {
		t.Fatalf("expected BET for the raiser, got %s", view.Players[0].Status)
	}
	if view.Players[1].Status != string(StatusFold) {
		t.Fatalf("expected FOLD, got %s", view.Players[1].Status)
	}
	if view.Players[2].Status != DisplayIdle {
		t.Fatalf("expected IDLE for a waiting seat, got %s", view.Players[2].Status)
	}
}

func TestLobbyInfoCountsValidSeats(t *testing.T) {
	s := NewTableState(3, "high rollers", VariantOmaha, 50, 100)
	_ = s.Seats.Sit(0, &Player{Address: "a", Status: StatusNone})
	_ = s.Seats.Sit(1, &Player{Address: "b", Status: StatusDisconnect})
	_ = s.Seats.Sit(2, &Player{Address: "c", Status: StatusJoin})

	info := s.LobbyInfo()
	want := LobbyInfo{ID: 3, Name: "high rollers", Type: VariantOmaha, SmallBlind: 50, BigBlind: 100, MinBuyIn: 1000, ActivePlayersCnt: 2}
	if info != want {
		t.Fatalf("expected %+v, got %+v", want, info)
	}
}
