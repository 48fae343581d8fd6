package game

// Display statuses derived for clients on top of the raw seat status.
const (
	DisplayIdle   = "IDLE"
	DisplayActive = "ACTIVE"
	DisplayBet    = "BET"
)

type SeatView struct {
	Position  int    `json:"position"`
	Address   string `json:"address"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Stack     int64  `json:"stack"`
	BetAmount int64  `json:"betAmount"`
	TotalBet  int64  `json:"totalBet"`
	Status    string `json:"status"`
	RawStatus string `json:"rawStatus"`
	Cards     []int  `json:"cards"`
	Prize     int64  `json:"prize"`
}

type Snapshot struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Type            Variant    `json:"type"`
	SmallBlind      int64      `json:"smallBlind"`
	BigBlind        int64      `json:"bigBlind"`
	MinBuyIn        int64      `json:"minBuyIn"`
	Round           string     `json:"round"`
	Pot             int64      `json:"pot"`
	CurrentBet      int64      `json:"currentBet"`
	MinRaise        int64      `json:"minRaise"`
	DealerID        int        `json:"dealerId"`
	CurrentPlayerID int        `json:"currentPlayerId"`
	Countdown       int        `json:"countdown"`
	Status          Phase      `json:"status"`
	IsLockup        bool       `json:"isLockup"`
	CommunityCards  []int      `json:"communityCards"`
	PlusBet         int64      `json:"plusBet"`
	HandID          string     `json:"handId"`
	Players         []SeatView `json:"players"`
}

type LobbyInfo struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	Type             Variant `json:"type"`
	SmallBlind       int64   `json:"smallBlind"`
	BigBlind         int64   `json:"bigBlind"`
	MinBuyIn         int64   `json:"minBuyIn"`
	ActivePlayersCnt int     `json:"activePlayersCnt"`
}

// SnapshotFor renders the table for viewer. An empty viewer gets the public
// view. Hole cards of other seats are shown only at showdown or lockup.
func (s *TableState) SnapshotFor(viewer string) Snapshot {
	reveal := s.Round == RoundOver || s.IsLockup
	out := Snapshot{
		ID:              s.ID,
		Name:            s.Name,
		Type:            s.Variant,
		SmallBlind:      s.SmallBlind,
		BigBlind:        s.BigBlind,
		MinBuyIn:        s.MinBuyIn,
		Round:           s.Round.String(),
		Pot:             s.Pot,
		CurrentBet:      s.CurrentBet,
		MinRaise:        s.MinRaise,
		DealerID:        s.DealerID,
		CurrentPlayerID: s.CurrentPlayerID,
		Countdown:       s.Countdown,
		Status:          s.Status,
		IsLockup:        s.IsLockup,
		CommunityCards:  cardInts(s.CommunityCards),
		PlusBet:         s.PlusBet,
		HandID:          s.HandID,
		Players:         make([]SeatView, SeatCount),
	}
	for i := range out.Players {
		out.Players[i] = SeatView{Position: i, Cards: []int{}}
		p := s.Seats[i]
		if p == nil {
			continue
		}
		sv := &out.Players[i]
		sv.Address = p.Address
		sv.Stack = p.Stack
		sv.BetAmount = p.BetAmount
		sv.TotalBet = p.TotalBet
		sv.RawStatus = string(p.Status)
		sv.Status = s.displayStatus(i, p)
		sv.Prize = p.Prize
		if reveal || (viewer != "" && p.Address == viewer) {
			sv.Cards = cardInts(p.Cards)
		}
	}
	return out
}

func (s *TableState) displayStatus(i int, p *Player) string {
	if i != s.CurrentPlayerID || s.IsLockup {
		switch p.Status {
		case StatusFold, StatusAllIn, StatusJoin, StatusDisconnect, StatusLeave:
			return string(p.Status)
		}
		return DisplayIdle
	}
	switch s.Status {
	case PhaseIdle:
		return DisplayActive
	case PhaseSmallBlind, PhaseBigBlind, PhaseCall, PhaseRaise, PhaseAllIn:
		return DisplayBet
	}
	return string(p.Status)
}

func (s *TableState) LobbyInfo() LobbyInfo {
	return LobbyInfo{
		ID:               s.ID,
		Name:             s.Name,
		Type:             s.Variant,
		SmallBlind:       s.SmallBlind,
		BigBlind:         s.BigBlind,
		MinBuyIn:         s.MinBuyIn,
		ActivePlayersCnt: s.Seats.NumberOfPlayers(),
	}
}

func cardInts(cards []Card) []int {
	out := make([]int, 0, len(cards))
	for _, c := range cards {
		out = append(out, int(c))
	}
	return out
}
