package game

import "errors"

const SeatCount = 6

var (
	ErrInvalidSeat  = errors.New("invalid_seat")
	ErrSeatTaken    = errors.New("seat_taken")
	ErrNoActiveSeat = errors.New("no_active_seat")
)

type SeatStatus string

const (
	StatusEmpty      SeatStatus = ""
	StatusJoin       SeatStatus = "JOIN"
	StatusNone       SeatStatus = "NONE"
	StatusSmallBlind SeatStatus = "SMALL_BLIND"
	StatusBigBlind   SeatStatus = "BIG_BLIND"
	StatusCheck      SeatStatus = "CHECK"
	StatusCall       SeatStatus = "CALL"
	StatusRaise      SeatStatus = "RAISE"
	StatusAllIn      SeatStatus = "ALLIN"
	StatusFold       SeatStatus = "FOLD"
	StatusLeave      SeatStatus = "LEAVE"
	StatusDisconnect SeatStatus = "DISCONNECT"
)

// Player is an occupied seat. The transport connection is owned elsewhere.
type Player struct {
	Address   string
	Stack     int64
	BetAmount int64
	TotalBet  int64
	Status    SeatStatus
	Cards     []Card
	Position  int
	Prize     int64
}

// Valid reports whether the occupant still counts toward starting a hand.
func (p *Player) Valid() bool {
	return p != nil && p.Address != "" && p.Status != StatusDisconnect
}

// Active reports whether the occupant takes part in the current hand.
func (p *Player) Active() bool {
	if p == nil || p.Address == "" {
		return false
	}
	switch p.Status {
	case StatusFold, StatusJoin, StatusLeave, StatusDisconnect:
		return false
	}
	return true
}

func (p *Player) AllIn() bool {
	return p != nil && p.Status == StatusAllIn
}

// Seats is the fixed six-slot arena; a nil slot is empty.
type Seats [SeatCount]*Player

func (s *Seats) At(i int) (*Player, bool) {
	if i < 0 || i >= SeatCount || s[i] == nil {
		return nil, false
	}
	return s[i], true
}

func (s *Seats) Sit(i int, p *Player) error {
	if i < 0 || i >= SeatCount || p == nil || p.Address == "" {
		return ErrInvalidSeat
	}
	if s[i] != nil {
		return ErrSeatTaken
	}
	p.Position = i
	s[i] = p
	return nil
}

func (s *Seats) Clear(i int) *Player {
	p, ok := s.At(i)
	if !ok {
		return nil
	}
	s[i] = nil
	return p
}

func (s *Seats) PositionOf(address string) int {
	if address == "" {
		return -1
	}
	for i, p := range s {
		if p != nil && p.Address == address {
			return i
		}
	}
	return -1
}

func (s *Seats) NumberOfPlayers() int {
	n := 0
	for _, p := range s {
		if p.Valid() {
			n++
		}
	}
	return n
}

func (s *Seats) NumberOfActivePlayers() int {
	n := 0
	for _, p := range s {
		if p.Active() {
			n++
		}
	}
	return n
}

func (s *Seats) numberAbleToBet() int {
	n := 0
	for _, p := range s {
		if p.Active() && !p.AllIn() {
			n++
		}
	}
	return n
}

// NextActive returns the first Active seat after from, wrapping around.
func (s *Seats) NextActive(from int) (int, error) {
	return s.next(from, func(p *Player) bool { return p.Active() })
}

// nextToAct skips all-in seats and seats that already matched the bet and acted.
func (s *Seats) nextToAct(from int, currentBet int64) (int, error) {
	return s.next(from, func(p *Player) bool {
		if !p.Active() || p.AllIn() {
			return false
		}
		return p.Status == StatusNone || p.BetAmount != currentBet
	})
}

func (s *Seats) next(from int, ok func(*Player) bool) (int, error) {
	if from < 0 || from >= SeatCount {
		from = SeatCount - 1
	}
	for step := 1; step <= SeatCount; step++ {
		i := (from + step) % SeatCount
		if ok(s[i]) {
			return i, nil
		}
	}
	return -1, ErrNoActiveSeat
}
