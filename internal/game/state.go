package game

import "time"

type Variant string

const (
	VariantHoldem Variant = "NL Texas Hold'em"
	VariantOmaha  Variant = "Pot Limit Omaha"
)

func (v Variant) Known() bool {
	return v == VariantHoldem || v == VariantOmaha
}

func (v Variant) HoleCards() int {
	if v == VariantOmaha {
		return 4
	}
	return 2
}

type Round int

const (
	RoundPreflop Round = iota
	RoundFlop
	RoundTurn
	RoundRiver
	RoundOver
)

func (r Round) String() string {
	switch r {
	case RoundPreflop:
		return "preflop"
	case RoundFlop:
		return "flop"
	case RoundTurn:
		return "turn"
	case RoundRiver:
		return "river"
	default:
		return "over"
	}
}

// Phase is the coarse table status shown to clients.
type Phase string

const (
	PhaseWait       Phase = "WAIT"
	PhasePreflop    Phase = "PREFLOP"
	PhaseSmallBlind Phase = "SMALL_BLIND"
	PhaseBigBlind   Phase = "BIG_BLIND"
	PhaseIdle       Phase = "IDLE"
	PhaseCheck      Phase = "CHECK"
	PhaseCall       Phase = "CALL"
	PhaseRaise      Phase = "RAISE"
	PhaseAllIn      Phase = "ALLIN"
	PhaseFold       Phase = "FOLD"
	PhaseFlop       Phase = "FLOP"
	PhaseTurn       Phase = "TURN"
	PhaseRiver      Phase = "RIVER"
	PhaseFinal      Phase = "FINAL"
	PhaseOver       Phase = "OVER"
)

// RoundResult classifies a street after each turn advance.
type RoundResult string

const (
	RoundRunning RoundResult = "RUNNING"
	RoundLockup  RoundResult = "LOCKUP"
	RoundEnded   RoundResult = "ENDED"
)

type Timing struct {
	Countdown      int
	AnimationDelay time.Duration
	TickInterval   time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Countdown:      12,
		AnimationDelay: 1100 * time.Millisecond,
		TickInterval:   time.Second,
	}
}

type TableState struct {
	ID         int
	Name       string
	Variant    Variant
	SmallBlind int64
	BigBlind   int64
	MinBuyIn   int64

	Seats           Seats
	Round           Round
	Pot             int64
	CurrentBet      int64
	MinRaise        int64
	DealerID        int
	CurrentPlayerID int
	Deck            *Deck
	CommunityCards  []Card
	Countdown       int
	Status          Phase
	IsLockup        bool
	Prizes          [SeatCount]int64
	PlusBet         int64
	LastNewPlayerID int

	HandID  string
	HandSeq int64
	// TurnSeq changes whenever the acting seat or its countdown is superseded.
	TurnSeq int64
}

func NewTableState(id int, name string, variant Variant, sb, bb int64) *TableState {
	return &TableState{
		ID:              id,
		Name:            name,
		Variant:         variant,
		SmallBlind:      sb,
		BigBlind:        bb,
		MinBuyIn:        bb * 10,
		Round:           RoundOver,
		Countdown:       1,
		Status:          PhaseWait,
		LastNewPlayerID: -1,
	}
}

func (s *TableState) current() (*Player, bool) {
	return s.Seats.At(s.CurrentPlayerID)
}

func (s *TableState) tableBets() int64 {
	var sum int64
	for _, p := range s.Seats {
		if p != nil {
			sum += p.BetAmount
		}
	}
	return sum
}

// potLimitRaiseTo is the largest legal raise-to amount for a pot limit game.
func (s *TableState) potLimitRaiseTo(p *Player) int64 {
	call := s.CurrentBet - p.BetAmount
	if call < 0 {
		call = 0
	}
	return s.CurrentBet + s.Pot + s.tableBets() + call
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
