package game

import (
	"errors"
	"strconv"
	"time"
)

var (
	ErrAlreadySeated = errors.New("already_seated")
	ErrInvalidBuyIn  = errors.New("invalid_buy_in")
)

type StepKind int

const (
	StepNone StepKind = iota
	StepSmallBlind
	StepBigBlind
	StepAdvance
	StepOpenStreet
	StepRunout
	StepTick
	StepSettle
	StepNewHand
)

func (k StepKind) String() string {
	switch k {
	case StepSmallBlind:
		return "small_blind"
	case StepBigBlind:
		return "big_blind"
	case StepAdvance:
		return "advance"
	case StepOpenStreet:
		return "open_street"
	case StepRunout:
		return "runout"
	case StepTick:
		return "tick"
	case StepSettle:
		return "settle"
	case StepNewHand:
		return "new_hand"
	default:
		return "none"
	}
}

// Step is the continuation the table scheduler must run after a delay.
type Step struct {
	Kind    StepKind
	After   time.Duration
	Timeout bool
}

func (s Step) Scheduled() bool { return s.Kind != StepNone }

type ShowdownHand struct {
	Seat    int
	Address string
	Cards   []Card
	Hand    string
}

type HandResult struct {
	HandID   string
	Pot      int64
	Prizes   [SeatCount]int64
	Showdown []ShowdownHand
}

type Engine struct {
	State    *TableState
	Shuffler *Shuffler
	Ranker   Ranker
	Timing   Timing
	NewID    func() string

	LastResult *HandResult
	cleared    []Player
}

func NewEngine(state *TableState, shuffler *Shuffler, ranker Ranker, timing Timing) *Engine {
	if shuffler == nil {
		shuffler = NewShuffler(0)
	}
	if ranker == nil {
		ranker = PokerRanker{}
	}
	return &Engine{
		State:    state,
		Shuffler: shuffler,
		Ranker:   ranker,
		Timing:   timing,
		NewID:    sequentialIDs(),
	}
}

// sequentialIDs numbers hands per engine; tables inject ULIDs instead.
func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return strconv.Itoa(n)
	}
}

// TakeCleared returns the occupants removed since the last call.
func (e *Engine) TakeCleared() []Player {
	out := e.cleared
	e.cleared = nil
	return out
}

func (e *Engine) anim(n int) time.Duration {
	return time.Duration(n) * e.Timing.AnimationDelay
}

// Run executes a scheduled continuation.
func (e *Engine) Run(kind StepKind) (Step, error) {
	switch kind {
	case StepSmallBlind:
		return e.PostSmallBlind()
	case StepBigBlind:
		return e.PostBigBlind()
	case StepAdvance:
		return e.Advance()
	case StepOpenStreet:
		return e.OpenStreet()
	case StepRunout:
		return e.Runout()
	case StepTick:
		return e.Tick()
	case StepSettle:
		return e.Settle()
	case StepNewHand:
		e.State.CommunityCards = nil
		return e.NewHand()
	default:
		return Step{}, nil
	}
}

func (e *Engine) TakeSeat(address string, pos int, buyIn int64) (Step, error) {
	s := e.State
	if address == "" || pos < 0 || pos >= SeatCount {
		return Step{}, ErrInvalidSeat
	}
	if buyIn <= 0 {
		return Step{}, ErrInvalidBuyIn
	}
	if s.Seats.PositionOf(address) >= 0 {
		return Step{}, ErrAlreadySeated
	}
	if err := s.Seats.Sit(pos, &Player{Address: address, Stack: buyIn, Status: StatusJoin}); err != nil {
		return Step{}, err
	}
	s.LastNewPlayerID = pos
	if s.Status == PhaseWait {
		return e.NewHand()
	}
	return Step{}, nil
}

// LeaveSeat marks the occupant disconnected. Their chips stay in the pot for
// the running hand; the seat is cleared when the next hand starts.
func (e *Engine) LeaveSeat(pos int) (Step, error) {
	s := e.State
	p, ok := s.Seats.At(pos)
	if !ok || !p.Valid() {
		return Step{}, nil
	}
	wasActing := s.Status == PhaseIdle && pos == s.CurrentPlayerID
	p.Status = StatusDisconnect
	if s.Status == PhaseWait {
		e.cleared = append(e.cleared, *p)
		s.Seats.Clear(pos)
		return Step{}, nil
	}
	if s.Status == PhaseIdle && (wasActing || s.Seats.NumberOfActivePlayers() <= 1) {
		s.Status = PhaseFold
		s.TurnSeq++
		return Step{Kind: StepAdvance, After: e.anim(1)}, nil
	}
	return Step{}, nil
}

func (e *Engine) NewHand() (Step, error) {
	s := e.State
	s.Status = PhaseWait
	for i, p := range s.Seats {
		if p != nil && (p.Stack <= 0 || p.Status == StatusDisconnect) {
			e.cleared = append(e.cleared, *p)
			s.Seats[i] = nil
		}
	}
	if s.Seats.NumberOfPlayers() < 2 {
		return Step{}, nil
	}

	s.Deck = NewDeck(e.Shuffler.Shuffle())
	s.Pot = 0
	s.CurrentBet = 0
	s.PlusBet = 0
	s.IsLockup = false
	s.MinRaise = s.BigBlind * 2
	s.CommunityCards = nil
	for _, p := range s.Seats {
		if !p.Valid() {
			continue
		}
		cards, err := s.Deck.PopN(s.Variant.HoleCards())
		if err != nil {
			return Step{}, err
		}
		p.Cards = cards
		p.BetAmount = 0
		p.TotalBet = 0
		p.Status = StatusNone
	}
	if s.LastNewPlayerID != -1 {
		s.DealerID = s.LastNewPlayerID
	}
	dealer, err := s.Seats.NextActive(s.DealerID)
	if err != nil {
		return Step{}, err
	}
	s.DealerID = dealer
	s.LastNewPlayerID = -1

	s.HandID = e.NewID()
	s.HandSeq++
	s.TurnSeq++
	s.Round = RoundPreflop
	s.Countdown = e.Timing.Countdown
	s.Status = PhasePreflop
	return Step{Kind: StepSmallBlind, After: e.anim(s.Seats.NumberOfActivePlayers())}, nil
}

func (e *Engine) PostSmallBlind() (Step, error) {
	s := e.State
	if s.Seats.NumberOfActivePlayers() < 2 {
		return e.final(), nil
	}
	seat, err := s.Seats.NextActive(s.DealerID)
	if err != nil {
		return Step{}, err
	}
	s.CurrentPlayerID = seat
	s.Status = PhaseSmallBlind
	s.Seats[seat].Status = StatusSmallBlind
	e.stake(s.Seats[seat], s.SmallBlind)
	return Step{Kind: StepBigBlind, After: e.anim(1)}, nil
}

func (e *Engine) PostBigBlind() (Step, error) {
	s := e.State
	if s.Seats.NumberOfActivePlayers() < 2 {
		return e.final(), nil
	}
	seat, err := s.Seats.NextActive(s.CurrentPlayerID)
	if err != nil {
		return Step{}, err
	}
	s.CurrentPlayerID = seat
	s.Status = PhaseBigBlind
	s.Seats[seat].Status = StatusBigBlind
	s.CurrentBet = s.BigBlind
	e.stake(s.Seats[seat], s.BigBlind)
	return Step{Kind: StepAdvance, After: e.anim(1)}, nil
}

// Stake moves chips from the seat's stack into its bet for this street.
func (e *Engine) Stake(seat int, amount int64) error {
	p, ok := e.State.Seats.At(seat)
	if !ok {
		return ErrInvalidSeat
	}
	e.stake(p, amount)
	return nil
}

func (e *Engine) stake(p *Player, amount int64) {
	amount = min64(amount, p.Stack)
	if amount < 0 {
		amount = 0
	}
	p.Stack -= amount
	p.BetAmount += amount
	e.State.PlusBet = amount
	if p.Stack == 0 {
		p.Status = StatusAllIn
	}
}

func (e *Engine) Apply(a Action) (Step, error) {
	s := e.State
	if err := ValidateAction(s, a.Seat, a.Type, a.Amount); err != nil {
		return Step{}, err
	}
	p := s.Seats[a.Seat]
	switch a.Type {
	case ActionFold:
		s.Status = PhaseFold
		p.Status = StatusFold
	case ActionCheck:
		s.Status = PhaseCheck
		p.Status = StatusCheck
	case ActionCall:
		s.Status = PhaseCall
		p.Status = StatusCall
		e.stake(p, s.CurrentBet-p.BetAmount)
	case ActionRaise:
		s.Status = PhaseRaise
		p.Status = StatusRaise
		s.MinRaise = a.Amount + a.Amount - max64(s.BigBlind, s.CurrentBet)
		s.CurrentBet = a.Amount
		e.stake(p, a.Amount-p.BetAmount)
	case ActionAllIn:
		s.Status = PhaseAllIn
		p.Status = StatusAllIn
		if total := p.BetAmount + p.Stack; total > s.CurrentBet {
			s.MinRaise = total + total - max64(s.BigBlind, s.CurrentBet)
			s.CurrentBet = total
		}
		e.stake(p, p.Stack)
	}
	s.TurnSeq++
	return Step{Kind: StepAdvance, After: e.anim(1)}, nil
}

// UpdatePlayers settles the street: bets move into the pot.
func (e *Engine) UpdatePlayers() {
	s := e.State
	s.MinRaise = s.BigBlind
	s.CurrentBet = 0
	for _, p := range s.Seats {
		if p == nil {
			continue
		}
		s.Pot += p.BetAmount
		p.TotalBet += p.BetAmount
		p.BetAmount = 0
	}
}

func (e *Engine) CheckRoundResult() RoundResult {
	s := e.State
	cnt := 0
	for _, p := range s.Seats {
		if !p.Active() {
			continue
		}
		if p.BetAmount != s.CurrentBet && !p.AllIn() {
			return RoundRunning
		}
		if p.Status == StatusNone {
			return RoundRunning
		}
		if !p.AllIn() {
			cnt++
		}
	}
	if cnt < 2 {
		return RoundLockup
	}
	return RoundEnded
}

// Advance moves the turn and decides whether the street is over.
func (e *Engine) Advance() (Step, error) {
	s := e.State
	if s.Status == PhaseBigBlind {
		for _, p := range s.Seats {
			if p.Active() && !p.AllIn() {
				p.Status = StatusNone
			}
		}
	}
	s.TurnSeq++

	active := s.Seats.NumberOfActivePlayers()
	if active == 0 {
		return Step{}, ErrNoActiveSeat
	}
	if active == 1 {
		return e.final(), nil
	}

	result := RoundLockup
	if !s.IsLockup {
		result = e.CheckRoundResult()
	}
	if result == RoundRunning {
		next, err := s.Seats.nextToAct(s.CurrentPlayerID, s.CurrentBet)
		if err != nil {
			return Step{}, err
		}
		s.CurrentPlayerID = next
		s.Status = PhaseIdle
		s.Countdown = e.Timing.Countdown
		return Step{Kind: StepTick, After: e.Timing.TickInterval}, nil
	}

	if result == RoundEnded {
		for _, p := range s.Seats {
			if p.Active() && !p.AllIn() {
				p.Status = StatusNone
			}
		}
	}
	s.Round++
	var err error
	switch s.Round {
	case RoundFlop:
		err = e.reveal(3, PhaseFlop)
	case RoundTurn:
		err = e.reveal(1, PhaseTurn)
	case RoundRiver:
		err = e.reveal(1, PhaseRiver)
	default:
		return e.final(), nil
	}
	if err != nil {
		return Step{}, err
	}
	if result == RoundLockup {
		s.IsLockup = true
		return Step{Kind: StepRunout, After: e.anim(1)}, nil
	}
	return Step{Kind: StepOpenStreet, After: e.anim(1)}, nil
}

func (e *Engine) reveal(n int, phase Phase) error {
	cards, err := e.State.Deck.PopN(n)
	if err != nil {
		return err
	}
	e.State.CommunityCards = append(e.State.CommunityCards, cards...)
	e.State.Status = phase
	return nil
}

// OpenStreet starts betting on a freshly dealt street.
func (e *Engine) OpenStreet() (Step, error) {
	s := e.State
	// Seats may leave while the street is being dealt.
	if s.Seats.NumberOfActivePlayers() < 2 {
		return e.final(), nil
	}
	e.UpdatePlayers()
	next, err := s.Seats.nextToAct(s.DealerID, s.CurrentBet)
	if err != nil {
		return Step{}, err
	}
	s.CurrentPlayerID = next
	s.Status = PhaseIdle
	s.Countdown = e.Timing.Countdown
	s.TurnSeq++
	return Step{Kind: StepTick, After: e.Timing.TickInterval}, nil
}

// Runout deals the next street of a locked up hand without betting.
func (e *Engine) Runout() (Step, error) {
	if e.State.Seats.NumberOfActivePlayers() < 2 {
		return e.final(), nil
	}
	e.UpdatePlayers()
	return Step{Kind: StepAdvance, After: e.anim(1)}, nil
}

// Tick counts down the acting seat and folds it once time runs out.
func (e *Engine) Tick() (Step, error) {
	s := e.State
	if s.Status != PhaseIdle {
		return Step{}, nil
	}
	s.Countdown--
	if s.Countdown >= 0 {
		return Step{Kind: StepTick, After: e.Timing.TickInterval}, nil
	}
	if p, ok := s.current(); ok && p.Active() {
		p.Status = StatusFold
	}
	s.Status = PhaseFold
	s.TurnSeq++
	return Step{Kind: StepAdvance, After: e.anim(1), Timeout: true}, nil
}

func (e *Engine) final() Step {
	e.State.Status = PhaseFinal
	return Step{Kind: StepSettle, After: e.anim(3)}
}

// Settle pays the pot out and ends the hand.
func (e *Engine) Settle() (Step, error) {
	s := e.State
	e.UpdatePlayers()

	in := PotInput{Dealer: s.DealerID}
	contenders := 0
	for i, p := range s.Seats {
		if p == nil {
			continue
		}
		in.Bets[i] = p.TotalBet
		if p.Active() {
			in.Contending[i] = true
			contenders++
		}
	}
	result := &HandResult{HandID: s.HandID, Pot: s.Pot}
	if contenders > 1 {
		for i, p := range s.Seats {
			if !in.Contending[i] {
				continue
			}
			rank, err := e.Ranker.Rank(s.Variant, p.Cards, s.CommunityCards)
			if err != nil {
				return Step{}, err
			}
			in.Ranks[i] = rank
			result.Showdown = append(result.Showdown, ShowdownHand{
				Seat:    i,
				Address: p.Address,
				Cards:   append([]Card(nil), p.Cards...),
				Hand:    rank.Name,
			})
		}
	}

	prizes := SettlePots(in, e.Ranker)
	for i, p := range s.Seats {
		if p == nil {
			continue
		}
		p.Stack += prizes[i]
		p.Prize = prizes[i]
		p.TotalBet = 0
	}
	s.Prizes = prizes
	result.Prizes = prizes
	e.LastResult = result
	s.Round = RoundOver
	s.Status = PhaseOver
	return Step{Kind: StepNewHand, After: e.anim(3)}, nil
}

// Abort refunds every contribution of the running hand and tries to deal a
// fresh one. It is the recovery path for engine invariant violations.
func (e *Engine) Abort() (Step, error) {
	s := e.State
	for _, p := range s.Seats {
		if p == nil {
			continue
		}
		p.Stack += p.BetAmount + p.TotalBet
		p.BetAmount = 0
		p.TotalBet = 0
	}
	s.Pot = 0
	s.CurrentBet = 0
	s.IsLockup = false
	s.CommunityCards = nil
	s.Round = RoundOver
	s.Status = PhaseWait
	s.TurnSeq++
	return e.NewHand()
}
