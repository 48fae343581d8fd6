package table

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"poker-room/internal/game"
	"poker-room/internal/store"
)

var ErrTableClosed = errors.New("table_closed")

// Update is published after every mutation of the table.
type Update struct {
	TableID int
	Public  game.Snapshot
	// BySeat holds the view of every seated address.
	BySeat map[string]game.Snapshot
	Lobby  game.LobbyInfo
	// Result is set once, right after a hand is settled.
	Result *game.HandResult
}

// Listener is called from the table goroutine. Implementations must not call
// back into the same table synchronously.
type Listener interface {
	TableUpdated(u Update)
	SeatsCleared(tableID int, players []game.Player)
}

type Options struct {
	Timing    game.Timing
	InboxSize int
	Seed      int64
	Clock     Clock
	Ranker    game.Ranker
	Listener  Listener
	NewID     func() string
}

type command struct {
	fn   func() error
	resp chan error
}

// timerKey identifies the table position a scheduled step was created for.
type timerKey struct {
	table int
	hand  string
	round game.Round
	turn  int64
	gen   int64
}

// Table owns one engine and serializes every access to it through a single
// goroutine.
type Table struct {
	id       int
	engine   *game.Engine
	clock    Clock
	listener Listener

	inbox    chan command
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once

	// owned by the run goroutine
	timer  Timer
	gen    int64
	result *game.HandResult
}

func New(id int, name string, variant game.Variant, smallBlind, bigBlind int64, opts Options) *Table {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 64
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Timing == (game.Timing{}) {
		opts.Timing = game.DefaultTiming()
	}
	state := game.NewTableState(id, name, variant, smallBlind, bigBlind)
	engine := game.NewEngine(state, game.NewShuffler(opts.Seed), opts.Ranker, opts.Timing)
	if opts.NewID == nil {
		opts.NewID = store.NewID
	}
	engine.NewID = opts.NewID
	t := &Table{
		id:       id,
		engine:   engine,
		clock:    opts.Clock,
		listener: opts.Listener,
		inbox:    make(chan command, opts.InboxSize),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	metricTablesRunning.Add(1)
	go t.run()
	return t
}

func (t *Table) ID() int { return t.id }

func (t *Table) Done() <-chan struct{} { return t.exited }

func (t *Table) run() {
	defer func() {
		t.stopTimer()
		metricTablesRunning.Add(-1)
		close(t.exited)
	}()
	for {
		select {
		case <-t.done:
			return
		case cmd := <-t.inbox:
			err := cmd.fn()
			if cmd.resp != nil {
				cmd.resp <- err
			}
			select {
			case <-t.done:
				return
			default:
			}
		}
	}
}

// submit queues fn and waits for it to run on the table goroutine.
func (t *Table) submit(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, resp: make(chan error, 1)}
	select {
	case <-t.done:
		return ErrTableClosed
	default:
	}
	select {
	case t.inbox <- cmd:
	case <-t.done:
		return ErrTableClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.resp:
		return err
	case <-t.exited:
		return ErrTableClosed
	}
}

func (t *Table) key() timerKey {
	s := t.engine.State
	return timerKey{table: t.id, hand: s.HandID, round: s.Round, turn: s.TurnSeq, gen: t.gen}
}

func (t *Table) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// schedule replaces the pending step. A StepNone keeps whatever is pending.
func (t *Table) schedule(step game.Step) {
	if !step.Scheduled() {
		return
	}
	t.stopTimer()
	t.gen++
	key := t.key()
	kind := step.Kind
	t.timer = t.clock.AfterFunc(step.After, func() {
		cmd := command{fn: func() error {
			t.fire(key, kind)
			return nil
		}}
		select {
		case t.inbox <- cmd:
		case <-t.done:
		}
	})
}

func (t *Table) fire(key timerKey, kind game.StepKind) {
	if key != t.key() {
		metricStaleTimers.Add(1)
		log.Debug().Int("table_id", t.id).Str("step", kind.String()).Msg("stale_timer_dropped")
		return
	}
	t.timer = nil
	step, err := t.engine.Run(kind)
	t.after(step, err)
}

// after schedules the continuation of a mutation and publishes the new state.
func (t *Table) after(step game.Step, err error) {
	s := t.engine.State
	if err != nil {
		metricHandsAborted.Add(1)
		log.Error().Err(err).Int("table_id", t.id).Str("hand_id", s.HandID).Msg("hand_aborted")
		t.stopTimer()
		step, err = t.engine.Abort()
		if err != nil {
			log.Error().Err(err).Int("table_id", t.id).Msg("hand_restart_failed")
			step = game.Step{}
		}
	}
	if step.Timeout {
		metricTurnTimeouts.Add(1)
		log.Info().Int("table_id", t.id).Str("hand_id", s.HandID).Int("seat", s.CurrentPlayerID).Msg("turn_timeout")
	}
	if step.Kind == game.StepSmallBlind {
		log.Info().Int("table_id", t.id).Str("hand_id", s.HandID).Int("dealer", s.DealerID).
			Int("players", s.Seats.NumberOfActivePlayers()).Msg("hand_start")
	}
	if step.Kind == game.StepNewHand && t.engine.LastResult != nil {
		t.result = t.engine.LastResult
		t.engine.LastResult = nil
		metricHandsPlayed.Add(1)
		logResult(t.id, t.result)
	}
	t.schedule(step)
	t.publish()
}

func logResult(tableID int, r *game.HandResult) {
	ev := log.Info().Int("table_id", tableID).Str("hand_id", r.HandID).Int64("pot", r.Pot)
	for _, h := range r.Showdown {
		ev = ev.Str("seat_"+strconv.Itoa(h.Seat), h.Hand)
	}
	ev.Ints64("prizes", r.Prizes[:]).Msg("hand_end")
}

func (t *Table) publish() {
	if cleared := t.engine.TakeCleared(); len(cleared) > 0 && t.listener != nil {
		t.listener.SeatsCleared(t.id, cleared)
	}
	if t.listener == nil {
		t.result = nil
		return
	}
	s := t.engine.State
	u := Update{
		TableID: t.id,
		Public:  s.SnapshotFor(""),
		BySeat:  map[string]game.Snapshot{},
		Lobby:   s.LobbyInfo(),
		Result:  t.result,
	}
	for _, p := range s.Seats {
		if p != nil {
			u.BySeat[p.Address] = s.SnapshotFor(p.Address)
		}
	}
	t.result = nil
	t.listener.TableUpdated(u)
}

func (t *Table) TakeSeat(ctx context.Context, address string, position int, buyIn int64) error {
	return t.submit(ctx, func() error {
		step, err := t.engine.TakeSeat(address, position, buyIn)
		if err != nil {
			return err
		}
		log.Info().Int("table_id", t.id).Str("address", address).Int("seat", position).Int64("buy_in", buyIn).Msg("seat_taken")
		t.after(step, nil)
		return nil
	})
}

// Leave disconnects the occupant of position. It returns the number of
// seats still counting toward a game.
func (t *Table) Leave(ctx context.Context, position int) (int, error) {
	remaining := 0
	err := t.submit(ctx, func() error {
		if _, ok := t.engine.State.Seats.At(position); !ok {
			return game.ErrNotSeated
		}
		step, err := t.engine.LeaveSeat(position)
		if err != nil {
			return err
		}
		log.Info().Int("table_id", t.id).Int("seat", position).Msg("seat_left")
		t.after(step, nil)
		remaining = t.engine.State.Seats.NumberOfPlayers()
		return nil
	})
	return remaining, err
}

// LeaveAddress disconnects address wherever it sits on this table.
func (t *Table) LeaveAddress(ctx context.Context, address string) (int, error) {
	remaining := 0
	err := t.submit(ctx, func() error {
		pos := t.engine.State.Seats.PositionOf(address)
		if pos < 0 {
			return game.ErrNotSeated
		}
		step, err := t.engine.LeaveSeat(pos)
		if err != nil {
			return err
		}
		log.Info().Int("table_id", t.id).Str("address", address).Int("seat", pos).Msg("seat_left")
		t.after(step, nil)
		remaining = t.engine.State.Seats.NumberOfPlayers()
		return nil
	})
	return remaining, err
}

func (t *Table) Act(ctx context.Context, address string, action game.ActionType, amount int64) error {
	metricActionsTotal.Add(1)
	err := t.submit(ctx, func() error {
		pos := t.engine.State.Seats.PositionOf(address)
		if pos < 0 {
			return game.ErrNotSeated
		}
		step, err := t.engine.Apply(game.Action{Seat: pos, Type: action, Amount: amount})
		if err != nil {
			return err
		}
		log.Info().Int("table_id", t.id).Str("hand_id", t.engine.State.HandID).Int("seat", pos).
			Str("action", string(action)).Int64("amount", t.engine.State.PlusBet).Msg("action_applied")
		t.after(step, nil)
		return nil
	})
	if err != nil {
		metricActionErrors.Add(1)
	}
	return err
}

func (t *Table) Snapshot(ctx context.Context, viewer string) (game.Snapshot, error) {
	var out game.Snapshot
	err := t.submit(ctx, func() error {
		out = t.engine.State.SnapshotFor(viewer)
		return nil
	})
	return out, err
}

func (t *Table) LobbyInfo(ctx context.Context) (game.LobbyInfo, error) {
	var out game.LobbyInfo
	err := t.submit(ctx, func() error {
		out = t.engine.State.LobbyInfo()
		return nil
	})
	return out, err
}

// PositionOf returns -1 when address is not seated.
func (t *Table) PositionOf(ctx context.Context, address string) (int, error) {
	pos := -1
	err := t.submit(ctx, func() error {
		pos = t.engine.State.Seats.PositionOf(address)
		return nil
	})
	return pos, err
}

// Stop cancels pending work and returns every occupant with the chips they
// still own, contributions to an unfinished hand included. Later calls
// return nil.
func (t *Table) Stop() []game.Player {
	var out []game.Player
	err := t.submit(context.Background(), func() error {
		t.stopTimer()
		out = append(out, t.engine.TakeCleared()...)
		for i, p := range t.engine.State.Seats {
			if p == nil {
				continue
			}
			cp := *p
			cp.Stack += cp.BetAmount + cp.TotalBet
			cp.BetAmount, cp.TotalBet = 0, 0
			out = append(out, cp)
			t.engine.State.Seats[i] = nil
		}
		t.stopOnce.Do(func() { close(t.done) })
		return nil
	})
	if err != nil {
		t.stopOnce.Do(func() { close(t.done) })
	}
	<-t.exited
	if len(out) > 0 {
		log.Info().Int("table_id", t.id).Int("players", len(out)).Msg("table_stopped")
	}
	return out
}
