package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"poker-room/internal/config"
	"poker-room/internal/game"
	"poker-room/internal/logging"
	"poker-room/internal/ws"
)

// bot sits at one table and checks or calls whenever it is its turn.
type bot struct {
	cfg    config.BotConfig
	conn   *websocket.Conn
	seat   int
	asked  bool
	lastTo string
}

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.WSURL).Msg("dial failed")
	}
	defer conn.Close()

	b := &bot{cfg: cfg, conn: conn, seat: -1}
	if err := b.send(ws.ActionJoinGame, ws.JoinGameData{Address: cfg.Address}); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}
	if err := b.send(ws.ActionTableInfo, ws.TableInfoData{ID: cfg.TableID}); err != nil {
		log.Fatal().Err(err).Msg("table info failed")
	}
	for {
		var env ws.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Info().Err(err).Msg("connection closed")
			return
		}
		if err := b.handle(env); err != nil {
			log.Warn().Err(err).Str("event", env.Event).Msg("bot_step_failed")
		}
	}
}

func (b *bot) send(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.conn.WriteJSON(ws.Envelope{Event: event, Data: raw})
}

func (b *bot) handle(env ws.Envelope) error {
	switch env.Event {
	case ws.EventError:
		var e ws.ErrorData
		_ = json.Unmarshal(env.Data, &e)
		log.Warn().Str("code", e.Code).Str("request", e.Event).Msg("server_error")
		if e.Event == ws.ActionTakeSeat {
			b.asked = false
		}
		return nil
	case ws.EventTableInfo:
		var s game.Snapshot
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return err
		}
		return b.onTable(s)
	}
	return nil
}

func (b *bot) onTable(s game.Snapshot) error {
	if s.ID != b.cfg.TableID {
		return nil
	}
	b.seat = seatOf(s, b.cfg.Address)
	if b.seat < 0 {
		if b.asked {
			return nil
		}
		pos := pickSeat(s, b.cfg.Position)
		if pos < 0 {
			return fmt.Errorf("table %d is full", s.ID)
		}
		b.asked = true
		return b.send(ws.ActionTakeSeat, ws.TakeSeatData{ID: s.ID, Position: pos, BuyIn: b.cfg.BuyIn})
	}

	event, ok := decide(s, b.seat)
	if !ok {
		return nil
	}
	turn := fmt.Sprintf("%s/%s/%d", s.HandID, s.Round, s.CurrentBet)
	if turn == b.lastTo {
		return nil
	}
	b.lastTo = turn
	time.Sleep(b.cfg.Think)
	log.Info().Int("table_id", s.ID).Str("hand_id", s.HandID).Int("seat", b.seat).Str("action", event).Msg("bot_action")
	return b.send(event, ws.ActionData{ID: s.ID})
}

func seatOf(s game.Snapshot, address string) int {
	for _, p := range s.Players {
		if p.Address == address {
			return p.Position
		}
	}
	return -1
}

// pickSeat prefers the configured position and falls back to the first free
// seat.
func pickSeat(s game.Snapshot, preferred int) int {
	if preferred >= 0 && preferred < len(s.Players) && s.Players[preferred].Address == "" {
		return preferred
	}
	for _, p := range s.Players {
		if p.Address == "" {
			return p.Position
		}
	}
	return -1
}

// decide returns the action to send when seat is to act.
func decide(s game.Snapshot, seat int) (string, bool) {
	if s.Status != game.PhaseIdle || s.IsLockup || s.CurrentPlayerID != seat || seat < 0 || seat >= len(s.Players) {
		return "", false
	}
	me := s.Players[seat]
	toCall := s.CurrentBet - me.BetAmount
	switch {
	case toCall <= 0:
		return ws.ActionCheck, true
	case toCall >= me.Stack:
		return ws.ActionAllIn, true
	}
	return ws.ActionCall, true
}
