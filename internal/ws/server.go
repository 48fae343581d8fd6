package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"poker-room/internal/game"
	"poker-room/internal/lobby"
	"poker-room/internal/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 32
	requestTimeout = 5 * time.Second
)

var errNotJoined = errors.New("not_joined")

type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	address string
}

func (c *Client) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue never blocks; a client that cannot keep up is dropped.
func (c *Client) enqueue(msg []byte) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		log.Warn().Str("client_id", c.id).Str("address", c.Address()).Msg("slow_client_dropped")
		c.close()
		_ = c.conn.Close()
	}
}

// Server speaks the table protocol over websockets and fans lobby updates out to
// the connected clients. It implements lobby.Notifier.
type Server struct {
	lobby    *lobby.Service
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[int]map[*Client]bool
}

func NewServer(svc *lobby.Service) *Server {
	return &Server{
		lobby: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: map[*Client]bool{},
		rooms:   map[int]map[*Client]bool{},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws_upgrade_failed")
		return
	}
	c := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	metricConnections.Add(1)
	log.Info().Str("client_id", c.id).Str("remote", r.RemoteAddr).Msg("ws_connected")

	go s.writeLoop(c)
	s.sendEvent(c, EventPing, PingData{ClientID: c.id})
	s.readLoop(c)
}

func (s *Server) readLoop(c *Client) {
	defer s.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client_id", c.id).Msg("ws_read_failed")
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil || env.Event == "" {
			s.sendError(c, "", lobby.ErrInvalidData)
			continue
		}
		metricMessages.Add(1)
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		if err := s.handle(ctx, c, env); err != nil {
			s.sendError(c, env.Event, err)
		}
		cancel()
	}
}

func (s *Server) writeLoop(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// unregister drops the client and disconnects its address from every table
// unless another live connection is bound to the same address.
func (s *Server) unregister(c *Client) {
	c.close()
	address := c.Address()
	s.mu.Lock()
	delete(s.clients, c)
	for id, members := range s.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(s.rooms, id)
		}
	}
	shared := false
	if address != "" {
		for other := range s.clients {
			if other.Address() == address {
				shared = true
				break
			}
		}
	}
	s.mu.Unlock()
	metricConnections.Add(-1)
	log.Info().Str("client_id", c.id).Str("address", address).Msg("ws_disconnected")

	if address != "" && !shared {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		s.lobby.Disconnect(ctx, address)
		cancel()
	}
}

func (s *Server) handle(ctx context.Context, c *Client, env Envelope) error {
	switch env.Event {
	case ActionJoinGame:
		var req JoinGameData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		u, err := s.lobby.JoinGame(ctx, req.Address)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.address = u.Address
		c.mu.Unlock()
		s.sendEvent(c, EventUserInfo, u)
		s.sendEvent(c, EventLobbyInfo, s.lobby.LobbyInfo())
		return nil

	case ActionLobbyInfo:
		s.sendEvent(c, EventLobbyInfo, s.lobby.LobbyInfo())
		return nil

	case ActionTableInfo:
		var req TableInfoData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		snap, err := s.lobby.TableInfo(ctx, c.Address(), req.ID)
		if err != nil {
			return err
		}
		s.join(c, snap.ID)
		s.sendEvent(c, EventTableInfo, snap)
		return nil
	}

	address := c.Address()
	if address == "" {
		return errNotJoined
	}
	switch env.Event {
	case ActionCreateTable:
		var req CreateTableData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		snap, err := s.lobby.CreateTable(ctx, lobby.CreateTableRequest{
			Address:    address,
			Name:       req.Name,
			Type:       game.Variant(req.Type),
			SmallBlind: req.SmallBlind,
			BigBlind:   req.BigBlind,
			BuyIn:      req.BuyIn,
		})
		if err != nil {
			return err
		}
		s.join(c, snap.ID)
		s.sendEvent(c, EventTableInfo, snap)
		s.sendUserInfo(ctx, c, address)
		return nil

	case ActionTakeSeat:
		var req TakeSeatData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		snap, err := s.lobby.TakeSeat(ctx, lobby.SeatRequest{
			Address: address, TableID: req.ID, Position: req.Position, BuyIn: req.BuyIn,
		})
		if err != nil {
			return err
		}
		s.join(c, snap.ID)
		s.sendEvent(c, EventTableInfo, snap)
		s.sendUserInfo(ctx, c, address)
		return nil

	case ActionLeaveTable:
		var req LeaveTableData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		position := -1
		if req.Position != nil {
			position = *req.Position
		}
		if err := s.lobby.LeaveTable(ctx, address, req.ID, position); err != nil {
			return err
		}
		s.leave(c, req.ID)
		return nil

	case ActionCheck, ActionCall, ActionRaise, ActionFold, ActionAllIn:
		var req ActionData
		if err := decode(env.Data, &req); err != nil {
			return err
		}
		return s.act(ctx, address, env.Event, req)
	}
	return errUnknownEvent
}

var errUnknownEvent = errors.New("unknown_event")

func (s *Server) act(ctx context.Context, address, event string, req ActionData) error {
	switch event {
	case ActionCheck:
		return s.lobby.Check(ctx, address, req.ID)
	case ActionCall:
		return s.lobby.Call(ctx, address, req.ID)
	case ActionRaise:
		return s.lobby.Raise(ctx, address, req.ID, req.Amount)
	case ActionFold:
		return s.lobby.Fold(ctx, address, req.ID)
	default:
		return s.lobby.AllIn(ctx, address, req.ID)
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return lobby.ErrInvalidData
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return lobby.ErrInvalidData
	}
	return nil
}

func (s *Server) join(c *Client, tableID int) {
	s.mu.Lock()
	members := s.rooms[tableID]
	if members == nil {
		members = map[*Client]bool{}
		s.rooms[tableID] = members
	}
	members[c] = true
	s.mu.Unlock()
}

func (s *Server) leave(c *Client, tableID int) {
	s.mu.Lock()
	if members := s.rooms[tableID]; members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(s.rooms, tableID)
		}
	}
	s.mu.Unlock()
}

func (s *Server) sendUserInfo(ctx context.Context, c *Client, address string) {
	u, err := s.lobby.UserInfo(ctx, address)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("user_info_failed")
		return
	}
	s.sendEvent(c, EventUserInfo, u)
}

func (s *Server) sendEvent(c *Client, event string, data any) {
	msg, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws_encode_failed")
		return
	}
	c.enqueue(msg)
}

func (s *Server) sendError(c *Client, event string, err error) {
	code := mapError(err)
	if code == "internal_error" {
		log.Error().Err(err).Str("client_id", c.id).Str("event", event).Msg("ws_request_failed")
	}
	metricErrors.Add(1)
	s.sendEvent(c, EventError, ErrorData{Code: code, Event: event})
}

// TableUpdated renders the update per viewer for everyone in the table room.
func (s *Server) TableUpdated(u table.Update) {
	s.mu.RLock()
	members := make([]*Client, 0, len(s.rooms[u.TableID]))
	for c := range s.rooms[u.TableID] {
		members = append(members, c)
	}
	s.mu.RUnlock()
	if len(members) == 0 {
		return
	}

	views := map[string][]byte{}
	render := func(address string) []byte {
		if msg, ok := views[address]; ok {
			return msg
		}
		snap, ok := u.BySeat[address]
		if !ok {
			snap = u.Public
			address = ""
			if msg, ok := views[""]; ok {
				return msg
			}
		}
		msg, err := json.Marshal(outbound{Event: EventTableInfo, Data: snap})
		if err != nil {
			log.Error().Err(err).Int("table_id", u.TableID).Msg("ws_encode_failed")
			return nil
		}
		views[address] = msg
		return msg
	}
	for _, c := range members {
		if msg := render(c.Address()); msg != nil {
			c.enqueue(msg)
		}
	}
}

func (s *Server) LobbyUpdated(tables []game.LobbyInfo) {
	msg, err := json.Marshal(outbound{Event: EventLobbyInfo, Data: tables})
	if err != nil {
		log.Error().Err(err).Msg("ws_encode_failed")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if c.Address() != "" {
			c.enqueue(msg)
		}
	}
}

// Close ends every connection.
func (s *Server) Close() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.close()
	}
}

func mapError(err error) string {
	if err == nil {
		return ""
	}
	known := []error{
		errNotJoined,
		errUnknownEvent,
		lobby.ErrInvalidData,
		lobby.ErrTableNotFound,
		lobby.ErrInsufficientChips,
		lobby.ErrAccountUnavailable,
		game.ErrSeatTaken,
		game.ErrAlreadySeated,
		game.ErrNotSeated,
		game.ErrInvalidSeat,
		game.ErrInvalidBuyIn,
		game.ErrInvalidAction,
		game.ErrNotYourTurn,
		game.ErrNotAcceptingActions,
		game.ErrRaiseBelowMin,
		game.ErrInvalidRaise,
		game.ErrInsufficientStack,
		game.ErrPotLimitExceeded,
		table.ErrTableClosed,
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "internal_error"
}
