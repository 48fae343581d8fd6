package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"poker-room/internal/game"
	"poker-room/internal/ledger"
	"poker-room/internal/store"
	"poker-room/internal/table"
)

// Notifier receives decorated table and lobby updates. Calls may come from
// table goroutines and must not block for long.
type Notifier interface {
	TableUpdated(u table.Update)
	LobbyUpdated(tables []game.LobbyInfo)
}

type Options struct {
	StartingBalance int64
	Table           table.Options
}

type CreateTableRequest struct {
	Address    string       `json:"address"`
	Name       string       `json:"name"`
	Type       game.Variant `json:"type"`
	SmallBlind int64        `json:"smallBlind"`
	BigBlind   int64        `json:"bigBlind"`
	BuyIn      int64        `json:"buyIn"`
}

type SeatRequest struct {
	Address  string `json:"address"`
	TableID  int    `json:"tableId"`
	Position int    `json:"position"`
	BuyIn    int64  `json:"buyIn"`
}

type Service struct {
	accounts store.Accounts
	ledger   *ledger.Ledger
	opts     Options

	mu     sync.Mutex
	tables map[int]*table.Table
	nextID int

	// guarded separately so table goroutines never wait on mu
	viewMu   sync.RWMutex
	lobby    map[int]game.LobbyInfo
	profiles map[string]store.User

	notifyMu  sync.RWMutex
	notifiers []Notifier

	cashouts sync.WaitGroup
}

func New(accounts store.Accounts, opts Options) *Service {
	if opts.StartingBalance <= 0 {
		opts.StartingBalance = 10000
	}
	return &Service{
		accounts: accounts,
		ledger:   ledger.New(accounts),
		opts:     opts,
		tables:   map[int]*table.Table{},
		lobby:    map[int]game.LobbyInfo{},
		profiles: map[string]store.User{},
	}
}

func (s *Service) AddNotifier(n Notifier) {
	s.notifyMu.Lock()
	s.notifiers = append(s.notifiers, n)
	s.notifyMu.Unlock()
}

func accountErr(err error) error {
	return fmt.Errorf("%w: %v", ErrAccountUnavailable, err)
}

// JoinGame returns the account of address, creating it on first contact.
func (s *Service) JoinGame(ctx context.Context, address string) (store.User, error) {
	if address == "" {
		return store.User{}, ErrInvalidData
	}
	u, err := s.accounts.EnsureUser(ctx, address, s.opts.StartingBalance)
	if err != nil {
		return store.User{}, accountErr(err)
	}
	s.rememberProfile(u)
	log.Info().Str("address", address).Int64("balance", u.Balance).Msg("user_joined")
	return u, nil
}

func (s *Service) UserInfo(ctx context.Context, address string) (store.User, error) {
	u, err := s.accounts.GetUser(ctx, address)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidData
	}
	if err != nil {
		return store.User{}, accountErr(err)
	}
	return u, nil
}

func (s *Service) CreateTable(ctx context.Context, req CreateTableRequest) (game.Snapshot, error) {
	if req.Address == "" || req.Name == "" || !req.Type.Known() ||
		req.SmallBlind <= 0 || req.BigBlind <= 0 || req.BigBlind < req.SmallBlind || req.BuyIn <= 0 {
		return game.Snapshot{}, ErrInvalidData
	}
	u, err := s.accounts.EnsureUser(ctx, req.Address, s.opts.StartingBalance)
	if err != nil {
		return game.Snapshot{}, accountErr(err)
	}
	if u.Balance < req.BuyIn || req.BuyIn < req.BigBlind*10 {
		return game.Snapshot{}, ErrInsufficientChips
	}

	opts := s.opts.Table
	opts.Listener = listener{s}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if opts.Seed != 0 {
		opts.Seed += int64(id)
	}
	tbl := table.New(id, req.Name, req.Type, req.SmallBlind, req.BigBlind, opts)
	s.tables[id] = tbl
	s.mu.Unlock()

	info, err := tbl.LobbyInfo(ctx)
	if err != nil {
		s.collapse(id)
		return game.Snapshot{}, err
	}
	s.addLobby(info)
	log.Info().Int("table_id", id).Str("name", req.Name).Str("type", string(req.Type)).
		Int64("small_blind", req.SmallBlind).Int64("big_blind", req.BigBlind).Msg("table_created")

	snap, err := s.TakeSeat(ctx, SeatRequest{Address: req.Address, TableID: id, Position: 0, BuyIn: req.BuyIn})
	if err != nil {
		s.collapse(id)
		return game.Snapshot{}, err
	}
	s.publishLobby()
	return snap, nil
}

func (s *Service) table(id int) (*table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tbl, ok := s.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return tbl, nil
}

// TakeSeat debits the buy-in before claiming the seat and refunds it when the
// claim loses a race.
func (s *Service) TakeSeat(ctx context.Context, req SeatRequest) (game.Snapshot, error) {
	if req.Address == "" || req.Position < 0 || req.Position >= game.SeatCount || req.BuyIn <= 0 {
		return game.Snapshot{}, ErrInvalidData
	}
	tbl, err := s.table(req.TableID)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := tbl.Snapshot(ctx, req.Address)
	if err != nil {
		return game.Snapshot{}, err
	}
	if snap.Players[req.Position].Address != "" {
		return game.Snapshot{}, ErrSeatTaken
	}
	for _, p := range snap.Players {
		if p.Address == req.Address {
			return game.Snapshot{}, ErrAlreadySeated
		}
	}
	if req.BuyIn < snap.MinBuyIn {
		return game.Snapshot{}, ErrInsufficientChips
	}

	u, err := s.accounts.EnsureUser(ctx, req.Address, s.opts.StartingBalance)
	if err != nil {
		return game.Snapshot{}, accountErr(err)
	}
	if u.Balance < req.BuyIn {
		return game.Snapshot{}, ErrInsufficientChips
	}
	if _, err := s.ledger.BuyIn(ctx, req.Address, req.TableID, req.BuyIn); err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			return game.Snapshot{}, ErrInsufficientChips
		}
		return game.Snapshot{}, accountErr(err)
	}
	s.rememberProfile(u)

	if err := tbl.TakeSeat(ctx, req.Address, req.Position, req.BuyIn); err != nil {
		if _, rerr := s.ledger.Refund(context.Background(), req.Address, req.TableID, req.BuyIn); rerr != nil {
			log.Error().Err(rerr).Str("address", req.Address).Int("table_id", req.TableID).
				Int64("amount", req.BuyIn).Msg("buy_in_refund_failed")
		}
		return game.Snapshot{}, err
	}
	return s.TableInfo(ctx, req.Address, req.TableID)
}

// LeaveTable disconnects address from its seat. A negative position means
// wherever address sits.
func (s *Service) LeaveTable(ctx context.Context, address string, tableID, position int) error {
	tbl, err := s.table(tableID)
	if err != nil {
		return err
	}
	pos, err := tbl.PositionOf(ctx, address)
	if err != nil {
		return err
	}
	if pos < 0 || (position >= 0 && position != pos) {
		return ErrNotSeated
	}
	remaining, err := tbl.Leave(ctx, pos)
	if err != nil {
		return err
	}
	if remaining == 0 {
		s.collapse(tableID)
	}
	return nil
}

// Disconnect leaves every table address sits at and removes tables nobody
// is playing at anymore.
func (s *Service) Disconnect(ctx context.Context, address string) {
	s.mu.Lock()
	tables := make([]*table.Table, 0, len(s.tables))
	for _, tbl := range s.tables {
		tables = append(tables, tbl)
	}
	s.mu.Unlock()

	for _, tbl := range tables {
		remaining, err := tbl.LeaveAddress(ctx, address)
		if err != nil {
			if !errors.Is(err, ErrNotSeated) && !errors.Is(err, table.ErrTableClosed) {
				log.Warn().Err(err).Int("table_id", tbl.ID()).Str("address", address).Msg("disconnect_failed")
			}
			continue
		}
		if remaining == 0 {
			s.collapse(tbl.ID())
		}
	}
}

// collapse stops a table and credits every remaining stack back.
func (s *Service) collapse(id int) {
	s.mu.Lock()
	tbl, ok := s.tables[id]
	delete(s.tables, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.viewMu.Lock()
	delete(s.lobby, id)
	s.viewMu.Unlock()

	players := tbl.Stop()
	s.cashOut(id, players)
	log.Info().Int("table_id", id).Msg("table_collapsed")
	s.publishLobby()
}

func (s *Service) cashOut(tableID int, players []game.Player) {
	for _, p := range players {
		if p.Stack <= 0 {
			continue
		}
		if _, err := s.ledger.CashOut(context.Background(), p.Address, tableID, p.Stack); err != nil {
			log.Error().Err(err).Str("address", p.Address).Int("table_id", tableID).
				Int64("amount", p.Stack).Msg("cash_out_failed")
		}
	}
}

func (s *Service) Check(ctx context.Context, address string, tableID int) error {
	return s.act(ctx, address, tableID, game.ActionCheck, 0)
}

func (s *Service) Call(ctx context.Context, address string, tableID int) error {
	return s.act(ctx, address, tableID, game.ActionCall, 0)
}

func (s *Service) Fold(ctx context.Context, address string, tableID int) error {
	return s.act(ctx, address, tableID, game.ActionFold, 0)
}

func (s *Service) Raise(ctx context.Context, address string, tableID int, amount int64) error {
	return s.act(ctx, address, tableID, game.ActionRaise, amount)
}

func (s *Service) AllIn(ctx context.Context, address string, tableID int) error {
	return s.act(ctx, address, tableID, game.ActionAllIn, 0)
}

func (s *Service) act(ctx context.Context, address string, tableID int, action game.ActionType, amount int64) error {
	if address == "" {
		return ErrInvalidData
	}
	tbl, err := s.table(tableID)
	if err != nil {
		return err
	}
	return tbl.Act(ctx, address, action, amount)
}

func (s *Service) TableInfo(ctx context.Context, address string, tableID int) (game.Snapshot, error) {
	tbl, err := s.table(tableID)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap, err := tbl.Snapshot(ctx, address)
	if err != nil {
		return game.Snapshot{}, err
	}
	s.decorate(&snap)
	return snap, nil
}

func (s *Service) LobbyInfo() []game.LobbyInfo {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	out := make([]game.LobbyInfo, 0, len(s.lobby))
	for _, info := range s.lobby {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every table and waits for pending cash-outs.
func (s *Service) Close() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.tables))
	for id := range s.tables {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.collapse(id)
	}
	s.cashouts.Wait()
}

// Flush waits for cash-outs triggered by seats cleared between hands.
func (s *Service) Flush() {
	s.cashouts.Wait()
}

func (s *Service) rememberProfile(u store.User) {
	s.viewMu.Lock()
	s.profiles[u.Address] = u
	s.viewMu.Unlock()
}

func (s *Service) decorate(snap *game.Snapshot) {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	for i := range snap.Players {
		p := &snap.Players[i]
		if p.Address == "" {
			continue
		}
		p.Name = p.Address
		if u, ok := s.profiles[p.Address]; ok {
			p.Name = u.Name
			p.AvatarURL = u.AvatarURL
		}
	}
}

// addLobby registers a freshly created table in the listing.
func (s *Service) addLobby(info game.LobbyInfo) {
	s.viewMu.Lock()
	s.lobby[info.ID] = info
	s.viewMu.Unlock()
}

// setLobby refreshes a listed table and reports whether the listing changed.
// Collapsed tables stay unlisted.
func (s *Service) setLobby(info game.LobbyInfo) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	old, ok := s.lobby[info.ID]
	if !ok {
		return false
	}
	s.lobby[info.ID] = info
	return old != info
}

func (s *Service) publishLobby() {
	tables := s.LobbyInfo()
	s.notifyMu.RLock()
	defer s.notifyMu.RUnlock()
	for _, n := range s.notifiers {
		n.LobbyUpdated(tables)
	}
}

// listener adapts table callbacks onto the service without touching mu.
type listener struct{ s *Service }

func (l listener) TableUpdated(u table.Update) {
	s := l.s
	s.decorate(&u.Public)
	for addr, snap := range u.BySeat {
		s.decorate(&snap)
		u.BySeat[addr] = snap
	}
	changed := s.setLobby(u.Lobby)

	s.notifyMu.RLock()
	for _, n := range s.notifiers {
		n.TableUpdated(u)
	}
	s.notifyMu.RUnlock()
	if changed {
		s.publishLobby()
	}
}

func (l listener) SeatsCleared(tableID int, players []game.Player) {
	s := l.s
	s.cashouts.Add(1)
	go func() {
		defer s.cashouts.Done()
		s.cashOut(tableID, players)
	}()
}
