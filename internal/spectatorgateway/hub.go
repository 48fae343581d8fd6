package spectatorgateway

import (
	"sync"

	"poker-room/internal/game"
	"poker-room/internal/table"
)

const (
	EventTableInfo  = "tableInfo"
	EventHandResult = "handResult"
	EventLobbyInfo  = "lobbyInfo"
	EventPing       = "ping"
)

// Hub keeps one public event stream per table plus one for the lobby. It
// implements lobby.Notifier.
type Hub struct {
	mu     sync.Mutex
	tables map[int]*EventBuffer
	lobby  *EventBuffer
}

func NewHub() *Hub {
	return &Hub{tables: map[int]*EventBuffer{}, lobby: NewEventBuffer(8)}
}

// Table returns the stream for tableID, creating it on first use.
func (h *Hub) Table(tableID int) *EventBuffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.tables[tableID]
	if !ok {
		buf = NewEventBuffer(0)
		h.tables[tableID] = buf
	}
	return buf
}

func (h *Hub) Lobby() *EventBuffer { return h.lobby }

func (h *Hub) TableUpdated(u table.Update) {
	buf := h.Table(u.TableID)
	buf.Append(EventTableInfo, u.Public)
	if u.Result != nil {
		buf.Append(EventHandResult, u.Result)
	}
}

// LobbyUpdated also ends the streams of tables that left the listing.
func (h *Hub) LobbyUpdated(tables []game.LobbyInfo) {
	listed := make(map[int]bool, len(tables))
	for _, t := range tables {
		listed[t.ID] = true
	}
	h.mu.Lock()
	for id, buf := range h.tables {
		if !listed[id] {
			buf.Close()
			delete(h.tables, id)
		}
	}
	h.mu.Unlock()
	h.lobby.Append(EventLobbyInfo, tables)
}
