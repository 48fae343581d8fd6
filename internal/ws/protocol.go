package ws

import "encoding/json"

// Requests accepted from clients.
const (
	ActionJoinGame    = "joinGame"
	ActionCreateTable = "createTable"
	ActionTakeSeat    = "takeSeat"
	ActionLeaveTable  = "leaveTable"
	ActionCheck       = "check"
	ActionCall        = "call"
	ActionRaise       = "raise"
	ActionFold        = "fold"
	ActionAllIn       = "allIn"
	ActionTableInfo   = "tableInfo"
	ActionLobbyInfo   = "lobbyInfo"
)

// Events pushed to clients.
const (
	EventUserInfo  = "userInfo"
	EventLobbyInfo = "lobbyInfo"
	EventTableInfo = "tableInfo"
	EventError     = "error"
	EventPing      = "ping"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type JoinGameData struct {
	Address string `json:"address"`
}

type CreateTableData struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	SmallBlind int64  `json:"smallBlind"`
	BigBlind   int64  `json:"bigBlind"`
	BuyIn      int64  `json:"buyIn"`
}

type TakeSeatData struct {
	ID       int   `json:"id"`
	Position int   `json:"position"`
	BuyIn    int64 `json:"buyIn"`
}

type LeaveTableData struct {
	ID       int  `json:"id"`
	Position *int `json:"position,omitempty"`
}

// ActionData carries check, call, raise, fold and allIn. Amount is read for
// raise only.
type ActionData struct {
	ID     int   `json:"id"`
	Amount int64 `json:"amount"`
}

type TableInfoData struct {
	ID int `json:"id"`
}

type ErrorData struct {
	Code  string `json:"code"`
	Event string `json:"event,omitempty"`
}

type PingData struct {
	ClientID string `json:"clientId"`
}
