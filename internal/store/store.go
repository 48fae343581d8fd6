package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("not_found")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrInvalidAmount       = errors.New("invalid_amount")
)

// Ledger entry types.
const (
	EntryBuyIn   = "buy_in"
	EntryCashOut = "cash_out"
	EntryRefund  = "refund"
)

type User struct {
	Address   string    `json:"address" bson:"address"`
	Name      string    `json:"name" bson:"name"`
	Balance   int64     `json:"balance" bson:"balance"`
	AvatarURL string    `json:"avatarUrl" bson:"avatar_url"`
	CreatedAt time.Time `json:"-" bson:"created_at"`
}

type LedgerEntry struct {
	ID        string    `bson:"_id"`
	Address   string    `bson:"address"`
	Type      string    `bson:"type"`
	Amount    int64     `bson:"amount"`
	RefID     string    `bson:"ref_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Accounts is the chip balance store. Debit and Credit are atomic and record
// a ledger entry; UpdateUser only touches the profile fields.
type Accounts interface {
	EnsureUser(ctx context.Context, address string, initial int64) (User, error)
	GetUser(ctx context.Context, address string) (User, error)
	UpdateUser(ctx context.Context, u User) error
	Debit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error)
	Credit(ctx context.Context, address string, amount int64, entryType, refID string) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

func newUser(address string, initial int64) User {
	return User{Address: address, Name: address, Balance: initial, CreatedAt: time.Now().UTC()}
}
