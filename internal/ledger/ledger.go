package ledger

import (
	"context"
	"strconv"

	"poker-room/internal/store"
)

// Ledger moves chips between account balances and table stacks.
type Ledger struct {
	Accounts store.Accounts
}

func New(a store.Accounts) *Ledger {
	return &Ledger{Accounts: a}
}

func tableRef(tableID int) string {
	return "table:" + strconv.Itoa(tableID)
}

func (l *Ledger) BuyIn(ctx context.Context, address string, tableID int, amount int64) (int64, error) {
	return l.Accounts.Debit(ctx, address, amount, store.EntryBuyIn, tableRef(tableID))
}

func (l *Ledger) CashOut(ctx context.Context, address string, tableID int, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, address, amount, store.EntryCashOut, tableRef(tableID))
}

// Refund returns a buy-in whose seat claim failed.
func (l *Ledger) Refund(ctx context.Context, address string, tableID int, amount int64) (int64, error) {
	return l.Accounts.Credit(ctx, address, amount, store.EntryRefund, tableRef(tableID))
}
