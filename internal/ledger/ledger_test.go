package ledger

import (
	"context"
	"testing"

	"poker-room/internal/store"
)

func TestBuyInAndCashOutRecordEntries(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	if _, err := mem.EnsureUser(ctx, "0xa", 5000); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	l := New(mem)

	if bal, err := l.BuyIn(ctx, "0xa", 3, 2000); err != nil || bal != 3000 {
		t.Fatalf("buy in: bal=%d err=%v", bal, err)
	}
	if bal, err := l.CashOut(ctx, "0xa", 3, 2500); err != nil || bal != 5500 {
		t.Fatalf("cash out: bal=%d err=%v", bal, err)
	}
	entries := mem.Entries("0xa")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Type != store.EntryBuyIn || entries[0].Amount != -2000 || entries[0].RefID != "table:3" {
		t.Fatalf("unexpected buy-in entry %+v", entries[0])
	}
	if entries[1].Type != store.EntryCashOut || entries[1].Amount != 2500 {
		t.Fatalf("unexpected cash-out entry %+v", entries[1])
	}
}
