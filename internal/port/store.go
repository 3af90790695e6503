package port

import (
	"context"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

// Store owns inventory and ledger state. It is the single serialization point
// for allocation: concurrent AllocateAndRecord calls are linearized so that no
// item is ever sold twice and no transaction id is ever recorded twice.
type Store interface {
	// AllocateAndRecord atomically picks the oldest available item, marks it
	// sold to the buyer, and inserts the ledger record linking the two.
	// Fails with domain.ErrOutOfStock when nothing is available and with
	// domain.ErrDuplicateTransaction when trxID is already in the ledger;
	// in both cases no partial state is left behind.
	AllocateAndRecord(ctx context.Context, buyerID, trxID string, amount int64) (*domain.InventoryItem, error)

	// AddItems bulk-inserts credentials in available status. All valid
	// entries commit in one transaction; invalid entries are reported
	// individually in the returned report.
	AddItems(ctx context.Context, batch []domain.Credential) (domain.AddReport, error)

	// HasTransaction reports whether trxID already exists in the ledger.
	// Advisory: the AllocateAndRecord write remains the final authority.
	HasTransaction(ctx context.Context, trxID string) (bool, error)

	// Stats returns a read-only snapshot of stock and revenue counters.
	Stats(ctx context.Context) (domain.Stats, error)
}
