package domain

import "errors"

var (
	// ErrOutOfStock is returned when allocation finds no available item.
	ErrOutOfStock = errors.New("out of stock")

	// ErrDuplicateTransaction is returned when a transaction id already
	// exists in the ledger. The store's write is the final authority; the
	// policy's earlier lookup is advisory only.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrStoreIntegrity signals a broken allocation invariant. It is fatal:
	// callers must surface it to an operator, never map it to a buyer-facing
	// retry message.
	ErrStoreIntegrity = errors.New("store integrity violation")

	// ErrImageUnreadable is returned by the extractor for structurally
	// invalid input (zero bytes, unknown format). Text simply not being
	// found is a normal empty result, not this error.
	ErrImageUnreadable = errors.New("image unreadable")
)
