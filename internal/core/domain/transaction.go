package domain

import "time"

// TransactionRecord is one accepted payment in the ledger. TrxID is unique
// across all records; a reused id is rejected no matter the buyer or amount.
type TransactionRecord struct {
	ID         string
	TrxID      string
	Amount     int64
	BuyerID    string
	ItemID     string
	RecordedAt time.Time
}

// Stats is a read-only inventory snapshot.
type Stats struct {
	Available    int
	Sold         int
	TotalRevenue int64
}

// RejectedItem reports one bulk-add entry that failed validation.
type RejectedItem struct {
	Index  int
	Reason string
}

// AddReport is the result of a bulk add: all valid entries commit together,
// invalid ones are reported individually.
type AddReport struct {
	Added    int
	Rejected []RejectedItem
}
