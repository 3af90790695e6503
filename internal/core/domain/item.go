package domain

import "time"

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusReserved  ItemStatus = "reserved"
	ItemStatusSold      ItemStatus = "sold"
)

// Credential is the secret payload of one sellable item. It is shown to
// exactly one buyer, on delivery, and never appears in a failed outcome.
type Credential struct {
	Email       string
	Password    string
	PIN         string
	ProfileName string
}

type InventoryItem struct {
	ID         string
	Credential Credential
	Status     ItemStatus
	SoldTo     string // empty until sold
	SoldAt     *time.Time
	CreatedAt  time.Time
}
