package domain

import "time"

type SessionState string

const (
	SessionIdle          SessionState = "idle"
	SessionAwaitingProof SessionState = "awaiting_proof"
	SessionVerifying     SessionState = "verifying"
)

// Session is the persisted per-buyer state of the dispensing state machine.
// Terminal outcomes (delivered, failed) end the session rather than being
// stored, so a fresh purchase always starts from idle.
type Session struct {
	BuyerID   string       `json:"buyer_id"`
	State     SessionState `json:"state"`
	Attempts  int          `json:"attempts"`
	UpdatedAt time.Time    `json:"updated_at"`
}
