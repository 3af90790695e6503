package domain

type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeFailed    OutcomeStatus = "failed"
)

type FailReason string

const (
	ReasonExtractionFailure    FailReason = "extraction_failure"
	ReasonUnreadable           FailReason = "unreadable"
	ReasonAmountMismatch       FailReason = "amount_mismatch"
	ReasonDuplicateTransaction FailReason = "duplicate_transaction"
	ReasonOutOfStock           FailReason = "out_of_stock"
	ReasonTooManyAttempts      FailReason = "too_many_attempts"
)

// Outcome is the buyer-facing result of one proof submission. Credential is
// set only when Status is delivered.
type Outcome struct {
	Status     OutcomeStatus
	Reason     FailReason
	Retryable  bool
	Credential *Credential
	Message    string
}
