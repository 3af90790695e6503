package domain

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
	ConfidenceNone Confidence = "none"
)

// VerificationCandidate is the transient result of reading a payment
// screenshot. It is never persisted; an accepted candidate is promoted into a
// TransactionRecord by the store.
type VerificationCandidate struct {
	RawText   string
	TrxID     string // empty when no id could be located
	Amount    int64
	HasTrxID  bool
	HasAmount bool
}

// Confidence is high when both fields were located, low when one was, and
// none when the text yielded nothing usable.
func (c VerificationCandidate) Confidence() Confidence {
	switch {
	case c.HasTrxID && c.HasAmount:
		return ConfidenceHigh
	case c.HasTrxID || c.HasAmount:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
