package domain

type VerdictCode string

const (
	VerdictAccepted            VerdictCode = "accepted"
	VerdictRejectedUnreadable  VerdictCode = "rejected_unreadable"
	VerdictRejectedDuplicate   VerdictCode = "rejected_duplicate_transaction"
	VerdictRejectedWrongAmount VerdictCode = "rejected_amount_mismatch"
)

// Verdict is the Verification Policy's decision for one candidate. TrxID and
// Amount are set only on acceptance.
type Verdict struct {
	Code   VerdictCode
	TrxID  string
	Amount int64
}

func (v Verdict) Accepted() bool { return v.Code == VerdictAccepted }
