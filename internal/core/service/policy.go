package service

import (
	"context"
	"fmt"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

// Ledger is the duplicate-use lookup consulted by the verification policy.
// The lookup is advisory: the store's write remains the final authority.
type Ledger interface {
	HasTransaction(ctx context.Context, trxID string) (bool, error)
}

// VerifyPayment decides a candidate's fate. The checks run in a fixed order:
// readability, duplicate use, amount. Duplicate is checked before amount, so
// a reused transaction id with a wrong amount reports duplicate — the
// stronger fraud signal wins.
func VerifyPayment(ctx context.Context, candidate domain.VerificationCandidate, expectedAmount int64, ledger Ledger) (domain.Verdict, error) {
	if !candidate.HasTrxID || !candidate.HasAmount {
		return domain.Verdict{Code: domain.VerdictRejectedUnreadable}, nil
	}

	used, err := ledger.HasTransaction(ctx, candidate.TrxID)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("ledger lookup: %w", err)
	}
	if used {
		return domain.Verdict{Code: domain.VerdictRejectedDuplicate}, nil
	}

	if candidate.Amount != expectedAmount {
		return domain.Verdict{Code: domain.VerdictRejectedWrongAmount}, nil
	}

	return domain.Verdict{
		Code:   domain.VerdictAccepted,
		TrxID:  candidate.TrxID,
		Amount: candidate.Amount,
	}, nil
}
