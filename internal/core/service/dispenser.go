package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
	"github.com/blackoutassasin/NF-BOT/internal/port"
)

var (
	ErrNoActiveSession = errors.New("no active purchase session")
	ErrProofInFlight   = errors.New("a proof is already being verified")
)

// PaymentInstructions is what the buyer sees after starting a purchase.
type PaymentInstructions struct {
	Price       int64
	BkashNumber string
	NagadNumber string
}

// DispenseConfig carries the orchestrator's tunables. MaxAttempts of zero
// leaves the retry loop uncapped.
type DispenseConfig struct {
	ExpectedAmount int64
	BkashNumber    string
	NagadNumber    string
	OCRTimeout     time.Duration
	MaxAttempts    int
}

// DispenseService drives one buyer through awaiting-proof, verifying, and a
// terminal delivered or failed outcome. Session state lives in the session
// repository keyed by buyer identity, so concurrent buyers never share state
// and a restart resumes each buyer deterministically.
type DispenseService struct {
	store     port.Store
	sessions  port.SessionRepository
	extractor port.TextExtractor
	cfg       DispenseConfig
	logger    *slog.Logger
}

func NewDispenseService(store port.Store, sessions port.SessionRepository, extractor port.TextExtractor, cfg DispenseConfig, logger *slog.Logger) *DispenseService {
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DispenseService{
		store:     store,
		sessions:  sessions,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
	}
}

// StartPurchase opens a buyer session and returns payment instructions.
// Refused up front when nothing is in stock.
func (s *DispenseService) StartPurchase(ctx context.Context, buyerID string) (PaymentInstructions, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return PaymentInstructions{}, fmt.Errorf("stats: %w", err)
	}
	if stats.Available == 0 {
		return PaymentInstructions{}, domain.ErrOutOfStock
	}

	err = s.sessions.Put(ctx, domain.Session{
		BuyerID:   buyerID,
		State:     domain.SessionAwaitingProof,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return PaymentInstructions{}, fmt.Errorf("open session: %w", err)
	}

	return PaymentInstructions{
		Price:       s.cfg.ExpectedAmount,
		BkashNumber: s.cfg.BkashNumber,
		NagadNumber: s.cfg.NagadNumber,
	}, nil
}

// SubmitProof runs one screenshot through extraction, parsing, policy, and,
// on acceptance, the store's atomic allocation. Acceptance by the policy is
// provisional: the store can still answer out-of-stock or duplicate.
func (s *DispenseService) SubmitProof(ctx context.Context, buyerID string, image []byte) (domain.Outcome, error) {
	session, err := s.sessions.Get(ctx, buyerID)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return domain.Outcome{}, ErrNoActiveSession
	}
	switch session.State {
	case domain.SessionAwaitingProof:
	case domain.SessionVerifying:
		// A verifying session older than the OCR deadline belongs to a
		// crashed or failed run. Let the buyer resubmit instead of holding
		// them out until the session expires.
		if time.Since(session.UpdatedAt) <= s.cfg.OCRTimeout {
			return domain.Outcome{}, ErrProofInFlight
		}
	default:
		return domain.Outcome{}, ErrNoActiveSession
	}

	session.State = domain.SessionVerifying
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Put(ctx, *session); err != nil {
		return domain.Outcome{}, fmt.Errorf("save session: %w", err)
	}

	text, err := s.extractText(ctx, image)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImageUnreadable):
			return s.fail(ctx, session, domain.ReasonExtractionFailure, true,
				"Could not read the image. Please send a clear screenshot.")
		case errors.Is(err, context.DeadlineExceeded):
			// A hung OCR engine is treated as unreadable, not fatal.
			return s.fail(ctx, session, domain.ReasonUnreadable, true,
				"Reading the screenshot took too long. Please try again.")
		default:
			s.release(ctx, session)
			return domain.Outcome{}, fmt.Errorf("extract text: %w", err)
		}
	}

	candidate := ParseReceipt(text, s.cfg.ExpectedAmount)
	verdict, err := VerifyPayment(ctx, candidate, s.cfg.ExpectedAmount, s.store)
	if err != nil {
		s.release(ctx, session)
		return domain.Outcome{}, err
	}

	if !verdict.Accepted() {
		switch verdict.Code {
		case domain.VerdictRejectedUnreadable:
			return s.fail(ctx, session, domain.ReasonUnreadable, true,
				"Could not find a transaction id and amount in the screenshot. Please send a clearer one.")
		case domain.VerdictRejectedDuplicate:
			return s.fail(ctx, session, domain.ReasonDuplicateTransaction, true,
				"This transaction id was already used. Please pay again and send the new receipt.")
		default:
			return s.fail(ctx, session, domain.ReasonAmountMismatch, true,
				fmt.Sprintf("The amount does not match the price (%d TK). Please send the correct receipt.", s.cfg.ExpectedAmount))
		}
	}

	item, err := s.store.AllocateAndRecord(ctx, buyerID, verdict.TrxID, verdict.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOutOfStock):
			return s.fail(ctx, session, domain.ReasonOutOfStock, false,
				"Sold out. Your payment was not consumed; contact the admin.")
		case errors.Is(err, domain.ErrDuplicateTransaction):
			// Lost the check-then-act race: another submission recorded
			// this id between the policy check and the write.
			return s.fail(ctx, session, domain.ReasonDuplicateTransaction, true,
				"This transaction id was already used. Please pay again and send the new receipt.")
		default:
			// Integrity violations are operator territory, never mapped
			// to a buyer-facing retry.
			s.logger.Error("allocation failed",
				slog.String("buyer_id", buyerID),
				slog.String("trx_id", verdict.TrxID),
				slog.Any("error", err))
			s.release(ctx, session)
			return domain.Outcome{}, err
		}
	}

	if err := s.sessions.Delete(ctx, buyerID); err != nil {
		s.logger.Error("session cleanup after delivery failed",
			slog.String("buyer_id", buyerID), slog.Any("error", err))
	}

	s.logger.Info("item delivered",
		slog.String("buyer_id", buyerID),
		slog.String("item_id", item.ID),
		slog.String("trx_id", verdict.TrxID))

	credential := item.Credential
	return domain.Outcome{
		Status:     domain.OutcomeDelivered,
		Credential: &credential,
		Message:    "Payment verified. Here are your credentials.",
	}, nil
}

// Cancel discards the buyer's session in any state. In-flight verification is
// abandoned without side effects: allocation either never started or already
// ran to completion atomically.
func (s *DispenseService) Cancel(ctx context.Context, buyerID string) error {
	return s.sessions.Delete(ctx, buyerID)
}

// AddItems and Stats expose the store to the operator-facing boundary.
func (s *DispenseService) AddItems(ctx context.Context, batch []domain.Credential) (domain.AddReport, error) {
	return s.store.AddItems(ctx, batch)
}

func (s *DispenseService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.store.Stats(ctx)
}

// release returns a verifying session to awaiting-proof after an internal
// failure so the buyer can resubmit once the dependency recovers. Best
// effort: if the save fails too, the stale-verifying check on entry still
// unblocks the buyer after the OCR deadline passes.
func (s *DispenseService) release(ctx context.Context, session *domain.Session) {
	session.State = domain.SessionAwaitingProof
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Put(ctx, *session); err != nil {
		s.logger.Error("session release failed",
			slog.String("buyer_id", session.BuyerID), slog.Any("error", err))
	}
}

func (s *DispenseService) extractText(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OCRTimeout)
	defer cancel()
	return s.extractor.ExtractText(ctx, image)
}

// fail records one failed attempt. Retryable failures return the session to
// awaiting-proof until the attempt cap (when configured) is reached; terminal
// ones end the session. No failure ever carries a credential.
func (s *DispenseService) fail(ctx context.Context, session *domain.Session, reason domain.FailReason, retryable bool, message string) (domain.Outcome, error) {
	session.Attempts++

	if retryable && s.cfg.MaxAttempts > 0 && session.Attempts >= s.cfg.MaxAttempts {
		retryable = false
		reason = domain.ReasonTooManyAttempts
		message = "Too many failed attempts. Start over or contact the admin."
	}

	if retryable {
		session.State = domain.SessionAwaitingProof
		session.UpdatedAt = time.Now().UTC()
		if err := s.sessions.Put(ctx, *session); err != nil {
			return domain.Outcome{}, fmt.Errorf("save session: %w", err)
		}
	} else {
		if err := s.sessions.Delete(ctx, session.BuyerID); err != nil {
			return domain.Outcome{}, fmt.Errorf("end session: %w", err)
		}
	}

	s.logger.Info("proof rejected",
		slog.String("buyer_id", session.BuyerID),
		slog.String("reason", string(reason)),
		slog.Bool("retryable", retryable),
		slog.Int("attempts", session.Attempts))

	return domain.Outcome{
		Status:    domain.OutcomeFailed,
		Reason:    reason,
		Retryable: retryable,
		Message:   message,
	}, nil
}
