package port

import (
	"context"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

// SessionRepository persists per-buyer state machine sessions keyed by buyer
// identity, so that a restart mid-verification resumes deterministically.
type SessionRepository interface {
	// Get returns the buyer's session, or nil when none exists.
	Get(ctx context.Context, buyerID string) (*domain.Session, error)

	// Put stores or replaces the buyer's session.
	Put(ctx context.Context, session domain.Session) error

	// Delete discards the buyer's session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, buyerID string) error
}
