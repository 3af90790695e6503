package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
	"github.com/blackoutassasin/NF-BOT/internal/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	email        TEXT NOT NULL,
	password     TEXT NOT NULL,
	pin          TEXT NOT NULL,
	profile_name TEXT NOT NULL DEFAULT 'Default',
	status       TEXT NOT NULL DEFAULT 'available',
	sold_to      TEXT,
	sold_at      INTEGER,
	created_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	trx_id      TEXT NOT NULL UNIQUE,
	amount      INTEGER NOT NULL,
	buyer_id    TEXT NOT NULL,
	item_id     TEXT NOT NULL REFERENCES inventory_items(id),
	recorded_at INTEGER NOT NULL
);
`

// SQLiteAdapter persists inventory and the transaction ledger in SQLite.
type SQLiteAdapter struct {
	db *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the SQLite store at path.
func Open(path string) (*SQLiteAdapter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes all access: the allocate-and-record unit of
	// work is observed as a single atomic step system-wide. Reads queue
	// behind writers too, so a stats call can briefly delay an allocation;
	// both finish in microseconds, and the simplicity beats a separate
	// reader pool.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteAdapter{db: db}, nil
}

func (s *SQLiteAdapter) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AllocateAndRecord sells the oldest available item to buyerID and records
// the payment, as one transaction. On any failure nothing is committed, so an
// out-of-stock attempt never leaves an orphaned ledger row.
func (s *SQLiteAdapter) AllocateAndRecord(ctx context.Context, buyerID, trxID string, amount int64) (*domain.InventoryItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		item     domain.InventoryItem
		soldAtMs int64
		created  int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, email, password, pin, profile_name, created_at
		FROM inventory_items WHERE status = ? ORDER BY seq LIMIT 1`,
		domain.ItemStatusAvailable,
	).Scan(&item.ID, &item.Credential.Email, &item.Credential.Password,
		&item.Credential.PIN, &item.Credential.ProfileName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOutOfStock
	}
	if err != nil {
		return nil, fmt.Errorf("select available item: %w", err)
	}

	now := time.Now().UTC()
	soldAtMs = toMillis(now)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, trx_id, amount, buyer_id, item_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), trxID, amount, buyerID, item.ID, soldAtMs,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateTransaction
	}
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET status = ?, sold_to = ?, sold_at = ?
		WHERE id = ? AND status = ?`,
		domain.ItemStatusSold, buyerID, soldAtMs, item.ID, domain.ItemStatusAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("mark item sold: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows != 1 {
		// The item we just selected inside this transaction vanished.
		return nil, fmt.Errorf("%w: item %s changed under allocation", domain.ErrStoreIntegrity, item.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit allocation: %w", err)
	}

	item.Status = domain.ItemStatusSold
	item.SoldTo = buyerID
	item.SoldAt = &now
	item.CreatedAt = fromMillis(created)
	return &item, nil
}

// AddItems inserts all valid credentials in one transaction and reports the
// invalid entries individually. A malformed line never voids the batch.
func (s *SQLiteAdapter) AddItems(ctx context.Context, batch []domain.Credential) (domain.AddReport, error) {
	var report domain.AddReport

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	nowMs := toMillis(time.Now())
	for i, cred := range batch {
		if reason := validateCredential(cred); reason != "" {
			report.Rejected = append(report.Rejected, domain.RejectedItem{Index: i, Reason: reason})
			continue
		}
		name := cred.ProfileName
		if name == "" {
			name = "Default"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_items (id, email, password, pin, profile_name, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), cred.Email, cred.Password, cred.PIN, name,
			domain.ItemStatusAvailable, nowMs,
		)
		if err != nil {
			return domain.AddReport{}, fmt.Errorf("insert item: %w", err)
		}
		report.Added++
	}

	if err := tx.Commit(); err != nil {
		return domain.AddReport{}, fmt.Errorf("commit bulk add: %w", err)
	}
	return report, nil
}

func validateCredential(cred domain.Credential) string {
	switch {
	case strings.TrimSpace(cred.Email) == "":
		return "missing email"
	case strings.TrimSpace(cred.Password) == "":
		return "missing password"
	case strings.TrimSpace(cred.PIN) == "":
		return "missing pin"
	}
	return ""
}

// HasTransaction reports whether trxID is already in the ledger.
func (s *SQLiteAdapter) HasTransaction(ctx context.Context, trxID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE trx_id = ?`, trxID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query transaction: %w", err)
	}
	return true, nil
}

// Stats returns stock and revenue counters from one read transaction, so the
// snapshot is always a state that actually existed.
func (s *SQLiteAdapter) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return stats, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END)
		FROM inventory_items`,
		domain.ItemStatusAvailable, domain.ItemStatusSold,
	).Scan(&stats.Available, &stats.Sold)
	if err != nil {
		return stats, fmt.Errorf("count items: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions`,
	).Scan(&stats.TotalRevenue)
	if err != nil {
		return stats, fmt.Errorf("sum revenue: %w", err)
	}

	return stats, tx.Commit()
}

var _ port.Store = (*SQLiteAdapter)(nil)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
