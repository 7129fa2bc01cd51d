// Package storage implements the ledger ports on top of database/sql for the
// SQLite and PostgreSQL backends.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour and driver of a Store.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (d Dialect) rebind(q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ ledger.Store = (*Store)(nil)

// NewSQLiteStore opens (creating if needed) the database file and migrates it.
func NewSQLiteStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(SQLite, dbPath)
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string) (*Store, error) {
	return open(Postgres, dsn)
}

func open(d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if d == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

const txColumns = "id, owner, type, category, amount_cents, occurred_at, note, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx                core.Transaction
		typ               string
		occurred, cr, upd int64
	)
	if err := row.Scan(&tx.ID, &tx.Owner, &typ, &tx.Category, &tx.Amount.Cents, &occurred, &tx.Note, &cr, &upd); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = fromMicros(occurred)
	tx.CreatedAt = fromMicros(cr)
	tx.UpdatedAt = fromMicros(upd)
	return tx, nil
}

// FindTransactions implements ledger.TransactionFinder
func (s *Store) FindTransactions(ctx context.Context, owner string, f ledger.TransactionFilter) ([]core.Transaction, error) {
	q := "SELECT " + txColumns + " FROM transactions WHERE owner = ?"
	args := []any{owner}
	if f.Type != "" {
		q += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		q += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.Window != nil {
		q += " AND occurred_at >= ? AND occurred_at <= ?"
		args = append(args, toMicros(f.Window.Start), toMicros(f.Window.End))
	}
	q += " ORDER BY occurred_at, seq"

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	q := "SELECT " + txColumns + " FROM transactions WHERE owner = ? AND id = ?"
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, s.dialect.rebind(q), owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	q := "INSERT INTO transactions (" + txColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		tx.ID, tx.Owner, string(tx.Type), tx.Category, tx.Amount.Cents,
		toMicros(tx.Date), tx.Note, toMicros(tx.CreatedAt), toMicros(tx.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"dialect", s.dialect,
		"id", tx.ID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	q := `UPDATE transactions SET type = ?, category = ?, amount_cents = ?, occurred_at = ?, note = ?, updated_at = ?
		WHERE owner = ? AND id = ?`
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		string(tx.Type), tx.Category, tx.Amount.Cents, toMicros(tx.Date), tx.Note, toMicros(tx.UpdatedAt),
		tx.Owner, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM transactions WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res)
}

const budgetColumns = "id, owner, category, amount_cents, period, created_at, updated_at"

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b       core.Budget
		period  string
		cr, upd int64
	)
	if err := row.Scan(&b.ID, &b.Owner, &b.Category, &b.Amount.Cents, &period, &cr, &upd); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	b.CreatedAt = fromMicros(cr)
	b.UpdatedAt = fromMicros(upd)
	return b, nil
}

func (s *Store) GetBudget(ctx context.Context, owner, id string) (core.Budget, error) {
	q := "SELECT " + budgetColumns + " FROM budgets WHERE owner = ? AND id = ?"
	b, err := scanBudget(s.db.QueryRowContext(ctx, s.dialect.rebind(q), owner, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	q := "SELECT " + budgetColumns + " FROM budgets WHERE owner = ? ORDER BY seq"
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), owner)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) InsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	q := "INSERT INTO budgets (" + budgetColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		b.ID, b.Owner, b.Category, b.Amount.Cents, string(b.Period), toMicros(b.CreatedAt), toMicros(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	q := "UPDATE budgets SET category = ?, amount_cents = ?, period = ?, updated_at = ? WHERE owner = ? AND id = ?"
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(q),
		b.Category, b.Amount.Cents, string(b.Period), toMicros(b.UpdatedAt), b.Owner, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return affectedOne(res)
}

func (s *Store) DeleteBudget(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM budgets WHERE owner = ? AND id = ?"), owner, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
