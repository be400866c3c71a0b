// Package sqlite is the default single-file storage backend, built on the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nhm-india/fund-tracker/internal/dbx"
	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence for every table.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and creates the schema if needed.
// The pool is limited to one connection, so writers are serialized by
// database/sql rather than failing with SQLITE_BUSY.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := New(db)
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened handle without touching the schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases database resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'government' CHECK (role IN ('admin', 'government')),
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			state TEXT NOT NULL UNIQUE,
			allocation REAL NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			requested_type TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS reset_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	// Files created before requested_type existed get the column added in place.
	var hasRequestedType int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('audit_logs') WHERE name = 'requested_type'`).Scan(&hasRequestedType)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if hasRequestedType == 0 {
		if _, err := s.db.ExecContext(ctx,
			`ALTER TABLE audit_logs ADD COLUMN requested_type TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("upgrade schema: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.Role, user.CreatedAt.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindByUsername fetches a user by exact username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var (
		user    models.User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = fromNanos(created)
	return user, nil
}

// ApplyTransaction adjusts the allocation and appends the audit entry in one transaction.
func (s *Store) ApplyTransaction(ctx context.Context, entry models.AuditEntry, delta float64) (models.Project, error) {
	var project models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO projects (state, allocation) VALUES (?, ?)
			ON CONFLICT (state) DO UPDATE SET allocation = allocation + excluded.allocation
			RETURNING id, state, allocation`, entry.State, delta).
			Scan(&project.ID, &project.State, &project.Allocation)
		if err != nil {
			return fmt.Errorf("update allocation: %w", err)
		}
		if math.IsInf(project.Allocation, 0) || math.IsNaN(project.Allocation) {
			return fmt.Errorf("update allocation for %q: %w", entry.State, storage.ErrOutOfRange)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_logs (created_at, actor, state, type, amount, note, requested_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.CreatedAt.UnixNano(), entry.User, entry.State, string(entry.Type), entry.Amount, entry.Note, entry.RequestedType)
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}
	return project, nil
}

// Funds reads all allocations and the audit trail in a single transaction.
func (s *Store) Funds(ctx context.Context) (models.Funds, error) {
	funds := models.Funds{Allocations: map[string]float64{}}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if funds.Allocations, err = listAllocations(ctx, tx); err != nil {
			return err
		}
		funds.Logs, err = listAuditLog(ctx, tx)
		return err
	})
	if err != nil {
		return models.Funds{}, err
	}
	return funds, nil
}

// ClearAuditLog deletes every audit entry.
func (s *Store) ClearAuditLog(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_logs`)
	if err != nil {
		return 0, fmt.Errorf("clear audit log: %w", err)
	}
	return res.RowsAffected()
}

// CreateResetRequest appends a reset request.
func (s *Store) CreateResetRequest(ctx context.Context, req models.ResetRequest) (models.ResetRequest, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reset_requests (email, created_at) VALUES (?, ?)`, req.Email, req.CreatedAt.UnixNano())
	if err != nil {
		return models.ResetRequest{}, fmt.Errorf("insert reset request: %w", err)
	}
	if req.ID, err = res.LastInsertId(); err != nil {
		return models.ResetRequest{}, fmt.Errorf("insert reset request: %w", err)
	}
	return req, nil
}

// ListResetRequests returns the queue, newest first.
func (s *Store) ListResetRequests(ctx context.Context) ([]models.ResetRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, created_at FROM reset_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	defer rows.Close()

	var out []models.ResetRequest
	for rows.Next() {
		var (
			req     models.ResetRequest
			created int64
		)
		if err := rows.Scan(&req.ID, &req.Email, &created); err != nil {
			return nil, err
		}
		req.CreatedAt = fromNanos(created)
		out = append(out, req)
	}
	return out, rows.Err()
}

func listAllocations(ctx context.Context, q dbx.DBTX) (map[string]float64, error) {
	rows, err := q.QueryContext(ctx, `SELECT state, allocation FROM projects ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var (
			state      string
			allocation float64
		)
		if err := rows.Scan(&state, &allocation); err != nil {
			return nil, err
		}
		out[state] = allocation
	}
	return out, rows.Err()
}

func listAuditLog(ctx context.Context, q dbx.DBTX) ([]models.AuditEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, created_at, actor, state, type, amount, note, requested_type
		FROM audit_logs
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e       models.AuditEntry
			created int64
			kind    string
		)
		if err := rows.Scan(&e.ID, &created, &e.User, &e.State, &kind, &e.Amount, &e.Note, &e.RequestedType); err != nil {
			return nil, err
		}
		e.CreatedAt = fromNanos(created)
		e.Type = models.TransactionType(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
