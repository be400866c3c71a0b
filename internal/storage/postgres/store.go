package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	uniqueViolation   = "23505"
	numericOutOfRange = "22003"
)

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// Open creates a new Store and makes sure the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'government' CHECK (role IN ('admin', 'government')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			state TEXT UNIQUE NOT NULL,
			allocation DOUBLE PRECISION NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			actor TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			requested_type TEXT NOT NULL DEFAULT ''
		);`,
		`ALTER TABLE audit_logs ADD COLUMN IF NOT EXISTS requested_type TEXT NOT NULL DEFAULT '';`,
		`CREATE INDEX IF NOT EXISTS audit_logs_created_at_idx ON audit_logs (created_at DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS reset_requests (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password_hash, role, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByUsername fetches a user by exact username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT id, username, password_hash, role, created_at
	FROM users
	WHERE username = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// ApplyTransaction adjusts the allocation and appends the audit entry in one
// read-committed transaction. The upsert takes the row lock, so concurrent
// writers to the same state queue behind each other.
func (s *Store) ApplyTransaction(ctx context.Context, entry models.AuditEntry, delta float64) (models.Project, error) {
	var project models.Project
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO projects (state, allocation) VALUES ($1, $2)
			ON CONFLICT (state) DO UPDATE SET allocation = projects.allocation + EXCLUDED.allocation
			RETURNING id, state, allocation;`, entry.State, delta).
			Scan(&project.ID, &project.State, &project.Allocation)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
				return fmt.Errorf("update allocation for %q: %w", entry.State, storage.ErrOutOfRange)
			}
			return fmt.Errorf("update allocation: %w", err)
		}
		if math.IsInf(project.Allocation, 0) || math.IsNaN(project.Allocation) {
			return fmt.Errorf("update allocation for %q: %w", entry.State, storage.ErrOutOfRange)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO audit_logs (created_at, actor, state, type, amount, note, requested_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			entry.CreatedAt, entry.User, entry.State, string(entry.Type), entry.Amount, entry.Note, entry.RequestedType)
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

// Funds reads all allocations and the audit trail from one snapshot.
func (s *Store) Funds(ctx context.Context) (models.Funds, error) {
	funds := models.Funds{Allocations: map[string]float64{}}
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT state, allocation FROM projects ORDER BY state;`)
		if err != nil {
			return fmt.Errorf("list allocations: %w", err)
		}
		var (
			state      string
			allocation float64
		)
		_, err = pgx.ForEachRow(rows, []any{&state, &allocation}, func() error {
			funds.Allocations[state] = allocation
			return nil
		})
		if err != nil {
			return fmt.Errorf("list allocations: %w", err)
		}

		rows, err = tx.Query(ctx, `
			SELECT id, created_at, actor, state, type, amount, note, requested_type
			FROM audit_logs
			ORDER BY created_at DESC, id DESC;`)
		if err != nil {
			return fmt.Errorf("list audit log: %w", err)
		}
		funds.Logs, err = pgx.CollectRows(rows, scanAuditEntry)
		if err != nil {
			return fmt.Errorf("list audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Funds{}, err
	}
	return funds, nil
}

// ClearAuditLog deletes every audit entry.
func (s *Store) ClearAuditLog(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM audit_logs;`)
	if err != nil {
		return 0, fmt.Errorf("clear audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateResetRequest appends a reset request.
func (s *Store) CreateResetRequest(ctx context.Context, req models.ResetRequest) (models.ResetRequest, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO reset_requests (email, created_at) VALUES ($1, $2) RETURNING id;`,
		req.Email, req.CreatedAt).Scan(&req.ID)
	if err != nil {
		return models.ResetRequest{}, fmt.Errorf("insert reset request: %w", err)
	}
	return req, nil
}

// ListResetRequests returns the queue, newest first.
func (s *Store) ListResetRequests(ctx context.Context) ([]models.ResetRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, created_at FROM reset_requests ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ResetRequest, error) {
		var req models.ResetRequest
		err := row.Scan(&req.ID, &req.Email, &req.CreatedAt)
		req.CreatedAt = req.CreatedAt.UTC()
		return req, err
	})
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func scanAuditEntry(row pgx.CollectableRow) (models.AuditEntry, error) {
	var (
		e    models.AuditEntry
		kind string
	)
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.User, &e.State, &kind, &e.Amount, &e.Note, &e.RequestedType); err != nil {
		return models.AuditEntry{}, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.Type = models.TransactionType(kind)
	return e, nil
}
