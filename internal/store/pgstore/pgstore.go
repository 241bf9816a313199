package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/tellerline/teller/internal/model"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	Timeout      time.Duration `yaml:"timeout"`
}

// DefaultConfig returns pool and timeout defaults with an empty DSN.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns: 4,
		Timeout:      5 * time.Second,
	}
}

// Store keeps the customer directory in a customers table. Unlike the CSV
// legacy schema it always stores checking and savings status separately.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS customers (
	id                       TEXT PRIMARY KEY,
	first_name               TEXT NOT NULL DEFAULT '',
	last_name                TEXT NOT NULL DEFAULT '',
	password                 TEXT NOT NULL DEFAULT '',
	checking                 NUMERIC(18,2) NOT NULL DEFAULT 0,
	savings                  NUMERIC(18,2) NOT NULL DEFAULT 0,
	checking_active          BOOLEAN NOT NULL DEFAULT TRUE,
	checking_overdraft_count INTEGER NOT NULL DEFAULT 0,
	savings_active           BOOLEAN NOT NULL DEFAULT TRUE,
	savings_overdraft_count  INTEGER NOT NULL DEFAULT 0
)`

const upsertSQL = `
INSERT INTO customers (id, first_name, last_name, password, checking, savings,
	checking_active, checking_overdraft_count, savings_active, savings_overdraft_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	last_name = EXCLUDED.last_name,
	password = EXCLUDED.password,
	checking = EXCLUDED.checking,
	savings = EXCLUDED.savings,
	checking_active = EXCLUDED.checking_active,
	checking_overdraft_count = EXCLUDED.checking_overdraft_count,
	savings_active = EXCLUDED.savings_active,
	savings_overdraft_count = EXCLUDED.savings_overdraft_count`

// Open connects, pings and creates the customers table if needed.
func Open(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres store: empty dsn")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, timeout: cfg.Timeout}

	ctx, cancel := s.context()
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating customers table: %w", err)
	}
	return s, nil
}

func (s *Store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Load reads every customer ordered by id.
func (s *Store) Load() ([]model.Customer, error) {
	ctx, cancel := s.context()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, first_name, last_name, password, checking, savings,
	checking_active, checking_overdraft_count, savings_active, savings_overdraft_count
FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(
			&c.AccountID, &c.FirstName, &c.LastName, &c.Password,
			&c.Checking.Balance, &c.Savings.Balance,
			&c.Checking.Active, &c.Checking.OverdraftCount,
			&c.Savings.Active, &c.Savings.OverdraftCount,
		); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customers: %w", err)
	}
	return customers, nil
}

// Save upserts every customer in a single transaction.
func (s *Store) Save(customers []model.Customer) error {
	ctx, cancel := s.context()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range customers {
		if _, err := stmt.ExecContext(ctx,
			c.AccountID, c.FirstName, c.LastName, c.Password,
			c.Checking.Balance, c.Savings.Balance,
			c.Checking.Active, c.Checking.OverdraftCount,
			c.Savings.Active, c.Savings.OverdraftCount,
		); err != nil {
			return fmt.Errorf("upserting customer %s: %w", c.AccountID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing customers: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
