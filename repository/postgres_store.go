// file: repository/postgres_store.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var _ LedgerStore = (*PostgresStore)(nil)

// PostgreSQL error codes the ledger reacts to.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqQueryCanceled        = "57014"
)

const accountColumns = `id, user_id, account_number, balance, version, created_at`

// PostgresStore implements LedgerStore on a PostgreSQL database.
type PostgresStore struct {
	DB          *sql.DB
	lockTimeout time.Duration
}

// NewPostgresStore creates a store. A positive lockTimeout bounds how long a
// unit of work waits for a row lock before failing with ErrLockTimeout.
func NewPostgresStore(db *sql.DB, lockTimeout time.Duration) *PostgresStore {
	return &PostgresStore{DB: db, lockTimeout: lockTimeout}
}

func (s *PostgresStore) RunUnitOfWork(ctx context.Context, isolation Isolation, body UnitOfWork) error {
	opts := &sql.TxOptions{}
	if isolation == IsolationSerializable {
		opts.Isolation = sql.LevelSerializable
	}

	tx, err := s.DB.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", mapPQError(err))
	}
	defer tx.Rollback()

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not set lock timeout: %w", mapPQError(err))
		}
	}

	if err := body(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Log.WithError(err).WithField("isolation", isolation.String()).Error("Failed to commit unit of work")
		return fmt.Errorf("could not commit transaction: %w", mapPQError(err))
	}
	return nil
}

// FindAccountByNumber reads outside a transaction; it never blocks on row locks.
func (s *PostgresStore) FindAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	account, err := scanAccount(s.DB.QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		logger.Log.WithError(err).WithField("account_number", number).Error("Failed to execute find account query")
		return nil, mapPQError(err)
	}
	return account, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Debug("Executing query to list transactions by account ID")

	query := `
		SELECT id, account_id, amount, type, description, occurred_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY occurred_at ASC, id ASC`

	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, mapPQError(err)
	}
	defer rows.Close()

	transactions := []*model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		logger.Log.WithError(err).Warn("Database ping failed")
		return err
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// pgTx is the LedgerTx handed to a unit-of-work body.
type pgTx struct {
	tx *sql.Tx
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.Balance, &a.Version, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var t model.Transaction
	if err := row.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.Description, &t.Timestamp); err != nil {
		return nil, err
	}
	return &t, nil
}

// mapPQError translates driver errors into the store's sentinel errors while
// keeping the original error in the chain.
func mapPQError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case pqSerializationFailure, pqDeadlockDetected:
		return fmt.Errorf("%w: %w", ErrSerializationFailure, err)
	case pqLockNotAvailable, pqQueryCanceled:
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	default:
		return err
	}
}

func withLock(query string, forUpdate bool) string {
	if forUpdate {
		return query + ` FOR UPDATE`
	}
	return query
}
