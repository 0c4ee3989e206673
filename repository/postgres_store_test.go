package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-ledger/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{"id", "user_id", "account_number", "balance", "version", "created_at"}

func newMockStore(t *testing.T, lockTimeout time.Duration) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, lockTimeout), dbMock
}

func TestPostgresStore_RunUnitOfWork(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	userID := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("commit with lock timeout", func(t *testing.T) {
		store, dbMock := newMockStore(t, 2*time.Second)

		dbMock.ExpectBegin()
		dbMock.ExpectExec(regexp.QuoteMeta(`SET LOCAL lock_timeout = '2000ms'`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectQuery(`FROM accounts WHERE account_number = \$1 FOR UPDATE`).
			WithArgs("123").
			WillReturnRows(sqlmock.NewRows(accountRowColumns).
				AddRow(accountID.String(), userID.String(), "123", "1000.00", int64(3), created))
		dbMock.ExpectExec(`UPDATE accounts SET balance = \$1, version = version \+ 1 WHERE id = \$2 AND version = \$3`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := store.RunUnitOfWork(ctx, IsolationSerializable, func(ctx context.Context, tx LedgerTx) error {
			acc, err := tx.FindAccountByNumber(ctx, "123", true)
			if err != nil {
				return err
			}
			assert.Equal(t, accountID, acc.ID)
			assert.True(t, decimal.NewFromInt(1000).Equal(acc.Balance))
			return tx.UpdateAccountBalance(ctx, acc.ID, acc.Balance.Add(decimal.NewFromInt(5)), acc.Version)
		})

		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("body error rolls back", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)
		boom := errors.New("boom")

		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		err := store.RunUnitOfWork(ctx, IsolationDefault, func(ctx context.Context, tx LedgerTx) error {
			return boom
		})

		assert.Equal(t, boom, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("serialization failure on commit", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)

		dbMock.ExpectBegin()
		dbMock.ExpectCommit().WillReturnError(&pq.Error{Code: "40001", Message: "could not serialize access"})

		err := store.RunUnitOfWork(ctx, IsolationSerializable, func(ctx context.Context, tx LedgerTx) error {
			return nil
		})

		assert.ErrorIs(t, err, ErrSerializationFailure)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("begin fails", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)
		dbMock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := store.RunUnitOfWork(ctx, IsolationDefault, func(ctx context.Context, tx LedgerTx) error {
			t.Fatal("body must not run")
			return nil
		})

		assert.ErrorContains(t, err, "could not begin transaction")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPostgresStore_FindAccountsByNumbers(t *testing.T) {
	store, dbMock := newMockStore(t, 0)
	ctx := context.Background()
	created := time.Now().UTC()

	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`WHERE account_number = ANY\(\$1::text\[\]\)\s+ORDER BY array_position\(\$1::text\[\], account_number\) FOR UPDATE`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow(uuid.NewString(), uuid.NewString(), "123", "700.00", int64(1), created).
			AddRow(uuid.NewString(), uuid.NewString(), "456", "800.00", int64(1), created))
	dbMock.ExpectCommit()

	err := store.RunUnitOfWork(ctx, IsolationSerializable, func(ctx context.Context, tx LedgerTx) error {
		accounts, err := tx.FindAccountsByNumbers(ctx, []string{"123", "456"}, true)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "123", accounts[0].AccountNumber)
		assert.Equal(t, "456", accounts[1].AccountNumber)
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAccount(t *testing.T) {
	ctx := context.Background()
	user, account := newAccount("123", 1000)
	initial := &model.Transaction{
		ID:          uuid.New(),
		AccountID:   account.ID,
		Amount:      account.Balance,
		Type:        model.TransactionDeposit,
		Timestamp:   account.CreatedAt,
		Description: "Initial deposit",
	}

	t.Run("success with initial deposit", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)

		dbMock.ExpectBegin()
		dbMock.ExpectExec(`INSERT INTO users`).
			WithArgs(sqlmock.AnyArg(), user.Name, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(`INSERT INTO accounts`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "123", sqlmock.AnyArg(), int64(0), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "Deposit", "Initial deposit", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectCommit()

		err := store.RunUnitOfWork(ctx, IsolationSerializable, func(ctx context.Context, tx LedgerTx) error {
			return tx.InsertAccount(ctx, user, account, initial)
		})

		assert.NoError(t, err)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)

		dbMock.ExpectBegin()
		dbMock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
		dbMock.ExpectExec(`INSERT INTO accounts`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
		dbMock.ExpectRollback()

		err := store.RunUnitOfWork(ctx, IsolationSerializable, func(ctx context.Context, tx LedgerTx) error {
			return tx.InsertAccount(ctx, user, account, nil)
		})

		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPostgresStore_UpdateAccountBalance(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("version conflict", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)

		dbMock.ExpectBegin()
		dbMock.ExpectExec(`UPDATE accounts SET balance`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		dbMock.ExpectRollback()

		err := store.RunUnitOfWork(ctx, IsolationDefault, func(ctx context.Context, tx LedgerTx) error {
			return tx.UpdateAccountBalance(ctx, id, decimal.NewFromInt(10), 7)
		})

		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("lock not available", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)

		dbMock.ExpectBegin()
		dbMock.ExpectExec(`UPDATE accounts SET balance`).
			WillReturnError(&pq.Error{Code: "55P03", Message: "canceling statement due to lock timeout"})
		dbMock.ExpectRollback()

		err := store.RunUnitOfWork(ctx, IsolationDefault, func(ctx context.Context, tx LedgerTx) error {
			return tx.UpdateAccountBalance(ctx, id, decimal.NewFromInt(10), 1)
		})

		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPostgresStore_ReadPath(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	t.Run("account not found", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)
		dbMock.ExpectQuery(`FROM accounts WHERE account_number = \$1`).
			WithArgs("404").
			WillReturnRows(sqlmock.NewRows(accountRowColumns))

		_, err := store.FindAccountByNumber(ctx, "404")

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("list transactions", func(t *testing.T) {
		store, dbMock := newMockStore(t, 0)
		first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		dbMock.ExpectQuery(`FROM transactions\s+WHERE account_id = \$1\s+ORDER BY occurred_at ASC`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "amount", "type", "description", "occurred_at"}).
				AddRow(uuid.NewString(), accountID.String(), "1000.00", "Deposit", "Initial deposit", first).
				AddRow(uuid.NewString(), accountID.String(), "300.00", "Withdrawal", "Transfer to 456", first.Add(time.Minute)))

		history, err := store.ListTransactions(ctx, accountID)

		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, model.TransactionDeposit, history[0].Type)
		assert.Equal(t, model.TransactionWithdrawal, history[1].Type)
		assert.True(t, decimal.NewFromInt(300).Equal(history[1].Amount))
		assert.Equal(t, "Transfer to 456", history[1].Description)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestMapPQError(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, plain, mapPQError(plain))
	assert.Nil(t, mapPQError(nil))
	assert.ErrorIs(t, mapPQError(&pq.Error{Code: "40P01"}), ErrSerializationFailure)
	assert.ErrorIs(t, mapPQError(&pq.Error{Code: "57014"}), ErrLockTimeout)

	var pqErr *pq.Error
	assert.ErrorAs(t, mapPQError(&pq.Error{Code: "23505"}), &pqErr)
}

func TestPostgresStore_Ping(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db, 0)

	dbMock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, store.Ping(context.Background()))

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
