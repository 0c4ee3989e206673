// file: repository/ledger_store.go

package repository

import (
	"context"
	"errors"

	"go-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrVersionConflict      = errors.New("account version changed concurrently")
	ErrSerializationFailure = errors.New("could not serialize access due to concurrent update")
	ErrLockTimeout          = errors.New("lock wait timeout exceeded")
)

// Isolation selects the guarantee a unit of work runs under.
type Isolation int

const (
	IsolationDefault Isolation = iota
	IsolationSerializable
)

func (i Isolation) String() string {
	if i == IsolationSerializable {
		return "serializable"
	}
	return "default"
}

// UnitOfWork is the body of a unit of work. Returning an error rolls it back.
type UnitOfWork func(ctx context.Context, tx LedgerTx) error

// LedgerStore is durable keyed storage for users, accounts and transactions.
// Balances change only inside RunUnitOfWork.
type LedgerStore interface {
	// RunUnitOfWork executes body atomically: it commits when body returns nil
	// and rolls back otherwise, returning body's error unchanged.
	RunUnitOfWork(ctx context.Context, isolation Isolation, body UnitOfWork) error

	// FindAccountByNumber reads the last committed state outside any unit of work.
	FindAccountByNumber(ctx context.Context, number string) (*model.Account, error)

	// ListTransactions returns an account's entries ordered by timestamp.
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*model.Transaction, error)

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error

	Close() error
}

// LedgerTx is the view of the store inside one unit of work.
type LedgerTx interface {
	// FindAccountByNumber returns ErrAccountNotFound when no account matches.
	// With forUpdate the row stays locked until the unit of work ends.
	FindAccountByNumber(ctx context.Context, number string, forUpdate bool) (*model.Account, error)

	// FindAccountsByNumbers fetches several accounts in one round trip, in the
	// order given; with forUpdate rows are locked in that order. Missing
	// numbers are omitted from the result.
	FindAccountsByNumbers(ctx context.Context, numbers []string, forUpdate bool) ([]*model.Account, error)

	// InsertAccount stores the owner, the account and the optional initial
	// transaction. A taken account number yields ErrDuplicateKey.
	InsertAccount(ctx context.Context, user *model.User, account *model.Account, initial *model.Transaction) error

	AppendTransactions(ctx context.Context, transactions []*model.Transaction) error

	// UpdateAccountBalance writes newBalance only if the stored version still
	// equals expectedVersion, bumping the version; otherwise ErrVersionConflict.
	UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, newBalance decimal.Decimal, expectedVersion int64) error
}
