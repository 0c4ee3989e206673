// file: repository/memory_store.go

package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var _ LedgerStore = (*MemoryStore)(nil)

// MemoryStore is an in-process LedgerStore. Units of work stage their writes
// and apply them in one step at commit; rows read forUpdate stay locked until
// the unit of work ends. Commit re-checks account number uniqueness and the
// version of every updated account, so unlocked readers get compare-and-commit
// semantics under either isolation level.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*model.User
	accounts     map[uuid.UUID]*model.Account
	byNumber     map[string]uuid.UUID
	transactions map[uuid.UUID][]*model.Transaction

	locksMu     sync.Mutex
	rowLocks    map[string]*rowLock
	lockTimeout time.Duration
}

// NewMemoryStore creates an empty store. A positive lockTimeout bounds row
// lock waits; ErrLockTimeout is returned when it elapses.
func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*model.User),
		accounts:     make(map[uuid.UUID]*model.Account),
		byNumber:     make(map[string]uuid.UUID),
		transactions: make(map[uuid.UUID][]*model.Transaction),
		rowLocks:     make(map[string]*rowLock),
		lockTimeout:  lockTimeout,
	}
}

// rowLock is the lock for one account number. refs counts holders and
// waiters; the entry is dropped once it reaches zero.
type rowLock struct {
	sem  *semaphore.Weighted
	refs int
}

func (s *MemoryStore) ref(number string) *rowLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.rowLocks[number]
	if !ok {
		l = &rowLock{sem: semaphore.NewWeighted(1)}
		s.rowLocks[number] = l
	}
	l.refs++
	return l
}

func (s *MemoryStore) unref(number string) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l := s.rowLocks[number]
	l.refs--
	if l.refs == 0 {
		delete(s.rowLocks, number)
	}
}

func (s *MemoryStore) acquire(ctx context.Context, number string) error {
	l := s.ref(number)

	waitCtx := ctx
	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		s.unref(number)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Log.WithField("account_number", number).Warn("Row lock wait timed out")
		return ErrLockTimeout
	}
	return nil
}

func (s *MemoryStore) release(number string) {
	s.locksMu.Lock()
	l := s.rowLocks[number]
	s.locksMu.Unlock()

	l.sem.Release(1)
	s.unref(number)
}

func (s *MemoryStore) RunUnitOfWork(ctx context.Context, isolation Isolation, body UnitOfWork) error {
	tx := &memTx{
		store:       s,
		heldSet:     make(map[string]bool),
		newAccounts: make(map[string]*model.Account),
		updates:     make(map[uuid.UUID]*balanceWrite),
	}
	defer tx.releaseLocks()

	if err := body(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (s *MemoryStore) FindAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	acc := *s.accounts[id]
	return &acc, nil
}

func (s *MemoryStore) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*model.Transaction, 0, len(s.transactions[accountID]))
	for _, t := range s.transactions[accountID] {
		c := *t
		list = append(list, &c)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	return list, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

type balanceWrite struct {
	balance     decimal.Decimal
	baseVersion int64
	newVersion  int64
}

// memTx stages writes until commit; reads see the staged state.
type memTx struct {
	store *MemoryStore

	held    []string
	heldSet map[string]bool

	users       []*model.User
	newAccounts map[string]*model.Account
	updates     map[uuid.UUID]*balanceWrite
	appended    []*model.Transaction
}

func (t *memTx) lock(ctx context.Context, number string) error {
	if t.heldSet[number] {
		return nil
	}
	if err := t.store.acquire(ctx, number); err != nil {
		return err
	}
	t.held = append(t.held, number)
	t.heldSet[number] = true
	return nil
}

func (t *memTx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.store.release(t.held[i])
	}
	t.held = nil
}

// view returns a copy of the account as this unit of work sees it.
func (t *memTx) view(number string) (*model.Account, bool) {
	if acc, ok := t.newAccounts[number]; ok {
		c := *acc
		return &c, true
	}

	t.store.mu.RLock()
	id, ok := t.store.byNumber[number]
	var acc model.Account
	if ok {
		acc = *t.store.accounts[id]
	}
	t.store.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if w, staged := t.updates[acc.ID]; staged {
		acc.Balance = w.balance
		acc.Version = w.newVersion
	}
	return &acc, true
}

func (t *memTx) FindAccountByNumber(ctx context.Context, number string, forUpdate bool) (*model.Account, error) {
	if forUpdate {
		if err := t.lock(ctx, number); err != nil {
			return nil, err
		}
	}

	acc, ok := t.view(number)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

func (t *memTx) FindAccountsByNumbers(ctx context.Context, numbers []string, forUpdate bool) ([]*model.Account, error) {
	accounts := make([]*model.Account, 0, len(numbers))
	for _, number := range numbers {
		if forUpdate {
			if err := t.lock(ctx, number); err != nil {
				return nil, err
			}
		}
		if acc, ok := t.view(number); ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (t *memTx) InsertAccount(ctx context.Context, user *model.User, account *model.Account, initial *model.Transaction) error {
	if _, exists := t.view(account.AccountNumber); exists {
		return fmt.Errorf("%w: account_number %q", ErrDuplicateKey, account.AccountNumber)
	}
	if account.Balance.IsNegative() {
		return errors.New("balance must not be negative")
	}

	u := *user
	a := *account
	t.users = append(t.users, &u)
	t.newAccounts[a.AccountNumber] = &a

	if initial != nil {
		return t.AppendTransactions(ctx, []*model.Transaction{initial})
	}
	return nil
}

func (t *memTx) AppendTransactions(ctx context.Context, transactions []*model.Transaction) error {
	for _, entry := range transactions {
		c := *entry
		t.appended = append(t.appended, &c)
	}
	return nil
}

func (t *memTx) UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, newBalance decimal.Decimal, expectedVersion int64) error {
	if newBalance.IsNegative() {
		return errors.New("balance must not be negative")
	}

	for _, acc := range t.newAccounts {
		if acc.ID == accountID {
			if acc.Version != expectedVersion {
				return ErrVersionConflict
			}
			acc.Balance = newBalance
			acc.Version++
			return nil
		}
	}

	if w, staged := t.updates[accountID]; staged {
		if w.newVersion != expectedVersion {
			return ErrVersionConflict
		}
		w.balance = newBalance
		w.newVersion++
		return nil
	}

	t.store.mu.RLock()
	acc, ok := t.store.accounts[accountID]
	var current int64
	if ok {
		current = acc.Version
	}
	t.store.mu.RUnlock()

	if !ok {
		return ErrAccountNotFound
	}
	if current != expectedVersion {
		return ErrVersionConflict
	}
	t.updates[accountID] = &balanceWrite{
		balance:     newBalance,
		baseVersion: current,
		newVersion:  current + 1,
	}
	return nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for number := range t.newAccounts {
		if _, taken := s.byNumber[number]; taken {
			return fmt.Errorf("%w: account_number %q", ErrDuplicateKey, number)
		}
	}
	for id, w := range t.updates {
		if s.accounts[id].Version != w.baseVersion {
			logger.Log.WithFields(logrus.Fields{
				"account_id":       id,
				"expected_version": w.baseVersion,
				"stored_version":   s.accounts[id].Version,
			}).Warn("Rejecting commit on stale account version")
			return ErrVersionConflict
		}
	}

	for _, u := range t.users {
		s.users[u.ID] = u
	}
	for number, acc := range t.newAccounts {
		s.accounts[acc.ID] = acc
		s.byNumber[number] = acc.ID
	}
	for id, w := range t.updates {
		s.accounts[id].Balance = w.balance
		s.accounts[id].Version = w.newVersion
	}
	for _, entry := range t.appended {
		s.transactions[entry.AccountID] = append(s.transactions[entry.AccountID], entry)
	}
	return nil
}
