package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Strategy selects how concurrent mutations of the same account are serialized.
type Strategy string

const (
	// StrategyPessimistic locks every touched row before reading its balance.
	StrategyPessimistic Strategy = "pessimistic"
	// StrategyOptimistic reads without locks and retries on version conflicts.
	StrategyOptimistic Strategy = "optimistic"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPessimistic:
		return StrategyPessimistic, nil
	case StrategyOptimistic:
		return StrategyOptimistic, nil
	default:
		return "", fmt.Errorf("unknown concurrency strategy %q", s)
	}
}

const amountScale = 2

// maxAmount is the smallest value the NUMERIC(19, 2) amount and balance
// columns cannot hold. Both backends enforce it here.
var maxAmount = decimal.New(1, 17)

type Options struct {
	Strategy         Strategy
	MaxRetries       int
	RetryBaseDelay   time.Duration
	// MaxRetryDelay caps a single backoff sleep.
	MaxRetryDelay    time.Duration
	OperationTimeout time.Duration
}

const defaultMaxRetryDelay = time.Second

// TransferReceipt reports both legs of a completed transfer.
type TransferReceipt struct {
	From   *model.Account     `json:"from"`
	To     *model.Account     `json:"to"`
	Debit  *model.Transaction `json:"debit"`
	Credit *model.Transaction `json:"credit"`
}

// LedgerService owns every balance mutation. It keeps no in-process locks;
// isolation comes from the store's units of work.
type LedgerService struct {
	store repository.LedgerStore
	cache *BalanceCache
	opts  Options
	now   func() time.Time
}

func NewLedgerService(store repository.LedgerStore, cache *BalanceCache, opts Options) *LedgerService {
	if opts.Strategy == "" {
		opts.Strategy = StrategyPessimistic
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = defaultMaxRetryDelay
	}
	return &LedgerService{
		store: store,
		cache: cache,
		opts:  opts,
		now:   time.Now,
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return newLedgerError(KindInvalidAmount, nil, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(amountScale)) {
		return newLedgerError(KindInvalidAmount, nil, "amount must not have more than %d decimal places", amountScale)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return newLedgerError(KindInvalidAmount, nil, "amount must be less than %s", maxAmount.String())
	}
	return nil
}

func checkBalanceLimit(accountNumber string, balance decimal.Decimal) error {
	if balance.GreaterThanOrEqual(maxAmount) {
		return newLedgerError(KindInvalidAmount, nil, "balance of account %s must stay below %s", accountNumber, maxAmount.String())
	}
	return nil
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(amountScale)
}

func (s *LedgerService) lockReads() bool {
	return s.opts.Strategy == StrategyPessimistic
}

func (s *LedgerService) isolation() repository.Isolation {
	if s.opts.Strategy == StrategyPessimistic {
		return repository.IsolationSerializable
	}
	return repository.IsolationDefault
}

func (s *LedgerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.OperationTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *LedgerService) newEntry(accountID uuid.UUID, amount decimal.Decimal, typ model.TransactionType, description string, at time.Time) *model.Transaction {
	return &model.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Amount:      amount,
		Type:        typ,
		Timestamp:   at,
		Description: description,
	}
}

// classify maps store and context failures onto ledger error kinds.
// A LedgerError raised by a unit-of-work body passes through unchanged.
func classify(err error) *LedgerError {
	var le *LedgerError
	switch {
	case errors.As(err, &le):
		return le
	case errors.Is(err, repository.ErrDuplicateKey):
		return newLedgerError(KindDuplicateAccount, err, "an account with this number already exists")
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrSerializationFailure):
		return newLedgerError(KindConflict, err, "concurrent update conflict")
	case errors.Is(err, repository.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded):
		return newLedgerError(KindTimeout, err, "operation timed out; no changes were applied")
	case errors.Is(err, context.Canceled):
		return newLedgerError(KindStorageFailure, err, "operation canceled; no changes were applied")
	default:
		return newLedgerError(KindStorageFailure, err, "storage failure; no changes were applied")
	}
}

func (s *LedgerService) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.RetryBaseDelay
	b.MaxInterval = s.opts.MaxRetryDelay
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.opts.MaxRetries)), ctx)
}

// execute runs body as a unit of work, re-running it with jittered
// exponential backoff while it fails on a concurrent update. At most
// MaxRetries extra attempts are made; after that the error is Conflict.
func (s *LedgerService) execute(ctx context.Context, log *logrus.Entry, body repository.UnitOfWork) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := s.store.RunUnitOfWork(ctx, s.isolation(), body)
		if err == nil {
			return nil
		}
		lerr := classify(err)
		if !lerr.Kind.Retryable() {
			return backoff.Permanent(lerr)
		}
		return lerr
	}
	notify := func(err error, delay time.Duration) {
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempts, "delay": delay}).
			Debug("Retrying after concurrent update conflict")
	}

	err := backoff.RetryNotify(operation, s.newBackOff(ctx), notify)
	if err == nil {
		return nil
	}

	lerr := classify(err)
	if lerr.Kind == KindConflict {
		log.WithField("attempts", attempts).Warn("Giving up after repeated concurrent update conflicts")
		return newLedgerError(KindConflict, lerr.Err, "concurrent update conflict persisted after %d attempts", attempts)
	}
	return lerr
}

func logResult(log *logrus.Entry, err error, success string) {
	if err == nil {
		log.Info(success)
		return
	}
	switch KindOf(err) {
	case KindStorageFailure:
		log.WithError(err).Error("Ledger operation failed")
	case KindConflict, KindTimeout:
		log.WithError(err).Warn("Ledger operation failed")
	default:
		log.WithError(err).Info("Ledger operation rejected")
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, ownerName, accountNumber string, initialBalance decimal.Decimal) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":       "create_account",
		"account_number":  accountNumber,
		"initial_balance": initialBalance.String(),
	})

	if strings.TrimSpace(accountNumber) == "" {
		return nil, newLedgerError(KindInvalidInput, nil, "account number is required")
	}
	if strings.TrimSpace(ownerName) == "" {
		return nil, newLedgerError(KindInvalidInput, nil, "owner name is required")
	}
	if initialBalance.IsNegative() {
		return nil, newLedgerError(KindInvalidAmount, nil, "initial balance must not be negative")
	}
	if !initialBalance.Equal(initialBalance.Round(amountScale)) {
		return nil, newLedgerError(KindInvalidAmount, nil, "initial balance must not have more than %d decimal places", amountScale)
	}
	if initialBalance.GreaterThanOrEqual(maxAmount) {
		return nil, newLedgerError(KindInvalidAmount, nil, "initial balance must be less than %s", maxAmount.String())
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	user := &model.User{ID: uuid.New(), Name: ownerName, CreatedAt: now}
	account := &model.Account{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: accountNumber,
		Balance:       initialBalance,
		CreatedAt:     now,
	}
	var initial *model.Transaction
	if initialBalance.IsPositive() {
		initial = s.newEntry(account.ID, initialBalance, model.TransactionDeposit, "Initial deposit", now)
	}

	err := s.execute(opCtx, log, func(ctx context.Context, tx repository.LedgerTx) error {
		_, err := tx.FindAccountByNumber(ctx, accountNumber, s.lockReads())
		if err == nil {
			return newLedgerError(KindDuplicateAccount, nil, "account %s already exists", accountNumber)
		}
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return err
		}
		return tx.InsertAccount(ctx, user, account, initial)
	})
	if KindOf(err) == KindDuplicateAccount {
		err = newLedgerError(KindDuplicateAccount, errors.Unwrap(err), "account %s already exists", accountNumber)
	}
	logResult(log, err, "Account created")
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, accountNumber)
	created := *account
	return &created, nil
}

// Deposit credits amount to the account and records a Deposit entry.
func (s *LedgerService) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":      "deposit",
		"account_number": accountNumber,
		"amount":         amount.String(),
	})

	if err := validateAmount(amount); err != nil {
		logResult(log, err, "")
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *model.Account
	err := s.execute(opCtx, log, func(ctx context.Context, tx repository.LedgerTx) error {
		acc, err := tx.FindAccountByNumber(ctx, accountNumber, s.lockReads())
		if errors.Is(err, repository.ErrAccountNotFound) {
			return newLedgerError(KindAccountNotFound, err, "account %s not found", accountNumber)
		}
		if err != nil {
			return err
		}

		newBalance := acc.Balance.Add(amount)
		if err := checkBalanceLimit(accountNumber, newBalance); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, acc.ID, newBalance, acc.Version); err != nil {
			return err
		}
		entry := s.newEntry(acc.ID, amount, model.TransactionDeposit, "Deposit of "+formatAmount(amount), s.now().UTC())
		if err := tx.AppendTransactions(ctx, []*model.Transaction{entry}); err != nil {
			return err
		}

		acc.Balance = newBalance
		acc.Version++
		updated = acc
		return nil
	})
	logResult(log, err, "Deposit completed")
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, accountNumber)
	return updated, nil
}

// Withdraw debits amount from the account. The balance never goes negative.
func (s *LedgerService) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":      "withdraw",
		"account_number": accountNumber,
		"amount":         amount.String(),
	})

	if err := validateAmount(amount); err != nil {
		logResult(log, err, "")
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *model.Account
	err := s.execute(opCtx, log, func(ctx context.Context, tx repository.LedgerTx) error {
		acc, err := tx.FindAccountByNumber(ctx, accountNumber, s.lockReads())
		if errors.Is(err, repository.ErrAccountNotFound) {
			return newLedgerError(KindAccountNotFound, err, "account %s not found", accountNumber)
		}
		if err != nil {
			return err
		}
		if acc.Balance.LessThan(amount) {
			return newLedgerError(KindInsufficientFunds, nil, "insufficient funds in account %s", accountNumber)
		}

		newBalance := acc.Balance.Sub(amount)
		if err := tx.UpdateAccountBalance(ctx, acc.ID, newBalance, acc.Version); err != nil {
			return err
		}
		entry := s.newEntry(acc.ID, amount, model.TransactionWithdrawal, "Withdrawal of "+formatAmount(amount), s.now().UTC())
		if err := tx.AppendTransactions(ctx, []*model.Transaction{entry}); err != nil {
			return err
		}

		acc.Balance = newBalance
		acc.Version++
		updated = acc
		return nil
	})
	logResult(log, err, "Withdrawal completed")
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, accountNumber)
	return updated, nil
}

// Transfer moves amount between two accounts atomically. Rows are locked in
// LockOrder so opposite-direction transfers cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal) (*TransferReceipt, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"operation":           "transfer",
		"from_account_number": fromNumber,
		"to_account_number":   toNumber,
		"amount":              amount.String(),
	})

	if fromNumber == toNumber {
		err := newLedgerError(KindSameAccount, nil, "source and destination accounts cannot be the same")
		logResult(log, err, "")
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		logResult(log, err, "")
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	ordered := LockOrder(fromNumber, toNumber)

	var receipt *TransferReceipt
	err := s.execute(opCtx, log, func(ctx context.Context, tx repository.LedgerTx) error {
		accounts, err := tx.FindAccountsByNumbers(ctx, ordered, s.lockReads())
		if err != nil {
			return err
		}
		byNumber := make(map[string]*model.Account, len(accounts))
		for _, acc := range accounts {
			byNumber[acc.AccountNumber] = acc
		}

		src, ok := byNumber[fromNumber]
		if !ok {
			return newLedgerError(KindAccountNotFound, repository.ErrAccountNotFound, "source account %s not found", fromNumber)
		}
		dst, ok := byNumber[toNumber]
		if !ok {
			return newLedgerError(KindAccountNotFound, repository.ErrAccountNotFound, "destination account %s not found", toNumber)
		}
		if src.Balance.LessThan(amount) {
			return newLedgerError(KindInsufficientFunds, nil, "insufficient funds in source account %s", fromNumber)
		}

		if err := checkBalanceLimit(toNumber, dst.Balance.Add(amount)); err != nil {
			return err
		}

		src.Balance = src.Balance.Sub(amount)
		dst.Balance = dst.Balance.Add(amount)
		for _, number := range ordered {
			acc := byNumber[number]
			if err := tx.UpdateAccountBalance(ctx, acc.ID, acc.Balance, acc.Version); err != nil {
				return err
			}
			acc.Version++
		}

		now := s.now().UTC()
		debit := s.newEntry(src.ID, amount, model.TransactionWithdrawal, "Transfer to "+toNumber, now)
		credit := s.newEntry(dst.ID, amount, model.TransactionDeposit, "Transfer from "+fromNumber, now)
		if err := tx.AppendTransactions(ctx, []*model.Transaction{debit, credit}); err != nil {
			return err
		}

		receipt = &TransferReceipt{From: src, To: dst, Debit: debit, Credit: credit}
		return nil
	})
	logResult(log, err, "Transfer completed")
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, fromNumber, toNumber)
	return receipt, nil
}

// GetBalance returns the last committed balance. It never takes row locks.
func (s *LedgerService) GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error) {
	if balance, ok := s.cache.Get(ctx, accountNumber); ok {
		return balance, nil
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	acc, err := s.store.FindAccountByNumber(opCtx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return decimal.Zero, newLedgerError(KindAccountNotFound, err, "account %s not found", accountNumber)
		}
		lerr := classify(err)
		logResult(logger.Log.WithFields(logrus.Fields{"operation": "get_balance", "account_number": accountNumber}), lerr, "")
		return decimal.Zero, lerr
	}

	s.cache.Set(ctx, accountNumber, acc.Balance)
	return acc.Balance, nil
}

// GetHistory returns the account's transactions ordered by timestamp.
func (s *LedgerService) GetHistory(ctx context.Context, accountNumber string) ([]*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{"operation": "get_history", "account_number": accountNumber})

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	acc, err := s.store.FindAccountByNumber(opCtx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, newLedgerError(KindAccountNotFound, err, "account %s not found", accountNumber)
		}
		lerr := classify(err)
		logResult(log, lerr, "")
		return nil, lerr
	}

	history, err := s.store.ListTransactions(opCtx, acc.ID)
	if err != nil {
		lerr := classify(err)
		logResult(log, lerr, "")
		return nil, lerr
	}
	log.WithField("count", len(history)).Debug("Fetched transaction history")
	return history, nil
}
