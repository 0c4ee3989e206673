package repository

import (
	"context"
	"database/sql"
	"errors"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (t *pgTx) FindAccountByNumber(ctx context.Context, number string, forUpdate bool) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_number": number,
		"for_update":     forUpdate,
	})
	log.Debug("Executing query to get account by number")

	query := withLock(`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, forUpdate)
	account, err := scanAccount(t.tx.QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("Account not found")
			return nil, ErrAccountNotFound
		}
		log.WithError(err).Error("Failed to execute get account by number query")
		return nil, mapPQError(err)
	}
	return account, nil
}

// FindAccountsByNumbers locks rows in the order of numbers: the ORDER BY sits
// below the row-locking step, so PostgreSQL locks them as they come out sorted.
func (t *pgTx) FindAccountsByNumbers(ctx context.Context, numbers []string, forUpdate bool) ([]*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_numbers": numbers,
		"for_update":      forUpdate,
	})
	log.Debug("Executing query to get accounts by numbers")

	query := withLock(`SELECT `+accountColumns+` FROM accounts
		WHERE account_number = ANY($1::text[])
		ORDER BY array_position($1::text[], account_number)`, forUpdate)

	rows, err := t.tx.QueryContext(ctx, query, pq.Array(numbers))
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by numbers")
		return nil, mapPQError(err)
	}
	defer rows.Close()

	accounts := make([]*model.Account, 0, len(numbers))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, mapPQError(err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPQError(err)
	}
	return accounts, nil
}

func (t *pgTx) InsertAccount(ctx context.Context, user *model.User, account *model.Account, initial *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        user.ID,
		"account_number": account.AccountNumber,
		"balance":        account.Balance.StringFixed(2),
	})
	log.Info("Executing query to create a new account")

	userQuery := `INSERT INTO users (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := t.tx.ExecContext(ctx, userQuery, user.ID, user.Name, user.CreatedAt); err != nil {
		log.WithError(err).Error("Failed to execute create user query")
		return mapPQError(err)
	}

	accountQuery := `INSERT INTO accounts (id, user_id, account_number, balance, version, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.tx.ExecContext(ctx, accountQuery,
		account.ID, account.UserID, account.AccountNumber, account.Balance, account.Version, account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return mapPQError(err)
	}

	if initial == nil {
		return nil
	}
	return t.AppendTransactions(ctx, []*model.Transaction{initial})
}

func (t *pgTx) UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, newBalance decimal.Decimal, expectedVersion int64) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":       accountID,
		"new_balance":      newBalance.StringFixed(2),
		"expected_version": expectedVersion,
	})
	log.Debug("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1, version = version + 1 WHERE id = $2 AND version = $3`
	res, err := t.tx.ExecContext(ctx, query, newBalance, accountID, expectedVersion)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return mapPQError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn("Account version changed since it was read")
		return ErrVersionConflict
	}
	return nil
}
