package repository

import (
	"context"

	"go-ledger/logger"
	"go-ledger/model"

	"github.com/sirupsen/logrus"
)

func (t *pgTx) AppendTransactions(ctx context.Context, transactions []*model.Transaction) error {
	query := `INSERT INTO transactions (id, account_id, amount, type, description, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`

	for _, entry := range transactions {
		_, err := t.tx.ExecContext(ctx, query,
			entry.ID, entry.AccountID, entry.Amount, string(entry.Type), entry.Description, entry.Timestamp)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"account_id": entry.AccountID,
				"type":       entry.Type,
				"amount":     entry.Amount.StringFixed(2),
			}).WithError(err).Error("Failed to execute create transaction query")
			return mapPQError(err)
		}
	}
	return nil
}
