package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerError(t *testing.T) {
	t.Run("is matches by kind", func(t *testing.T) {
		err := newLedgerError(KindInsufficientFunds, nil, "insufficient funds in account %s", "456")

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.NotErrorIs(t, err, ErrAccountNotFound)
		assert.Equal(t, "insufficient funds in account 456", err.Error())
	})

	t.Run("wrapped errors keep their kind", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := fmt.Errorf("deposit: %w", newLedgerError(KindStorageFailure, cause, "storage failure"))

		assert.Equal(t, KindStorageFailure, KindOf(err))
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, KindUnknown, KindOf(errors.New("other")))
		assert.Equal(t, KindUnknown, KindOf(nil))
	})
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "DuplicateAccount", KindDuplicateAccount.String())
	assert.Equal(t, "StorageFailure", KindStorageFailure.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
	assert.True(t, KindConflict.Retryable())
	assert.False(t, KindInsufficientFunds.Retryable())
}
