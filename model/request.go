// file: model/request.go

package model

import "github.com/shopspring/decimal"

// CreateAccountRequest defines the payload for opening an account.
type CreateAccountRequest struct {
	OwnerName      string          `json:"owner_name" validate:"required,max=100"`
	AccountNumber  string          `json:"account_number" validate:"required,max=34"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// AmountRequest is the body of deposit and withdrawal calls.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest moves Amount from one account number to another.
type TransferRequest struct {
	FromAccountNumber string          `json:"from_account_number" validate:"required,max=34"`
	ToAccountNumber   string          `json:"to_account_number" validate:"required,max=34"`
	Amount            decimal.Decimal `json:"amount"`
}

// BalanceResponse is returned by the balance query.
type BalanceResponse struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
}
