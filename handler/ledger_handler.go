package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go-ledger/common"
	"go-ledger/logger"
	"go-ledger/model"
	"go-ledger/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Ledger is the set of ledger operations exposed over HTTP.
type Ledger interface {
	CreateAccount(ctx context.Context, ownerName, accountNumber string, initialBalance decimal.Decimal) (*model.Account, error)
	Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*model.Account, error)
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*model.Account, error)
	Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal) (*service.TransferReceipt, error)
	GetBalance(ctx context.Context, accountNumber string) (decimal.Decimal, error)
	GetHistory(ctx context.Context, accountNumber string) ([]*model.Transaction, error)
}

type LedgerHandler struct {
	ledger Ledger
}

func NewLedgerHandler(ledger Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response body")
	}
}

func requestLog(r *http.Request) *logrus.Entry {
	subject, _ := r.Context().Value(SubjectKey).(string)
	return logger.Log.WithFields(logrus.Fields{
		"method":  r.Method,
		"path":    r.URL.Path,
		"subject": subject,
	})
}

// CreateAccount godoc
// @Summary      Open an account
// @Description  Creates an account owned by a new user, optionally funded with an initial deposit.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        account body model.CreateAccountRequest true "Owner, account number and initial balance"
// @Success      201  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid input or amount"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      409  {object}  common.AppError "Account number already exists"
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts [post]
func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	requestLog(r).WithField("account_number", req.AccountNumber).Info("Create account request received")

	account, err := h.ledger.CreateAccount(r.Context(), req.OwnerName, req.AccountNumber, req.InitialBalance)
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusCreated, account)
	return nil
}

// GetBalance godoc
// @Summary      Get account balance
// @Tags         accounts
// @Produce      json
// @Param        accountNumber path string true "Account number"
// @Success      200  {object}  model.BalanceResponse
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountNumber}/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	number := r.PathValue("accountNumber")

	balance, err := h.ledger.GetBalance(r.Context(), number)
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusOK, model.BalanceResponse{AccountNumber: number, Balance: balance})
	return nil
}

// GetHistory godoc
// @Summary      List account transactions
// @Description  Returns every transaction of the account ordered by timestamp.
// @Tags         accounts
// @Produce      json
// @Param        accountNumber path string true "Account number"
// @Success      200  {array}   model.Transaction
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      500  {object}  common.AppError
// @Router       /api/accounts/{accountNumber}/transactions [get]
func (h *LedgerHandler) GetHistory(w http.ResponseWriter, r *http.Request) *common.AppError {
	history, err := h.ledger.GetHistory(r.Context(), r.PathValue("accountNumber"))
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusOK, history)
	return nil
}

// Deposit godoc
// @Summary      Deposit money
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountNumber path string true "Account number"
// @Param        deposit body model.AmountRequest true "Amount to deposit"
// @Success      200  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid amount"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      409  {object}  common.AppError "Concurrent update conflict"
// @Failure      504  {object}  common.AppError "Timed out"
// @Router       /api/accounts/{accountNumber}/deposits [post]
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.AmountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	number := r.PathValue("accountNumber")
	requestLog(r).WithFields(logrus.Fields{"account_number": number, "amount": req.Amount.String()}).Info("Deposit request received")

	account, err := h.ledger.Deposit(r.Context(), number, req.Amount)
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusOK, account)
	return nil
}

// Withdraw godoc
// @Summary      Withdraw money
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountNumber path string true "Account number"
// @Param        withdrawal body model.AmountRequest true "Amount to withdraw"
// @Success      200  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid amount or insufficient funds"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      409  {object}  common.AppError "Concurrent update conflict"
// @Failure      504  {object}  common.AppError "Timed out"
// @Router       /api/accounts/{accountNumber}/withdrawals [post]
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.AmountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	number := r.PathValue("accountNumber")
	requestLog(r).WithFields(logrus.Fields{"account_number": number, "amount": req.Amount.String()}).Info("Withdrawal request received")

	account, err := h.ledger.Withdraw(r.Context(), number, req.Amount)
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusOK, account)
	return nil
}

// CreateTransfer godoc
// @Summary      Transfer money between accounts
// @Description  Moves an amount from one account to another in a single atomic step.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Details of the transfer"
// @Success      201  {object}  service.TransferReceipt
// @Failure      400  {object}  common.AppError "Same account, invalid amount or insufficient funds"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      404  {object}  common.AppError "Source or destination account not found"
// @Failure      409  {object}  common.AppError "Concurrent update conflict"
// @Failure      504  {object}  common.AppError "Timed out"
// @Router       /api/transfers [post]
func (h *LedgerHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	requestLog(r).WithFields(logrus.Fields{
		"from_account_number": req.FromAccountNumber,
		"to_account_number":   req.ToAccountNumber,
		"amount":              req.Amount.String(),
	}).Info("Transfer request received")

	receipt, err := h.ledger.Transfer(r.Context(), req.FromAccountNumber, req.ToAccountNumber, req.Amount)
	if err != nil {
		return ledgerError(err)
	}

	writeJSON(w, http.StatusCreated, receipt)
	return nil
}
