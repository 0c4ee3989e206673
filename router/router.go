package router

import (
	"net/http"

	_ "go-ledger/docs"
	"go-ledger/handler"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter wires the ledger routes. Mutations require an operator token;
// reads are open.
func NewRouter(ledgerHandler *handler.LedgerHandler, healthHandler *handler.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	if ledgerHandler == nil {
		return mux
	}

	protected := func(fn http.HandlerFunc) http.Handler {
		return handler.AuthMiddleware(fn)
	}

	mux.Handle("POST /api/accounts", protected(handler.ErrorHandlingMiddleware(ledgerHandler.CreateAccount)))
	mux.Handle("GET /api/accounts/{accountNumber}/balance", handler.ErrorHandlingMiddleware(ledgerHandler.GetBalance))
	mux.Handle("GET /api/accounts/{accountNumber}/transactions", handler.ErrorHandlingMiddleware(ledgerHandler.GetHistory))
	mux.Handle("POST /api/accounts/{accountNumber}/deposits", protected(handler.ErrorHandlingMiddleware(ledgerHandler.Deposit)))
	mux.Handle("POST /api/accounts/{accountNumber}/withdrawals", protected(handler.ErrorHandlingMiddleware(ledgerHandler.Withdraw)))
	mux.Handle("POST /api/transfers", protected(handler.ErrorHandlingMiddleware(ledgerHandler.CreateTransfer)))

	return mux
}
