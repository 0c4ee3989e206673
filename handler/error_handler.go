package handler

import (
	"net/http"

	"go-ledger/common"
	"go-ledger/service"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

var kindStatus = map[service.ErrorKind]int{
	service.KindDuplicateAccount:  http.StatusConflict,
	service.KindAccountNotFound:   http.StatusNotFound,
	service.KindInvalidAmount:     http.StatusBadRequest,
	service.KindSameAccount:       http.StatusBadRequest,
	service.KindInvalidInput:      http.StatusBadRequest,
	service.KindInsufficientFunds: http.StatusBadRequest,
	service.KindConflict:          http.StatusConflict,
	service.KindTimeout:           http.StatusGatewayTimeout,
	service.KindStorageFailure:    http.StatusInternalServerError,
}

// ledgerError converts a service error into the response sent to clients.
// Storage failures keep their cause out of the response body.
func ledgerError(err error) *common.AppError {
	kind := service.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}

	message := err.Error()
	if kind == service.KindStorageFailure {
		message = "Could not process the request; no changes were applied"
	}
	return common.NewAppError(status, message, err).WithKind(kind.String())
}
