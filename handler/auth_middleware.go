package handler

import (
	"context"
	"net/http"
	"strings"

	"go-ledger/common"
	"go-ledger/model"
	"go-ledger/service"
)

type contextKey string

const (
	SubjectKey  contextKey = "subject"
	UserRoleKey contextKey = "userRole"
)

// AuthMiddleware admits requests carrying a valid operator bearer token.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil).Send(w)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil).Send(w)
			return
		}

		claims, err := service.ParseJWT(headerParts[1])
		if err != nil {
			common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", err).Send(w)
			return
		}
		if claims.Role != model.RoleOperator {
			common.NewAppError(http.StatusForbidden, "Access denied. Operator privileges required.", nil).Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, claims.Subject)
		ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
