package model

import "github.com/golang-jwt/jwt/v5"

const RoleOperator = "operator"

// AppClaims is the bearer token payload accepted on mutating ledger routes.
type AppClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
