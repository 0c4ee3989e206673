package service

import (
	"errors"
	"fmt"
	"time"

	"go-ledger/config"
	"go-ledger/logger"
	"go-ledger/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrSigningKeyMissing = errors.New("jwt secret key is not configured")

func getJwtKey() ([]byte, error) {
	key := config.AppConfig.JWT.SecretKey
	if key == "" {
		return nil, ErrSigningKeyMissing
	}
	return []byte(key), nil
}

// GenerateJWT signs an operator token for subject, valid for ttl.
func GenerateJWT(subject string, ttl time.Duration) (string, error) {
	key, err := getJwtKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &model.AppClaims{
		Role: model.RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		logger.Log.WithError(err).WithField("subject", subject).Error("Failed to sign JWT")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// ParseJWT validates an HS256 token and returns its claims.
func ParseJWT(tokenString string) (*model.AppClaims, error) {
	key, err := getJwtKey()
	if err != nil {
		return nil, err
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
