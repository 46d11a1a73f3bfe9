package jwthelper

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "choir-api"

var ErrInvalidToken = errors.New("invalid token")

type UserClaims struct {
	UserID    uint   `json:"user_id"`
	UserAgent string `json:"user_agent,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(key []byte, userID uint, userAgent string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:    userID,
		UserAgent: userAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseToken verifies the signature, the expiry and the issuer.
func ParseToken(key []byte, tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
