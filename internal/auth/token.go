package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used for device tokens issued by the CLI.
const DefaultTokenTTL = 12 * time.Hour

var ErrTokenInvalid = errors.New("token invalid")

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 bearer token for userID.
func SignToken(secret, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id required")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token signed with secret and returns its claims.
func ParseToken(secret, token string) (*Claims, error) {
	parsed, err := parseClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

var parseClaimsFn = jwt.ParseWithClaims
