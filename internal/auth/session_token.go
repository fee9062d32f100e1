package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "visionforge-api"

// SessionClaims binds a bearer token to one production session
type SessionClaims struct {
	ProductionID string `json:"productionId"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs an HMAC token for a production. A zero ttl issues a
// token without expiry.
func IssueSessionToken(productionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		ProductionID: productionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  productionID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken validates a token using HMAC signing
func ValidateSessionToken(tokenString, secret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.ProductionID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
