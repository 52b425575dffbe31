package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// VisitorCookieExpiration is how long a visitor cookie lives; it is re-issued on every visit.
	VisitorCookieExpiration = 365 * 24 * time.Hour

	// TokenIssuer identifies the issuer of visitor tokens.
	TokenIssuer = "studiosite"
)

// ErrTokenExpired is returned by Inspect for an upstream token whose exp claim has passed.
var ErrTokenExpired = errors.New("token expired")

// GenerateVisitorToken signs a visitor cookie value for visitorID.
func GenerateVisitorToken(visitorID string, secretKey string, duration time.Duration, now time.Time) (string, error) {
	claims := &VisitorClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		VisitorID: visitorID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}

// ParseVisitorToken validates the signature and expiry of a visitor cookie value.
func ParseVisitorToken(tokenString string, secretKey string) (*VisitorClaims, error) {
	claims := &VisitorClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.VisitorID == "" {
		return nil, errors.New("invalid or expired visitor token")
	}

	return claims, nil
}

// Inspect decodes an upstream login token without verifying its signature.
// Opaque (non-JWT) tokens return an error; callers keep using them as-is.
// A decodable token whose exp has passed returns the claims and ErrTokenExpired.
func Inspect(tokenString string, now time.Time) (*UpstreamClaims, error) {
	claims := &UpstreamClaims{}

	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.ExpiresAt != 0 && !claims.VerifyExpiresAt(now.Unix(), true) {
		return claims, ErrTokenExpired
	}

	return claims, nil
}
