package utils // package utils provides helper functions for token creation

import (
	"fmt"  // error formatting for token validation failures
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken represents a signed JWT bound to one checkout session
// along with its expiry. The Token field contains the JWT string. The
// token is returned to the client when a checkout session is created and
// must accompany every subsequent call on that session, so one visitor
// cannot edit or commit another visitor's session.
type SessionToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewSessionToken builds and signs an HS256 JWT for a checkout session.
// It takes the signing secret, the session ID and a TTL in minutes, and
// returns a SessionToken containing the signed token and its expiration
// time. The JWT carries the session ID as its subject plus standard
// expiration (exp) and issued-at (iat) claims.
func NewSessionToken(secret, sessionID string, ttlMin int) (SessionToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": sessionID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a session token
// and returns the session ID it was issued for. Tokens signed with any
// method other than HS256 are rejected.
func ParseSessionToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid session token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("session token has no subject")
	}
	return sub, nil
}
