package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the bearer-token payload: exactly the identity id
// (subject) and account type. No email, no credential material.
type SessionClaims struct {
	Type UserType `json:"type"`
	jwt.RegisteredClaims
}

// SessionUser is the identity slice exposed to request handlers.
type SessionUser struct {
	ID   string   `json:"id"`
	Type UserType `json:"type"`
}

// Session is what every authenticated request sees.
type Session struct {
	User SessionUser `json:"user"`
}

// SessionIssuer maps authenticated identities to signed bearer tokens and
// back. Both directions are pure given the identity; ToSession never
// touches the store. Stateless per call.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionIssuer builds an issuer with the given HMAC signing secret and
// token lifetime. An empty secret is a configuration error.
func NewSessionIssuer(secret []byte, ttl time.Duration) (*SessionIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: session signing secret required")
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionIssuer{secret: secret, ttl: ttl}, nil
}

// ToToken signs the identity into a bearer token. Called once per
// successful authentication.
func (si *SessionIssuer) ToToken(id Identity) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Type: id.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   FormatSubject(id.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(si.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(si.secret)
}

// ToSession verifies a bearer token and reconstructs the session. Called
// on every authenticated request; the token is self-contained, so this
// performs no lookup.
func (si *SessionIssuer) ToSession(token string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return si.secret, nil
	})
	if err != nil {
		return Session{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	if claims.Type != TypeGuest && claims.Type != TypeRegular {
		return Session{}, ErrInvalidToken
	}
	if _, err := strconv.ParseUint(claims.Subject, 10, 64); err != nil {
		return Session{}, ErrInvalidToken
	}
	return Session{User: SessionUser{ID: claims.Subject, Type: claims.Type}}, nil
}
