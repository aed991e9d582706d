package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadCookie is returned for a session cookie that fails verification.
var ErrBadCookie = errors.New("session: invalid cookie")

type cookieClaims struct {
	SID   string `json:"sid"`
	Realm Realm  `json:"realm"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the session cookie.  The cookie is an HS256 JWT
// carrying only the session id and realm; the backend bearer token stays in
// server-side storage.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign returns the cookie value for s.
func (sg *Signer) Sign(s Session) (string, error) {
	claims := cookieClaims{
		SID:   s.ID,
		Realm: s.Realm,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(sg.now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sg.secret)
}

// Verify checks the signature and expiry of raw and returns the session id
// it names.  A cookie issued for another realm is rejected.
func (sg *Signer) Verify(raw string, realm Realm) (string, error) {
	var claims cookieClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return sg.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(sg.now))
	if err != nil || !tok.Valid {
		return "", ErrBadCookie
	}
	if claims.Realm != realm || claims.SID == "" {
		return "", ErrBadCookie
	}
	return claims.SID, nil
}

// BearerExpiry reads the exp claim of a backend bearer token without
// verifying it; the backend owns the signing key.  ok is false for opaque
// tokens and tokens without exp.
func BearerExpiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}
