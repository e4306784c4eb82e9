package utils // package utils provides helpers for password hashing and session tokens

import (
    "errors" // sentinel errors for token failures
    "time"   // validity window and clock

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// SessionTTL is the fixed validity window of an admin session.
const SessionTTL = 7 * 24 * time.Hour

var (
    // ErrMissingSecret is returned when a TokenIssuer is built without a
    // signing secret.
    ErrMissingSecret = errors.New("session token secret is not configured")
    // ErrInvalidToken covers every verification failure: malformed input,
    // wrong algorithm, bad signature, expiry and missing identity claims.
    ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims is the identity snapshot carried in a session token.  The
// username is also the JWT subject.
type SessionClaims struct {
    Username string `json:"username"`
    AdminID  string `json:"adminId"`
    jwt.RegisteredClaims
}

// SessionToken is a signed token along with its expiry.  The expiry is
// also used as the cookie lifetime.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
    secret []byte
    ttl    time.Duration
    now    func() time.Time
}

// NewTokenIssuer returns an issuer using the given secret.  An empty secret
// is refused so that a misconfigured deployment never signs with a guessable
// key.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
    if secret == "" {
        return nil, ErrMissingSecret
    }
    return &TokenIssuer{secret: []byte(secret), ttl: SessionTTL, now: time.Now}, nil
}

// WithClock returns a copy of the issuer reading time from now.  Used by
// tests to cross the expiry boundary without sleeping.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
    cp := *t
    cp.now = now
    return &cp
}

// Issue mints a token for the given admin.
func (t *TokenIssuer) Issue(username, adminID string) (SessionToken, error) {
    iat := t.now().UTC()
    exp := iat.Add(t.ttl)
    claims := SessionClaims{
        Username: username,
        AdminID:  adminID,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   username,
            IssuedAt:  jwt.NewNumericDate(iat),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// Verify parses raw and returns its claims.  Any failure yields
// ErrInvalidToken and nil claims.
func (t *TokenIssuer) Verify(raw string) (*SessionClaims, error) {
    if raw == "" {
        return nil, ErrInvalidToken
    }
    var claims SessionClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(tk *jwt.Token) (interface{}, error) {
        // Reject anything that is not HMAC (alg=none, RS256 with a public key as secret, ...).
        if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return t.secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(t.now),
    )
    if err != nil || !tok.Valid {
        return nil, ErrInvalidToken
    }
    if claims.Username == "" || claims.AdminID == "" {
        return nil, ErrInvalidToken
    }
    return &claims, nil
}
