package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // status codes and cookie type
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theta-web/internal/utils"
)

// SessionCookie is the name of the admin session cookie.
const SessionCookie = "admin_token"

// ContextKeyAdmin is where SessionAuth stores the verified claims.
const ContextKeyAdmin = "admin"

// SessionVerifier checks a raw session token.
type SessionVerifier interface {
    Verify(raw string) (*utils.SessionClaims, error)
}

// SessionAuth returns an Echo middleware that reads the session cookie,
// verifies it and injects the claims into the request context.  Requests
// without a valid session are answered with 401 and never reach the
// handler.  Nothing is cached: every request is verified on its own.
func SessionAuth(verifier SessionVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            claims, ok := VerifySession(c, verifier)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": "UNAUTHORIZED"})
            }
            c.Set(ContextKeyAdmin, claims)
            return next(c)
        }
    }
}

// VerifySession checks the session cookie of the request without
// rejecting it.  Used by the session check endpoint.
func VerifySession(c echo.Context, verifier SessionVerifier) (*utils.SessionClaims, bool) {
    ck, err := c.Cookie(SessionCookie)
    if err != nil || ck.Value == "" {
        return nil, false
    }
    claims, err := verifier.Verify(ck.Value)
    if err != nil {
        return nil, false
    }
    return claims, true
}

// AdminFromContext returns the claims stored by SessionAuth.
func AdminFromContext(c echo.Context) (*utils.SessionClaims, bool) {
    claims, ok := c.Get(ContextKeyAdmin).(*utils.SessionClaims)
    return claims, ok && claims != nil
}

// SetSessionCookie writes tok as an HttpOnly, SameSite=Lax cookie that
// lives as long as the token.
func SetSessionCookie(c echo.Context, tok utils.SessionToken, secure bool) {
    maxAge := int(time.Until(tok.Exp).Seconds())
    if maxAge <= 0 {
        maxAge = int(utils.SessionTTL.Seconds())
    }
    c.SetCookie(&http.Cookie{
        Name:     SessionCookie,
        Value:    tok.Token,
        Path:     "/",
        MaxAge:   maxAge,
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    })
}

// ClearSessionCookie expires the session cookie.  MaxAge -1 is sent as
// Max-Age=0.
func ClearSessionCookie(c echo.Context, secure bool) {
    c.SetCookie(&http.Cookie{
        Name:     SessionCookie,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        HttpOnly: true,
        Secure:   secure,
        SameSite: http.SameSiteLaxMode,
    })
}
