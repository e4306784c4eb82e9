package middleware

// identity.go holds helpers shared across middleware files.  adminIdentity
// pulls the username out of the session claims stored by SessionAuth; when
// no admin is authenticated "anon" is returned.

import (
    "github.com/labstack/echo/v4"
)

func adminIdentity(c echo.Context) string {
    if claims, ok := AdminFromContext(c); ok && claims.Username != "" {
        return claims.Username
    }
    return "anon"
}
