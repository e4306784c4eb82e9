package handler

import (
	"context"  // request scoped timeouts for store calls
	"net/http" // HTTP status codes
	"strings"  // trims the echoed username

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/theta-web/internal/middleware" // session cookie helpers
	"github.com/iliyamo/theta-web/internal/utils"      // session tokens
)

// AccountAPI is the part of service.AccountService the auth endpoints use.
type AccountAPI interface {
	Login(ctx context.Context, username, password string) (utils.SessionToken, error)
	ChangePassword(ctx context.Context, claims *utils.SessionClaims, current, next string) error
	ChangeUsername(ctx context.Context, claims *utils.SessionClaims, current, newUsername string) (utils.SessionToken, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Accounts     AccountAPI
	Sessions     middleware.SessionVerifier
	SecureCookie bool // set the Secure flag on the session cookie
	Production   bool
}

func NewAuthHandler(accounts AccountAPI, sessions middleware.SessionVerifier, production bool) *AuthHandler {
	if accounts == nil || sessions == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Accounts: accounts, Sessions: sessions, SecureCookie: production, Production: production}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type changeUsernameReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewUsername     string `json:"newUsername"`
}

// Login: verify credentials and set the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "", "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tok, err := h.Accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	middleware.SetSessionCookie(c, tok, h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "username": strings.TrimSpace(req.Username)})
}

// Logout clears the cookie.  It never fails, with or without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c, h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Check reports whether the request carries a valid session.
func (h *AuthHandler) Check(c echo.Context) error {
	claims, ok := middleware.VerifySession(c, h.Sessions)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"authenticated": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"authenticated": true, "username": claims.Username})
}

// ChangePassword: re-authenticate and replace the password.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	claims, ok := middleware.AdminFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "UNAUTHORIZED"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "", "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, claims, req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password changed successfully"})
}

// ChangeUsername: re-authenticate, rename and hand back a cookie bound to
// the new username.
func (h *AuthHandler) ChangeUsername(c echo.Context) error {
	claims, ok := middleware.AdminFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "UNAUTHORIZED"})
	}
	var req changeUsernameReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "", "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tok, err := h.Accounts.ChangeUsername(ctx, claims, req.CurrentPassword, req.NewUsername)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	middleware.SetSessionCookie(c, tok, h.SecureCookie)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Username changed successfully"})
}
