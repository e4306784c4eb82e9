package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/metrics"
	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/utils"
)

const (
	minPasswordLen = 8
	minUsernameLen = 3
)

// AdminStore is the credential store used by AccountService.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, username, plain, email string, cost int) (uint64, error)
	UpdatePassword(ctx context.Context, username, plain string, cost int) error
	UpdateUsername(ctx context.Context, current, next string) error
}

// SessionIssuer mints session tokens.
type SessionIssuer interface {
	Issue(username, adminID string) (utils.SessionToken, error)
}

// AccountService implements admin login and self-service credential
// changes.  Every mutation re-checks the current password.
type AccountService struct {
	admins  AdminStore
	tokens  SessionIssuer
	cost    int
	log     logger.Logger
	metrics metrics.Recorder
}

// NewAccountService hashes with bcryptCost and signs sessions with tokens.
func NewAccountService(admins AdminStore, tokens SessionIssuer, bcryptCost int, log logger.Logger, rec metrics.Recorder) *AccountService {
	if admins == nil || tokens == nil {
		panic("nil dependency passed to NewAccountService")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AccountService{admins: admins, tokens: tokens, cost: bcryptCost, log: log, metrics: rec}
}

// Login checks credentials and returns a fresh session token.  Unknown
// usernames and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, username, password string) (utils.SessionToken, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return utils.SessionToken{}, errValidation("username", "Username and password are required")
	}

	admin, err := s.authenticate(ctx, username, password)
	if err != nil {
		if HasCode(err, CodeUnauthorized) {
			s.metrics.RecordLogin("failed")
			s.log.Warn("admin login rejected", logger.String("username", username))
		}
		return utils.SessionToken{}, err
	}

	tok, err := s.tokens.Issue(admin.Username, adminRef(admin))
	if err != nil {
		return utils.SessionToken{}, NewError(CodeStorageError, "could not issue session", err)
	}
	s.metrics.RecordLogin("ok")
	s.log.Info("admin logged in", logger.String("username", admin.Username))
	return tok, nil
}

// ChangePassword replaces the password of the session's admin.
func (s *AccountService) ChangePassword(ctx context.Context, claims *utils.SessionClaims, current, next string) error {
	if claims == nil {
		return errUnauthorized("unauthorized")
	}
	if current == "" || next == "" {
		return errValidation("newPassword", "Current password and new password are required")
	}
	if len(next) < minPasswordLen {
		return errValidation("newPassword", "New password must be at least 8 characters long")
	}

	admin, err := s.authenticate(ctx, claims.Username, current)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, admin.Username, next, s.cost); err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return errUnauthorized("unauthorized")
		}
		return errStorage("could not update password", err)
	}
	s.log.Info("admin password changed", logger.String("username", admin.Username))
	return nil
}

// ChangeUsername renames the session's admin and returns a replacement
// token bound to the new name.  Tokens carrying the old name keep their
// signature but no longer resolve to an account.
func (s *AccountService) ChangeUsername(ctx context.Context, claims *utils.SessionClaims, current, newUsername string) (utils.SessionToken, error) {
	if claims == nil {
		return utils.SessionToken{}, errUnauthorized("unauthorized")
	}
	newUsername = strings.TrimSpace(newUsername)
	if current == "" || newUsername == "" {
		return utils.SessionToken{}, errValidation("newUsername", "Current password and new username are required")
	}
	if len(newUsername) < minUsernameLen {
		return utils.SessionToken{}, errValidation("newUsername", "Username must be at least 3 characters long")
	}
	if newUsername == claims.Username {
		return utils.SessionToken{}, errValidation("newUsername", "New username must be different from current username")
	}

	admin, err := s.authenticate(ctx, claims.Username, current)
	if err != nil {
		return utils.SessionToken{}, err
	}
	if err := s.admins.UpdateUsername(ctx, admin.Username, newUsername); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return utils.SessionToken{}, &Error{Code: CodeDuplicateUsername, Field: "newUsername", Message: "Username already exists", Err: err}
		case errors.Is(err, repository.ErrAdminNotFound):
			return utils.SessionToken{}, errUnauthorized("unauthorized")
		}
		return utils.SessionToken{}, errStorage("could not update username", err)
	}

	tok, err := s.tokens.Issue(newUsername, adminRef(admin))
	if err != nil {
		return utils.SessionToken{}, NewError(CodeStorageError, "could not issue session", err)
	}
	s.log.Info("admin username changed",
		logger.String("from", admin.Username), logger.String("to", newUsername))
	return tok, nil
}

// ErrAlreadyBootstrapped is returned by Bootstrap once any admin exists.
var ErrAlreadyBootstrapped = errors.New("an admin account already exists")

// Bootstrap creates the first admin account.  It refuses to run when an
// account already exists.
func (s *AccountService) Bootstrap(ctx context.Context, username, password, email string) (uint64, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return 0, errValidation("username", "Username must be at least 3 characters long")
	}
	if len(password) < minPasswordLen {
		return 0, errValidation("password", "Password must be at least 8 characters long")
	}

	n, err := s.admins.Count(ctx)
	if err != nil {
		return 0, errStorage("could not count admins", err)
	}
	if n > 0 {
		return 0, NewError(CodeConflict, ErrAlreadyBootstrapped.Error(), ErrAlreadyBootstrapped)
	}

	id, err := s.admins.Create(ctx, username, password, email, s.cost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return 0, &Error{Code: CodeDuplicateUsername, Field: "username", Message: "Username already exists", Err: err}
		}
		return 0, errStorage("could not create admin", err)
	}
	s.log.Info("admin account bootstrapped", logger.String("username", username), logger.Uint64("id", id))
	return id, nil
}

// ResetPassword sets a new password without knowing the old one.  It is
// reachable only from the operator CLI.
func (s *AccountService) ResetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if len(password) < minPasswordLen {
		return errValidation("password", "Password must be at least 8 characters long")
	}
	if err := s.admins.UpdatePassword(ctx, username, password, s.cost); err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return errNotFound("admin not found", err)
		}
		return errStorage("could not reset password", err)
	}
	s.log.Warn("admin password reset from CLI", logger.String("username", username))
	return nil
}

// authenticate loads username and checks password against its hash.
func (s *AccountService) authenticate(ctx context.Context, username, password string) (*model.Admin, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, errUnauthorized("Invalid username or password")
		}
		return nil, errStorage("could not load admin", err)
	}
	if !utils.VerifyPassword(admin.PasswordHash, password) {
		return nil, errUnauthorized("Invalid username or password")
	}
	return admin, nil
}

func adminRef(a *model.Admin) string {
	return strconv.FormatUint(a.ID, 10)
}
