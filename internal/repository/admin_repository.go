package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/utils"
)

// AdminRepo is the credential store for admin accounts.
type AdminRepo struct{ DB *sql.DB }

// NewAdminRepo creates a new AdminRepo with the given database connection.
func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = "id, username, email, password_hash, created_at, updated_at"

// FindByUsername returns ErrAdminNotFound when no account has that name.
// Usernames are compared as stored; callers trim input first.
func (r *AdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+adminColumns+" FROM admins WHERE username=? LIMIT 1", username).
		Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Count returns the number of admin accounts.
func (r *AdminRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Create hashes plain and inserts a new admin, returning its ID.  An empty
// email is stored as NULL.
func (r *AdminRepo) Create(ctx context.Context, username, plain, email string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return 0, err
	}
	var emailArg any
	if e := strings.TrimSpace(email); e != "" {
		emailArg = strings.ToLower(e)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (username, email, password_hash) VALUES (?,?,?)",
		username, emailArg, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UpdatePassword re-hashes plain and overwrites the stored hash.
func (r *AdminRepo) UpdatePassword(ctx context.Context, username, plain string, cost int) error {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE username=?",
		hash, username)
	if err != nil {
		return err
	}
	return requireOneRow(res, ErrAdminNotFound)
}

// UpdateUsername renames current to next.  It checks for an existing next
// first and also maps a unique index violation from a concurrent rename
// to ErrDuplicateUsername.
func (r *AdminRepo) UpdateUsername(ctx context.Context, current, next string) error {
	var exists int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM admins WHERE username=? LIMIT 1", next).Scan(&exists)
	switch {
	case err == nil:
		return ErrDuplicateUsername
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	res, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET username=?, updated_at=CURRENT_TIMESTAMP WHERE username=?",
		next, current)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	return requireOneRow(res, ErrAdminNotFound)
}

// requireOneRow turns a zero RowsAffected into notFound.
func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
