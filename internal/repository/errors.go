// Package repository holds the MySQL data access layer.  Sentinel errors
// defined here let the service layer tell "not there" and "lost a race"
// apart from infrastructure failures without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrConflict is returned when a conditional update finds the row in a
	// different state than the caller observed, i.e. a concurrent writer
	// got there first.
	ErrConflict = errors.New("conflict")

	ErrAdminNotFound     = errors.New("admin not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInquiryNotFound   = errors.New("inquiry not found")
	ErrProjectNotFound   = errors.New("project not found")
)

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
