// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios and translate them into
// typed application errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrBranchNotFound  = errors.New("branch not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ErrVersionConflict is returned by Save when the catalog was modified by
// someone else since it was loaded. Callers should reload and retry or
// report a 409.
var ErrVersionConflict = errors.New("catalog version conflict")

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate entry")

// isDuplicate reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
