// Package sqlgraph classifies driver errors raised by the relation statements.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ConstraintError wraps a driver error that was classified as a constraint
// violation.
type ConstraintError struct {
	msg  string
	wrap error
}

// NewConstraintError returns a new ConstraintError.
func NewConstraintError(msg string, wrap error) *ConstraintError {
	return &ConstraintError{msg: msg, wrap: wrap}
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return "sqlgraph: constraint failed: " + e.msg
}

// Unwrap returns the underlying driver error.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	var e *ConstraintError
	return errors.As(err, &e) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// mysqlNumber returns the server error number of a MySQL error in err's chain.
func mysqlNumber(err error) (uint16, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number, true
	}
	return 0, false
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation, e.g. a duplicate junction row.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlDuplicateEntry
	}
	return containsAny(err.Error(),
		"Error 1062",               // MySQL (string fallback)
		"UNIQUE constraint failed", // SQLite
		"PRIMARY KEY constraint failed",
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database
// foreign-key constraint violation, e.g. a junction row pointing at a missing user.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlForeignKeyParent || n == mysqlForeignKeyChild
	}
	return containsAny(err.Error(),
		"Error 1451",
		"Error 1452",
		"FOREIGN KEY constraint failed",
	)
}

// IsCheckConstraintError reports if the error resulted from a database check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := mysqlNumber(err); ok {
		return n == mysqlCheckConstraintViolate
	}
	return containsAny(err.Error(),
		"Error 3819",
		"CHECK constraint failed",
	)
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
