package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var ErrDuplicate = errors.New("duplicate key")

const (
	pgUniqueViolation    = "23505"
	mysqlDuplicateEntry  = 1062
	sqliteConstraintText = "constraint failed: "
)

// UniqueViolation reports which unique constraint rejected a write. Constraint
// is the index name where the driver exposes it (postgres, mysql) and the
// table.column list for sqlite.
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	if e.Constraint == "" {
		return "duplicate key"
	}
	return "duplicate key violates " + e.Constraint
}

func (e *UniqueViolation) Unwrap() error {
	return e.Err
}

func (e *UniqueViolation) Is(target error) bool {
	return target == ErrDuplicate
}

// Involves reports whether the violated constraint matches any of names.
// An unnamed violation matches nothing.
func (e *UniqueViolation) Involves(names ...string) bool {
	if e.Constraint == "" {
		return false
	}
	for _, name := range names {
		if strings.Contains(e.Constraint, name) {
			return true
		}
	}
	return false
}

// MapError converts driver-level unique constraint failures into a
// *UniqueViolation. Any other error is returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &UniqueViolation{Constraint: pgErr.ConstraintName, Err: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return &UniqueViolation{Constraint: sqliteConstraint(sqliteErr.Error()), Err: err}
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return &UniqueViolation{Constraint: mysqlKey(mysqlErr.Message), Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &UniqueViolation{Err: err}
	}

	return err
}

func AsUniqueViolation(err error) (*UniqueViolation, bool) {
	var v *UniqueViolation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// "UNIQUE constraint failed: users.email"
func sqliteConstraint(msg string) string {
	idx := strings.Index(msg, sqliteConstraintText)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(msg[idx+len(sqliteConstraintText):])
}

// "Duplicate entry 'a@b.com' for key 'users.idx_users_email'"
func mysqlKey(msg string) string {
	idx := strings.LastIndex(msg, "for key ")
	if idx < 0 {
		return ""
	}
	return strings.Trim(msg[idx+len("for key "):], "'`\" ")
}
