// Package dberr normalizes database driver errors and classifies query
// failures.
//
// Repositories wrap every failed statement with Wrap, which produces a
// *QueryFailedError carrying a backend-neutral DriverError (string code,
// numeric errno, message). Classification functions only ever look at errors
// that went through Wrap, so application errors whose text happens to mention
// "duplicate" or "unique" are never mistaken for constraint violations.
package dberr

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// DriverError is the backend-neutral view of a driver-level error.
//
// Code holds the symbolic code reported by the backend: a SQLSTATE for
// PostgreSQL ("23505"), an ER_* name for MySQL/MariaDB ("ER_DUP_ENTRY") or a
// SQLITE_* result code name ("SQLITE_CONSTRAINT_UNIQUE"). Errno holds the
// numeric error number when the backend has one (MySQL). Either may be empty.
type DriverError struct {
	Code    string
	Errno   int
	Message string
}

func (e *DriverError) Error() string { return e.Message }

// sqliteCoder matches the error type of the pure-Go SQLite driver, which
// exposes the (extended) result code through a Code method.
type sqliteCoder interface {
	error
	Code() int
}

// driverErrorOf extracts a DriverError from the concrete driver error found
// in err's chain. Unknown drivers yield a DriverError with only a message.
func driverErrorOf(err error) DriverError {
	var de *DriverError
	if errors.As(err, &de) {
		return *de
	}

	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return DriverError{Code: pg.Code, Message: pg.Message}
	}

	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return DriverError{
			Code:    mysqlCodeName(my.Number),
			Errno:   int(my.Number),
			Message: my.Message,
		}
	}

	var lite sqliteCoder
	if errors.As(err, &lite) {
		return DriverError{Code: sqliteCodeName(lite.Code()), Message: lite.Error()}
	}

	return DriverError{Message: err.Error()}
}

// SQLite result codes (primary and extended) we care to name.
var sqliteCodes = map[int]string{
	1:    "SQLITE_ERROR",
	5:    "SQLITE_BUSY",
	6:    "SQLITE_LOCKED",
	8:    "SQLITE_READONLY",
	11:   "SQLITE_CORRUPT",
	13:   "SQLITE_FULL",
	14:   "SQLITE_CANTOPEN",
	19:   "SQLITE_CONSTRAINT",
	275:  "SQLITE_CONSTRAINT_CHECK",
	787:  "SQLITE_CONSTRAINT_FOREIGNKEY",
	1299: "SQLITE_CONSTRAINT_NOTNULL",
	1555: "SQLITE_CONSTRAINT_PRIMARYKEY",
	2067: "SQLITE_CONSTRAINT_UNIQUE",
	2579: "SQLITE_CONSTRAINT_ROWID",
}

func sqliteCodeName(code int) string {
	if name, ok := sqliteCodes[code]; ok {
		return name
	}
	// Unknown extended codes fall back to their primary code (low byte).
	if name, ok := sqliteCodes[code&0xff]; ok {
		return name
	}
	return ""
}

// MySQL/MariaDB server error numbers we care to name.
var mysqlCodes = map[uint16]string{
	1048: "ER_BAD_NULL_ERROR",
	1062: "ER_DUP_ENTRY",
	1146: "ER_NO_SUCH_TABLE",
	1205: "ER_LOCK_WAIT_TIMEOUT",
	1213: "ER_LOCK_DEADLOCK",
	1451: "ER_ROW_IS_REFERENCED_2",
	1452: "ER_NO_REFERENCED_ROW_2",
	1586: "ER_DUP_ENTRY_WITH_KEY_NAME",
}

func mysqlCodeName(n uint16) string { return mysqlCodes[n] }
