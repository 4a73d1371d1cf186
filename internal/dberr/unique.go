package dberr

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Structured codes reported for unique-constraint violations.
const (
	sqliteConstraint       = "SQLITE_CONSTRAINT"
	sqliteConstraintUnique = "SQLITE_CONSTRAINT_UNIQUE"
	pgUniqueViolation      = "23505"
	mysqlDupEntry          = "ER_DUP_ENTRY"
	mysqlDupEntryErrno     = 1062
)

// uniqueFragments are database-generated phrases that identify a unique
// violation when the driver reported no usable code. Lower-case.
var uniqueFragments = []string{
	"unique constraint",
	"duplicate key value",
	"duplicate entry",
	"sqlite_constraint_unique",
	"violates unique constraint",
}

// IsUniqueConstraintError reports whether err is a database unique-constraint
// violation.
//
// Only query failures (see Wrap) are considered. Structured driver codes are
// checked first; the message is only searched when no code matched.
func IsUniqueConstraintError(err error) bool {
	qf, ok := AsQueryFailed(err)
	if !ok {
		return false
	}

	switch qf.Driver.Code {
	case sqliteConstraint, sqliteConstraintUnique, pgUniqueViolation, mysqlDupEntry:
		return true
	}
	if qf.Driver.Errno == mysqlDupEntryErrno {
		return true
	}
	if errors.Is(qf.err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(qf.Error())
	for _, frag := range uniqueFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
