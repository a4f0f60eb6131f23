package store

import (
	"github.com/pkg/errors"
)

// ErrDuplicate is returned by inserts whose key is already taken.
var ErrDuplicate = errors.New("record already exists")

const (
	pgUniqueViolation = "23505"
	sqliteConstraint  = 19
)

// duplicate reports whether err is a unique key violation of the Postgres
// driver or of the SQLite driver used in tests.
func duplicate(err error) bool {
	var pgErr interface{ Field(byte) string }
	if errors.As(err, &pgErr) && pgErr.Field('C') == pgUniqueViolation {
		return true
	}
	var sqliteErr interface{ Code() int }
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqliteConstraint {
		return true
	}
	return false
}
