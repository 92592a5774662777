package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsRetryable reports whether err is a transient sqlite failure worth
// retrying with backoff. Only lock contention qualifies; constraint
// violations and other logic errors are permanent and retrying them would
// just repeat the failure.
func IsRetryable(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
