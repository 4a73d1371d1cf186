package dberr

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// QueryFailedError reports that a statement reached the database and the
// database rejected it. It is the only error category the classifiers in
// this package will inspect.
type QueryFailedError struct {
	// Query names the failed statement (e.g. "insert workflows").
	Query string
	// Driver is the normalized driver error.
	Driver DriverError

	err error
}

func (e *QueryFailedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return e.Driver.Message
}

func (e *QueryFailedError) Unwrap() error { return e.err }

// Wrap marks err as a failed query. It returns nil for nil, and passes
// through errors that are not query failures: record-not-found, context
// cancellation and errors that were already wrapped.
func Wrap(err error, query string) error {
	if err == nil {
		return nil
	}
	var qf *QueryFailedError
	if errors.As(err, &qf) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &QueryFailedError{
		Query:  query,
		Driver: driverErrorOf(err),
		err:    err,
	}
}

// AsQueryFailed returns the first *QueryFailedError in err's chain.
func AsQueryFailed(err error) (*QueryFailedError, bool) {
	var qf *QueryFailedError
	if errors.As(err, &qf) {
		return qf, true
	}
	return nil, false
}
