package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"equiprent-backend/internal/domain"

	"github.com/lib/pq"
)

// SQLSTATE codes that mean "another transaction got there first".
var conflictCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"23P01": true, // exclusion_violation (orders_no_overlap)
	"23505": true, // unique_violation (one active payment per order)
}

// classify maps driver errors onto the domain error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Error{Kind: domain.KindNotFound, Reason: "record not found", Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if conflictCodes[pqErr.Code] {
			return domain.NewStoreConflictError(err)
		}
		if pqErr.Code == "57014" { // query_canceled (statement_timeout)
			return domain.NewTransientError("query cancelled", err)
		}
		return domain.NewTransientError("database error", err)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return domain.NewTransientError("transaction timed out", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.As(err, &netErr):
		return domain.NewTransientError("database unavailable", err)
	}
	return domain.NewTransientError("database error", err)
}
