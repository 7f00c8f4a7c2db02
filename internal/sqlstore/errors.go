package sqlstore

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/rpggio/taskboard/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUnavailable matches errors caused by the database being unreachable or
// momentarily busy rather than by the statement itself.
func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P0x: operator intervention
		return strings.HasPrefix(string(pqErr.Code), "08") || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "unable to open database")
}

func wrapUnavailable(err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
	}
	return err
}

// storeError classifies err for callers outside the package.
func storeError(action string, err error) error {
	switch {
	case isForeignKeyViolation(err):
		return fmt.Errorf("failed to %s: %w", action, repository.ErrForeignKeyViolation)
	case isUnavailable(err):
		return fmt.Errorf("failed to %s: %w: %w", action, repository.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
