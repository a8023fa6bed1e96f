// Package store provides the PostgreSQL pool and the shared helpers used by
// the typed repositories: error classification and the tri-state Field type
// that drives partial-merge upserts.
package store

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrilink/agrilink/internal/apperr"
)

// NewPool creates a pgx connection pool for the given database URL.
// The pool connects lazily; callers that need an eager check should Ping.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return pool, nil
}

// Unavailable reports whether err indicates the storage backend could not be
// reached, as opposed to a query-level failure.
func Unavailable(err error) bool {
	if err == nil {
		return false
	}
	if apperr.IsCode(err, apperr.CodeStorageUnavailable) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Wrap annotates a repository error with the operation name. Connection-level
// failures become StorageUnavailable so services can apply the read-degrade
// policy; everything else is wrapped as-is.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if Unavailable(err) {
		return apperr.Wrap(apperr.CodeStorageUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
