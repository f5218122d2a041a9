package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
)

// Postgres error codes that mean the transaction lost a race and can be run again.
const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

func NewDB(host, port, user, password, name string, maxOpenConns, maxIdleConns int, maxIdleTime time.Duration) (*sql.DB, error) {
	URI := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	return connectDB(URI, maxOpenConns, maxIdleConns, maxIdleTime)
}

// connectDB connects to the database and returns the connection
func connectDB(URI string, maxOpenConns int, maxIdleConns int, maxIdleTime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", URI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CloseDB closes the database connection
func CloseDB(db *sql.DB) error {
	return db.Close()
}

// RetryableTxError reports whether err is a Postgres error caused by a concurrent transaction,
// i.e. running the same transaction again may succeed.
func RetryableTxError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
			return true
		}
	}

	return false
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == pqForeignKeyViolation && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

// LockID maps a name to a stable advisory lock identifier.
func LockID(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// TryAdvisoryLock tries to acquire a session level advisory lock on a dedicated connection.
// On success the returned unlock function releases the lock and the connection.
func TryAdvisoryLock(ctx context.Context, db *sql.DB, name string) (bool, func(context.Context) error, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("acquire connection: %w", err)
	}

	lockID := LockID(name)

	var locked bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&locked); err != nil {
		conn.Close()
		return false, nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Close()
		return false, nil, nil
	}

	return true, func(ctx context.Context) error {
		defer conn.Close()

		var released bool
		if err := conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, lockID).Scan(&released); err != nil {
			return fmt.Errorf("advisory unlock: %w", err)
		}
		if !released {
			return errors.New("advisory unlock: not held")
		}
		return nil
	}, nil
}

// XactLock takes a transaction scoped advisory lock. It is released on commit or rollback.
func XactLock(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, LockID(name))
	return err
}
