package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// maxTxAttempts bounds how often a transaction aborted by InnoDB is rerun.
const maxTxAttempts = 3

// dbtx is the subset of *sql.DB the simple repositories need.  *sql.DB and
// *sql.Tx both satisfy it.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// intArgs converts seat numbers to query arguments.
func intArgs(seats []int) []any {
	args := make([]any, len(seats))
	for i, s := range seats {
		args[i] = s
	}
	return args
}

// scanInts drains a single-column integer result set.
func scanInts(rows *sql.Rows) ([]int, error) {
	defer rows.Close()
	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func mysqlErrNo(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isDuplicateKey reports MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool { return mysqlErrNo(err) == errDupEntry }

// isLockConflict reports a transaction InnoDB gave up on: a deadlock victim
// or a lock wait timeout.  Rerunning it from the start is safe.
func isLockConflict(err error) bool {
	n := mysqlErrNo(err)
	return n == errDeadlock || n == errLockWaitTimeout
}

// inTx runs fn in a READ COMMITTED transaction and commits it.  At that level
// a locking read of absent seat rows takes no gap locks, so bookings of
// disjoint seats never wait on each other.  A transaction aborted for a lock
// conflict is retried up to maxTxAttempts times; the last error is returned.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = runTx(ctx, db, fn)
		if err == nil || !isLockConflict(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
