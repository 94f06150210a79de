package database

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open connects to MySQL with error translation enabled so duplicate-key
// failures surface as gorm.ErrDuplicatedKey regardless of driver.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// LockForUpdate applies SELECT ... FOR UPDATE on dialects that support it.
// SQLite has no row locks (single writer), so the clause is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithTxRetry runs fn in a transaction, retrying on deadlock or lock wait
// timeout with a small backoff.
func WithTxRetry(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable(err) && i < attempts-1 {
			time.Sleep(time.Duration(50*(i+1)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

// IsDuplicate reports a unique-key violation.
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func isRetryable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// 1213: Deadlock found; 1205: Lock wait timeout
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
