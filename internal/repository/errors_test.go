package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func mysqlErr(number uint16, msg string) error {
	return &mysql.MySQLError{Number: number, Message: msg}
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(mysqlErr(1062, "Duplicate entry")))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert occupancy: %w", mysqlErr(1062, "Duplicate entry"))))

	assert.False(t, isDuplicateKey(mysqlErr(1213, "Deadlock found")))
	assert.False(t, isDuplicateKey(errors.New("Duplicate entry")))
	assert.False(t, isDuplicateKey(nil))
}

func TestWrapLockContention(t *testing.T) {
	// Deadlock and lock-wait aborts become the retryable sentinel.
	err := wrapLockContention(mysqlErr(1213, "Deadlock found when trying to get lock"))
	assert.ErrorIs(t, err, ErrLockContention)

	err = wrapLockContention(mysqlErr(1205, "Lock wait timeout exceeded"))
	assert.ErrorIs(t, err, ErrLockContention)

	// Wrapped driver errors classify the same.
	err = wrapLockContention(fmt.Errorf("insert occupancy: %w", mysqlErr(1213, "Deadlock found")))
	assert.ErrorIs(t, err, ErrLockContention)

	// Everything else passes through untouched.
	dup := mysqlErr(1062, "Duplicate entry")
	assert.Same(t, dup, wrapLockContention(dup))

	plain := errors.New("driver: bad connection")
	assert.Same(t, plain, wrapLockContention(plain))

	assert.NoError(t, wrapLockContention(nil))
}
