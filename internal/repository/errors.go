// Package repository implements data access for the booking engine on
// top of database/sql.  Repositories expose *Tx variants for the
// operations that must run inside the coordinator's unit of work and
// plain variants for read-only paths.  The sentinel values defined
// here allow higher layers to distinguish failure scenarios with
// errors.Is without inspecting driver-specific error codes.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrOccupancyConflict is returned when inserting an occupancy row
// violates the composite uniqueness constraint on
// (train_code, travel_date, seat_number, start_no, end_no).  It means
// a concurrent writer committed the same seat/segment first; the
// booking coordinator retries its protocol against a fresh snapshot.
var ErrOccupancyConflict = errors.New("occupancy conflict")

// ErrLockContention is returned when InnoDB aborts a transaction on a
// deadlock (error 1213) or lock wait timeout (error 1205).  Two
// writers racing for the first booking of a train/date take compatible
// gap locks on the empty occupancy range and then deadlock on their
// insert-intention locks, so 1213 is the normal contention signal for
// a fresh key.  Transient like ErrOccupancyConflict; the booking
// coordinator retries on a fresh snapshot.
var ErrLockContention = errors.New("lock contention")

// ErrUsernameExists is returned when registering a username that is
// already taken.
var ErrUsernameExists = errors.New("username already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isLockContention reports whether err is a MySQL deadlock (1213) or
// lock wait timeout (1205).
func isLockContention(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && (me.Number == 1213 || me.Number == 1205)
}

// wrapLockContention maps deadlock and lock-wait-timeout driver
// errors onto ErrLockContention; every other error passes through
// unchanged.
func wrapLockContention(err error) error {
	if isLockContention(err) {
		return fmt.Errorf("%w: %v", ErrLockContention, err)
	}
	return err
}
