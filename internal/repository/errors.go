// Package repository defines the persistence gateway: typed CRUD over users,
// students, behaviors, notifications and messages.  Sentinel errors let higher
// layers distinguish failure scenarios without inspecting driver errors.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a row addressed by id (or another unique key)
// does not exist.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique key
// such as users.username or students.student_number.  Handlers translate it
// into HTTP 409.
var ErrDuplicate = errors.New("duplicate key")

// ErrReferenced is returned when a foreign key is violated: either a row
// points at a missing parent, or a delete targets a row other rows still
// reference.  Handlers translate it into HTTP 409.
var ErrReferenced = errors.New("referential integrity violation")

// classify maps driver errors onto the sentinels above.  Unknown errors are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062:
			return fmt.Errorf("%w: %s", ErrDuplicate, me.Message)
		case 1451, 1452:
			return fmt.Errorf("%w: %s", ErrReferenced, me.Message)
		}
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pe.Message)
		case "23503":
			return fmt.Errorf("%w: %s", ErrReferenced, pe.Message)
		}
	}
	return err
}
