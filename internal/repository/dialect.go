package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// insertID runs an INSERT written with ? placeholders and returns the new
// primary key.  Postgres has no LastInsertId, so the statement is extended
// with RETURNING id there.
func insertID(ctx context.Context, db *sqlx.DB, query string, args ...any) (uint64, error) {
	q := db.Rebind(query)
	if db.DriverName() == "postgres" {
		var id uint64
		if err := db.QueryRowxContext(ctx, q+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, classify(err)
		}
		return id, nil
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// setList accumulates "column = ?" assignments for partial updates.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setList) empty() bool { return len(s.cols) == 0 }

func (s *setList) sql() string { return strings.Join(s.cols, ", ") }

// deleteByID removes a row and treats a missing id as success.
func deleteByID(ctx context.Context, db *sqlx.DB, table string, id uint64) error {
	_, err := db.ExecContext(ctx, db.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	return classify(err)
}
