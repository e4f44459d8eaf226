package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

const userColumns = "id, username, password, full_name, email, role, class_teacher_of, coach_group, is_first_login, status, created_at"

// UserRepo persists staff accounts.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID fetches a user by id.  It returns ErrNotFound if no row matches.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	q := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	q := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE username = ? LIMIT 1")
	if err := r.db.GetContext(ctx, &u, q, strings.TrimSpace(username)); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// FindClassTeacher returns the user whose class_teacher_of equals className.
// Uniqueness is a convention only, so the oldest account wins.
func (r *UserRepo) FindClassTeacher(ctx context.Context, className string) (*model.User, error) {
	var u model.User
	q := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE class_teacher_of = ? ORDER BY id LIMIT 1")
	if err := r.db.GetContext(ctx, &u, q, className); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// List returns all users ordered by full name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users ORDER BY full_name, id"); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of users; the seeder only runs on an empty table.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users")
	return n, err
}

// Create inserts a user.  in.Password must already be hashed.  Role and
// status default to teacher/active; is_first_login always starts true.
func (r *UserRepo) Create(ctx context.Context, in model.NewUser) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = model.RoleTeacher
	}
	status := in.Status
	if status == "" {
		status = model.StatusActive
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO users (username, password, full_name, email, role, class_teacher_of, coach_group, is_first_login, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.Username), in.Password, in.FullName, in.Email, role, in.ClassTeacherOf, in.CoachGroup, true, status)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update merges the set fields of p into the user row.  p.Password, when
// present, must already be hashed.  ErrNotFound is returned for unknown ids.
func (r *UserRepo) Update(ctx context.Context, id uint64, p model.UserPatch) (*model.User, error) {
	var s setList
	if p.Username != nil {
		s.add("username", strings.TrimSpace(*p.Username))
	}
	if p.Password != nil {
		s.add("password", *p.Password)
	}
	if p.FullName != nil {
		s.add("full_name", *p.FullName)
	}
	if p.Email != nil {
		s.add("email", *p.Email)
	}
	if p.Role != nil {
		s.add("role", *p.Role)
	}
	if p.ClassTeacherOf.Set {
		s.add("class_teacher_of", p.ClassTeacherOf.Value)
	}
	if p.CoachGroup.Set {
		s.add("coach_group", p.CoachGroup.Value)
	}
	if p.IsFirstLogin != nil {
		s.add("is_first_login", *p.IsFirstLogin)
	}
	if p.Status != nil {
		s.add("status", *p.Status)
	}
	if s.empty() {
		return r.GetByID(ctx, id)
	}
	// RowsAffected is unreliable for no-op updates on MySQL, so existence
	// is checked up front.
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	q := r.db.Rebind("UPDATE users SET " + s.sql() + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, q, append(s.args, id)...); err != nil {
		return nil, classify(err)
	}
	return r.GetByID(ctx, id)
}

// SetPassword stores a new hash and clears the first-login flag.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	q := r.db.Rebind("UPDATE users SET password = ?, is_first_login = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, q, hash, false, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user.  Deleting a missing id succeeds; deleting a user
// still referenced by students, behaviors, notifications or messages fails
// with ErrReferenced.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "users", id)
}
