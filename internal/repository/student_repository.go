package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

const studentColumns = "id, student_number, full_name, class_name, parent_name, parent_phone, coach_id, status, created_at"

// StudentRepo persists student records.
type StudentRepo struct{ db *sqlx.DB }

func NewStudentRepo(db *sqlx.DB) *StudentRepo { return &StudentRepo{db: db} }

func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (*model.Student, error) {
	var s model.Student
	q := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE id = ?")
	if err := r.db.GetContext(ctx, &s, q, id); err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

// GetByNumber looks a student up by school number.
func (r *StudentRepo) GetByNumber(ctx context.Context, number string) (*model.Student, error) {
	var s model.Student
	q := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE student_number = ?")
	if err := r.db.GetContext(ctx, &s, q, strings.TrimSpace(number)); err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

// List returns all students ordered by class and name.
func (r *StudentRepo) List(ctx context.Context) ([]model.Student, error) {
	out := []model.Student{}
	if err := r.db.SelectContext(ctx, &out, "SELECT "+studentColumns+" FROM students ORDER BY class_name, student_number, id"); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a student; a duplicate student_number yields ErrDuplicate
// and an unknown coach yields ErrReferenced.
func (r *StudentRepo) Create(ctx context.Context, in model.NewStudent) (*model.Student, error) {
	status := in.Status
	if status == "" {
		status = model.StatusActive
	}
	id, err := insertID(ctx, r.db,
		`INSERT INTO students (student_number, full_name, class_name, parent_name, parent_phone, coach_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(in.StudentNumber), in.FullName, in.ClassName, in.ParentName, in.ParentPhone, in.CoachID, status)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Update merges the set fields of p into the student row.
func (r *StudentRepo) Update(ctx context.Context, id uint64, p model.StudentPatch) (*model.Student, error) {
	var s setList
	if p.StudentNumber != nil {
		s.add("student_number", strings.TrimSpace(*p.StudentNumber))
	}
	if p.FullName != nil {
		s.add("full_name", *p.FullName)
	}
	if p.ClassName != nil {
		s.add("class_name", *p.ClassName)
	}
	if p.ParentName.Set {
		s.add("parent_name", p.ParentName.Value)
	}
	if p.ParentPhone.Set {
		s.add("parent_phone", p.ParentPhone.Value)
	}
	if p.CoachID.Set {
		s.add("coach_id", p.CoachID.Value)
	}
	if p.Status != nil {
		s.add("status", *p.Status)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.empty() {
		return r.GetByID(ctx, id)
	}
	q := r.db.Rebind("UPDATE students SET " + s.sql() + " WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, q, append(s.args, id)...); err != nil {
		return nil, classify(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a student.  Students with behavior records cannot be
// deleted (ErrReferenced); a missing id is not an error.
func (r *StudentRepo) Delete(ctx context.Context, id uint64) error {
	return deleteByID(ctx, r.db, "students", id)
}
