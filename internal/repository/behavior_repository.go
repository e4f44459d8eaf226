package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

const behaviorColumns = "id, student_id, teacher_id, type, category, description, stage, date"

// BehaviorRepo persists behavior records.  Records are append-only.
type BehaviorRepo struct{ db *sqlx.DB }

func NewBehaviorRepo(db *sqlx.DB) *BehaviorRepo { return &BehaviorRepo{db: db} }

func (r *BehaviorRepo) GetByID(ctx context.Context, id uint64) (*model.Behavior, error) {
	var b model.Behavior
	q := r.db.Rebind("SELECT " + behaviorColumns + " FROM behaviors WHERE id = ?")
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		return nil, classify(err)
	}
	return &b, nil
}

// Create inserts a behavior record stamped with the current time.  A nil
// stage becomes model.DefaultStage.
func (r *BehaviorRepo) Create(ctx context.Context, in model.NewBehavior) (*model.Behavior, error) {
	stage := model.DefaultStage
	if in.Stage != nil {
		stage = *in.Stage
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	id, err := insertID(ctx, r.db,
		`INSERT INTO behaviors (student_id, teacher_id, type, category, description, stage, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.StudentID, in.TeacherID, in.Type, in.Category, in.Description, stage, now)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// behaviorRow is the flat shape of the joined listing query.  Student and
// teacher columns are nullable because of the LEFT JOINs.
type behaviorRow struct {
	model.Behavior

	SID           sql.NullInt64  `db:"s_id"`
	SNumber       sql.NullString `db:"s_student_number"`
	SFullName     sql.NullString `db:"s_full_name"`
	SClassName    sql.NullString `db:"s_class_name"`
	SParentName   *string        `db:"s_parent_name"`
	SParentPhone  *string        `db:"s_parent_phone"`
	SCoachID      *uint64        `db:"s_coach_id"`
	SStatus       sql.NullString `db:"s_status"`
	SCreatedAt    sql.NullTime   `db:"s_created_at"`
	TID           sql.NullInt64  `db:"t_id"`
	TUsername     sql.NullString `db:"t_username"`
	TFullName     sql.NullString `db:"t_full_name"`
	TEmail        sql.NullString `db:"t_email"`
	TRole         sql.NullString `db:"t_role"`
	TClassTeacher *string        `db:"t_class_teacher_of"`
	TCoachGroup   *string        `db:"t_coach_group"`
	TIsFirstLogin sql.NullBool   `db:"t_is_first_login"`
	TStatus       sql.NullString `db:"t_status"`
	TCreatedAt    sql.NullTime   `db:"t_created_at"`
}

func (row behaviorRow) refs() model.BehaviorWithRefs {
	out := model.BehaviorWithRefs{Behavior: row.Behavior}
	if row.SID.Valid {
		out.Student = &model.Student{
			ID:            uint64(row.SID.Int64),
			StudentNumber: row.SNumber.String,
			FullName:      row.SFullName.String,
			ClassName:     row.SClassName.String,
			ParentName:    row.SParentName,
			ParentPhone:   row.SParentPhone,
			CoachID:       row.SCoachID,
			Status:        model.Status(row.SStatus.String),
			CreatedAt:     row.SCreatedAt.Time,
		}
	}
	if row.TID.Valid {
		out.Teacher = &model.User{
			ID:             uint64(row.TID.Int64),
			Username:       row.TUsername.String,
			FullName:       row.TFullName.String,
			Email:          row.TEmail.String,
			Role:           model.Role(row.TRole.String),
			ClassTeacherOf: row.TClassTeacher,
			CoachGroup:     row.TCoachGroup,
			IsFirstLogin:   row.TIsFirstLogin.Bool,
			Status:         model.Status(row.TStatus.String),
			CreatedAt:      row.TCreatedAt.Time,
		}
	}
	return out
}

const behaviorListSelect = `SELECT b.id, b.student_id, b.teacher_id, b.type, b.category, b.description, b.stage, b.date,
	s.id AS s_id, s.student_number AS s_student_number, s.full_name AS s_full_name, s.class_name AS s_class_name,
	s.parent_name AS s_parent_name, s.parent_phone AS s_parent_phone, s.coach_id AS s_coach_id,
	s.status AS s_status, s.created_at AS s_created_at,
	t.id AS t_id, t.username AS t_username, t.full_name AS t_full_name, t.email AS t_email, t.role AS t_role,
	t.class_teacher_of AS t_class_teacher_of, t.coach_group AS t_coach_group,
	t.is_first_login AS t_is_first_login, t.status AS t_status, t.created_at AS t_created_at
FROM behaviors b
LEFT JOIN students s ON s.id = b.student_id
LEFT JOIN users t ON t.id = b.teacher_id`

// List returns behavior records newest first, each joined with its student
// and reporting teacher.  The teacher's password hash is never selected.
func (r *BehaviorRepo) List(ctx context.Context, f model.BehaviorFilter) ([]model.BehaviorWithRefs, error) {
	var (
		where []string
		args  []any
	)
	if f.StudentID != 0 {
		where = append(where, "b.student_id = ?")
		args = append(args, f.StudentID)
	}
	if f.TeacherID != 0 {
		where = append(where, "b.teacher_id = ?")
		args = append(args, f.TeacherID)
	}
	q := behaviorListSelect
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY b.date DESC, b.id DESC"

	var rows []behaviorRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]model.BehaviorWithRefs, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.refs())
	}
	return out, nil
}

// Stats counts all behavior records in one pass.
func (r *BehaviorRepo) Stats(ctx context.Context) (model.BehaviorStats, error) {
	var st model.BehaviorStats
	err := r.db.GetContext(ctx, &st, `SELECT COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN type = 'positive' THEN 1 ELSE 0 END), 0) AS positive,
		COALESCE(SUM(CASE WHEN type = 'negative' THEN 1 ELSE 0 END), 0) AS negative
		FROM behaviors`)
	return st, err
}
