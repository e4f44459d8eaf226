package model

import "time"

// BehaviorType is either positive or negative.
type BehaviorType string

const (
	BehaviorPositive BehaviorType = "positive"
	BehaviorNegative BehaviorType = "negative"
)

// DefaultStage is applied when a record is created without a stage.
const DefaultStage = 1

// Behavior is an immutable behavior record from the `behaviors` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	StudentID   – student the record is about.
//	TeacherID   – reporting user.
//	Type        – positive or negative.
//	Category    – free-form category such as "Late".
//	Description – optional detail text.
//	Stage       – escalation level, 1 by default.
//	Date        – when the record was created.
type Behavior struct {
	ID          uint64       `db:"id" json:"id"`
	StudentID   uint64       `db:"student_id" json:"studentId"`
	TeacherID   uint64       `db:"teacher_id" json:"teacherId"`
	Type        BehaviorType `db:"type" json:"type"`
	Category    string       `db:"category" json:"category"`
	Description *string      `db:"description" json:"description"`
	Stage       int          `db:"stage" json:"stage"`
	Date        time.Time    `db:"date" json:"date"`
}

// NewBehavior is the insert shape for behavior records.  The date is always
// assigned by the server.
type NewBehavior struct {
	StudentID   uint64       `json:"studentId" validate:"required"`
	TeacherID   uint64       `json:"teacherId" validate:"required"`
	Type        BehaviorType `json:"type" validate:"required,oneof=positive negative"`
	Category    string       `json:"category" validate:"required,max=255"`
	Description *string      `json:"description"`
	Stage       *int         `json:"stage" validate:"omitempty,min=0"`
}

// BehaviorWithRefs is a behavior joined with its student and reporting
// teacher.  Either side may be nil when the referenced row is gone.
type BehaviorWithRefs struct {
	Behavior
	Student *Student `json:"student"`
	Teacher *User    `json:"teacher"`
}

// BehaviorFilter narrows a behavior listing.  Zero values mean no filter.
type BehaviorFilter struct {
	StudentID uint64
	TeacherID uint64
}

// BehaviorStats holds whole-table counts.
type BehaviorStats struct {
	Total    int64 `db:"total" json:"total"`
	Positive int64 `db:"positive" json:"positive"`
	Negative int64 `db:"negative" json:"negative"`
}
