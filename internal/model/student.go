package model

import "time"

// Student represents a row in the `students` table.
//
// Fields:
//
//	ID            – primary key identifier.
//	StudentNumber – unique school number.
//	FullName      – student's name.
//	ClassName     – class label such as "9-A"; matched against users.class_teacher_of.
//	ParentName    – guardian name (nullable).
//	ParentPhone   – guardian phone (nullable).
//	CoachID       – users.id of the coaching teacher (nullable, not cascading).
//	Status        – active or archived.
//	CreatedAt     – timestamp of creation.
type Student struct {
	ID            uint64    `db:"id" json:"id"`
	StudentNumber string    `db:"student_number" json:"studentNumber"`
	FullName      string    `db:"full_name" json:"fullName"`
	ClassName     string    `db:"class_name" json:"className"`
	ParentName    *string   `db:"parent_name" json:"parentName"`
	ParentPhone   *string   `db:"parent_phone" json:"parentPhone"`
	CoachID       *uint64   `db:"coach_id" json:"coachId"`
	Status        Status    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// NewStudent is the insert shape for students.
type NewStudent struct {
	StudentNumber string  `json:"studentNumber" validate:"required,max=64"`
	FullName      string  `json:"fullName" validate:"required,max=255"`
	ClassName     string  `json:"className" validate:"required,max=64"`
	ParentName    *string `json:"parentName"`
	ParentPhone   *string `json:"parentPhone"`
	CoachID       *uint64 `json:"coachId"`
	Status        Status  `json:"status" validate:"omitempty,oneof=active archived"`
}

// StudentPatch carries a partial student update.
type StudentPatch struct {
	StudentNumber *string          `json:"studentNumber" validate:"omitempty,min=1,max=64"`
	FullName      *string          `json:"fullName" validate:"omitempty,min=1,max=255"`
	ClassName     *string          `json:"className" validate:"omitempty,min=1,max=64"`
	ParentName    Optional[string] `json:"parentName"`
	ParentPhone   Optional[string] `json:"parentPhone"`
	CoachID       Optional[uint64] `json:"coachId"`
	Status        *Status          `json:"status" validate:"omitempty,oneof=active archived"`
}
