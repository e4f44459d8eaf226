package model

import "time"

// Role is the staff role stored in users.role.  Roles are informational;
// every authenticated user may call every data route.
type Role string

const (
	RoleTeacher   Role = "teacher"
	RoleAdmin     Role = "admin"
	RolePrincipal Role = "principal"
)

// Status marks users and students as active or archived.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// User represents a staff account as stored in the `users` table.
//
// Fields:
//
//	ID             – primary key identifier.
//	Username       – unique login name (firstname.lastname by convention).
//	PasswordHash   – scrypt record "hex(key).hex(salt)".
//	FullName       – display name used in notification texts.
//	Email          – contact address.
//	Role           – teacher, admin or principal.
//	ClassTeacherOf – class name this user is class teacher of (nullable).
//	CoachGroup     – coaching group label (nullable).
//	IsFirstLogin   – true until the user changes the initial password.
//	Status         – active or archived.
//	CreatedAt      – timestamp of creation.
type User struct {
	ID             uint64    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	PasswordHash   string    `db:"password" json:"password,omitempty"`
	FullName       string    `db:"full_name" json:"fullName"`
	Email          string    `db:"email" json:"email"`
	Role           Role      `db:"role" json:"role"`
	ClassTeacherOf *string   `db:"class_teacher_of" json:"classTeacherOf"`
	CoachGroup     *string   `db:"coach_group" json:"coachGroup"`
	IsFirstLogin   bool      `db:"is_first_login" json:"isFirstLogin"`
	Status         Status    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Public returns a copy of u without the password hash.  Every route except
// login and /api/user responds with public copies.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// PublicUsers strips password hashes from a list of users.
func PublicUsers(in []User) []User {
	out := make([]User, len(in))
	for i, u := range in {
		out[i] = u.Public()
	}
	return out
}

// NewUser is the insert shape for users.  Server-assigned fields (id,
// createdAt, isFirstLogin) are not accepted from clients.  Password holds the
// plain password on input; handlers replace it with the hash before the
// record reaches the repository.
type NewUser struct {
	Username       string  `json:"username" validate:"required,max=100"`
	Password       string  `json:"password"`
	FullName       string  `json:"fullName" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,max=255"`
	Role           Role    `json:"role" validate:"omitempty,oneof=teacher admin principal"`
	ClassTeacherOf *string `json:"classTeacherOf"`
	CoachGroup     *string `json:"coachGroup"`
	Status         Status  `json:"status" validate:"omitempty,oneof=active archived"`
}

// UserPatch carries a partial user update.  Nil pointers and unset
// Optionals leave the column untouched.
type UserPatch struct {
	Username       *string          `json:"username" validate:"omitempty,min=1,max=100"`
	Password       *string          `json:"password" validate:"omitempty,min=6"`
	FullName       *string          `json:"fullName" validate:"omitempty,min=1,max=255"`
	Email          *string          `json:"email" validate:"omitempty,min=1,max=255"`
	Role           *Role            `json:"role" validate:"omitempty,oneof=teacher admin principal"`
	ClassTeacherOf Optional[string] `json:"classTeacherOf"`
	CoachGroup     Optional[string] `json:"coachGroup"`
	IsFirstLogin   *bool            `json:"isFirstLogin"`
	Status         *Status          `json:"status" validate:"omitempty,oneof=active archived"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordChange is the change-password payload.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}
