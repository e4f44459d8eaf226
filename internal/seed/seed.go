// Package seed loads a small demo school into an empty database.
package seed

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/utils"
)

type UserCreator interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, in model.NewUser) (*model.User, error)
}

type StudentCreator interface {
	Create(ctx context.Context, in model.NewStudent) (*model.Student, error)
}

type BehaviorCreator interface {
	Create(ctx context.Context, in model.NewBehavior) (*model.Behavior, error)
}

// Demo inserts three staff accounts, three students and two behavior
// records, all sharing password.  It does nothing when any user exists and
// reports whether data was written.
func Demo(ctx context.Context, users UserCreator, students StudentCreator, behaviors BehaviorCreator, password string, log *logrus.Entry) (bool, error) {
	n, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}

	str := func(s string) *string { return &s }
	mkUser := func(username, fullName string, role model.Role, class, group *string) (*model.User, error) {
		return users.Create(ctx, model.NewUser{
			Username:       username,
			Password:       hash,
			FullName:       fullName,
			Email:          username + "@paletokullari.k12.tr",
			Role:           role,
			ClassTeacherOf: class,
			CoachGroup:     group,
		})
	}
	musa, err := mkUser("musa.isler", "Musa Isler", model.RoleTeacher, str("9-A"), str("Group 1"))
	if err != nil {
		return false, err
	}
	ayse, err := mkUser("ayse.yilmaz", "Ayse Yilmaz", model.RoleTeacher, str("10-B"), str("Group 2"))
	if err != nil {
		return false, err
	}
	if _, err := mkUser("mehmet.demir", "Mehmet Demir", model.RoleAdmin, nil, nil); err != nil {
		return false, err
	}

	mkStudent := func(number, name, class, parent, phone string, coach uint64) (*model.Student, error) {
		return students.Create(ctx, model.NewStudent{
			StudentNumber: number,
			FullName:      name,
			ClassName:     class,
			ParentName:    str(parent),
			ParentPhone:   str(phone),
			CoachID:       &coach,
		})
	}
	ali, err := mkStudent("101", "Ali Veli", "9-A", "Veli Baba", "555-111-1111", musa.ID)
	if err != nil {
		return false, err
	}
	if _, err := mkStudent("102", "Zeynep Kaya", "9-A", "Fatma Anne", "555-222-2222", musa.ID); err != nil {
		return false, err
	}
	if _, err := mkStudent("201", "Can Yildiz", "10-B", "Ahmet Baba", "555-333-3333", ayse.ID); err != nil {
		return false, err
	}

	one, zero := 1, 0
	records := []model.NewBehavior{
		{StudentID: ali.ID, TeacherID: ayse.ID, Type: model.BehaviorNegative, Category: "Derse Geç Kalma", Description: str("10 dakika geç geldi."), Stage: &one},
		{StudentID: ali.ID, TeacherID: musa.ID, Type: model.BehaviorPositive, Category: "Diğer", Description: str("Arkadaşına yardım etti."), Stage: &zero},
	}
	for _, r := range records {
		if _, err := behaviors.Create(ctx, r); err != nil {
			return false, err
		}
	}
	log.Info("database seeded with demo data")
	return true, nil
}
