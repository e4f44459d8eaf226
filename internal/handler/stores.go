package handler

import (
	"context"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

// Repository slices used by the CRUD handlers.  The SQL repositories and the
// in-memory test store both satisfy them.

type UserRepository interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, in model.NewUser) (*model.User, error)
	Update(ctx context.Context, id uint64, p model.UserPatch) (*model.User, error)
	Delete(ctx context.Context, id uint64) error
}

type StudentRepository interface {
	GetByID(ctx context.Context, id uint64) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Create(ctx context.Context, in model.NewStudent) (*model.Student, error)
	Update(ctx context.Context, id uint64, p model.StudentPatch) (*model.Student, error)
	Delete(ctx context.Context, id uint64) error
}

type BehaviorRepository interface {
	List(ctx context.Context, f model.BehaviorFilter) ([]model.BehaviorWithRefs, error)
	Stats(ctx context.Context) (model.BehaviorStats, error)
}

type NotificationRepository interface {
	ListForRecipient(ctx context.Context, userID uint64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint64) error
}

// CacheInvalidator drops cached statistics after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
