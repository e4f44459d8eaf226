package service

import (
	"context"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/queue"
)

// The interfaces below are the slices of the repositories the workflows
// need.  *repository.XRepo values satisfy them; tests use in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	FindClassTeacher(ctx context.Context, className string) (*model.User, error)
	SetPassword(ctx context.Context, id uint64, hash string) error
}

type StudentStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Student, error)
}

type BehaviorStore interface {
	Create(ctx context.Context, in model.NewBehavior) (*model.Behavior, error)
}

type NotificationStore interface {
	Create(ctx context.Context, in model.NewNotification) (*model.Notification, error)
}

type MessageStore interface {
	Create(ctx context.Context, in model.NewMessage) (*model.Message, error)
	ListForUser(ctx context.Context, userID, contactID uint64) ([]model.Message, error)
}

// EventPublisher emits domain events after a workflow completes.
// *queue.Publisher is the production implementation.
type EventPublisher interface {
	PublishBehaviorRecorded(ctx context.Context, ev queue.BehaviorRecordedEvent) error
	PublishMessageSent(ctx context.Context, ev queue.MessageSentEvent) error
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) PublishBehaviorRecorded(context.Context, queue.BehaviorRecordedEvent) error {
	return nil
}

func (NopPublisher) PublishMessageSent(context.Context, queue.MessageSentEvent) error { return nil }
