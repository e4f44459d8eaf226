package model

import "time"

// NotificationType identifies what triggered a notification.
type NotificationType string

const (
	NotificationBehaviorAlert NotificationType = "behavior_alert"
	NotificationMessage       NotificationType = "message"
)

// Notification represents a row in the `notifications` table.
//
// Fields:
//
//	ID          – primary key identifier.
//	RecipientID – user the notification is addressed to.
//	SenderID    – originating user; nil for system notifications.
//	Type        – behavior_alert or message.
//	Title       – short headline.
//	Message     – body text.
//	RelatedID   – id of the behavior or message that triggered it.
//	IsRead      – read flag, false on creation.
//	CreatedAt   – timestamp of creation.
type Notification struct {
	ID          uint64           `db:"id" json:"id"`
	RecipientID uint64           `db:"recipient_id" json:"recipientId"`
	SenderID    *uint64          `db:"sender_id" json:"senderId"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	RelatedID   *uint64          `db:"related_id" json:"relatedId"`
	IsRead      bool             `db:"is_read" json:"isRead"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}

// NewNotification is the insert shape for notifications.
type NewNotification struct {
	RecipientID uint64
	SenderID    *uint64
	Type        NotificationType
	Title       string
	Message     string
	RelatedID   *uint64
}

// Message represents a row in the `messages` table.
type Message struct {
	ID          uint64    `db:"id" json:"id"`
	SenderID    uint64    `db:"sender_id" json:"senderId"`
	RecipientID uint64    `db:"recipient_id" json:"recipientId"`
	Content     string    `db:"content" json:"content"`
	IsRead      bool      `db:"is_read" json:"isRead"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// NewMessage is the insert shape for direct messages.
type NewMessage struct {
	SenderID    uint64 `json:"senderId" validate:"required"`
	RecipientID uint64 `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,max=5000"`
}

// Limits applied to polled lists.
const (
	NotificationListLimit = 50
	MessageListLimit      = 100
)
