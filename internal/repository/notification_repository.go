package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

const notificationColumns = "id, recipient_id, sender_id, type, title, message, related_id, is_read, created_at"

// NotificationRepo persists per-user notifications.
type NotificationRepo struct{ db *sqlx.DB }

func NewNotificationRepo(db *sqlx.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) GetByID(ctx context.Context, id uint64) (*model.Notification, error) {
	var n model.Notification
	q := r.db.Rebind("SELECT " + notificationColumns + " FROM notifications WHERE id = ?")
	if err := r.db.GetContext(ctx, &n, q, id); err != nil {
		return nil, classify(err)
	}
	return &n, nil
}

// Create inserts an unread notification.
func (r *NotificationRepo) Create(ctx context.Context, in model.NewNotification) (*model.Notification, error) {
	id, err := insertID(ctx, r.db,
		`INSERT INTO notifications (recipient_id, sender_id, type, title, message, related_id, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.RecipientID, in.SenderID, in.Type, in.Title, in.Message, in.RelatedID, false)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListForRecipient returns the newest notifications addressed to userID,
// capped at model.NotificationListLimit.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, userID uint64) ([]model.Notification, error) {
	out := []model.Notification{}
	q := r.db.Rebind("SELECT " + notificationColumns + " FROM notifications WHERE recipient_id = ? ORDER BY created_at DESC, id DESC LIMIT ?")
	if err := r.db.SelectContext(ctx, &out, q, userID, model.NotificationListLimit); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead flags a notification as read.  Only the recipient can do so;
// unknown ids and foreign notifications are silently ignored, and marking
// twice is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID uint64) error {
	q := r.db.Rebind("UPDATE notifications SET is_read = ? WHERE id = ? AND recipient_id = ?")
	_, err := r.db.ExecContext(ctx, q, true, id, recipientID)
	return classify(err)
}
