package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
)

const messageColumns = "id, sender_id, recipient_id, content, is_read, created_at"

// MessageRepo persists direct messages between users.
type MessageRepo struct{ db *sqlx.DB }

func NewMessageRepo(db *sqlx.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (*model.Message, error) {
	var m model.Message
	q := r.db.Rebind("SELECT " + messageColumns + " FROM messages WHERE id = ?")
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

// Create inserts an unread message.  Unknown sender or recipient ids fail
// with ErrReferenced.
func (r *MessageRepo) Create(ctx context.Context, in model.NewMessage) (*model.Message, error) {
	id, err := insertID(ctx, r.db,
		"INSERT INTO messages (sender_id, recipient_id, content, is_read) VALUES (?, ?, ?, ?)",
		in.SenderID, in.RecipientID, in.Content, false)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ListForUser returns messages involving userID, newest first.  A non-zero
// contactID narrows the result to the conversation between the two users.
func (r *MessageRepo) ListForUser(ctx context.Context, userID, contactID uint64) ([]model.Message, error) {
	out := []model.Message{}
	var (
		q    string
		args []any
	)
	if contactID != 0 {
		q = "SELECT " + messageColumns + ` FROM messages
			WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
			ORDER BY created_at DESC, id DESC LIMIT ?`
		args = []any{userID, contactID, contactID, userID, model.MessageListLimit}
	} else {
		q = "SELECT " + messageColumns + ` FROM messages
			WHERE sender_id = ? OR recipient_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?`
		args = []any{userID, userID, model.MessageListLimit}
	}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}
