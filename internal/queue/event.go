// Package queue defines the domain events exchanged over RabbitMQ together
// with the publisher used by the API and the audit consumer.
package queue

// Queue names double as routing keys on the default exchange.
const (
	BehaviorRecordedQueue = "behavior.recorded"
	MessageSentQueue      = "message.sent"
)

// BehaviorRecordedEvent is published after a behavior record was stored and
// its notifications were fanned out.  Names are denormalised so consumers
// never query the primary database.
type BehaviorRecordedEvent struct {
	BehaviorID  uint64   `json:"behavior_id"`
	StudentID   uint64   `json:"student_id"`
	StudentName string   `json:"student_name"`
	TeacherID   uint64   `json:"teacher_id"`
	TeacherName string   `json:"teacher_name"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Stage       int      `json:"stage"`
	NotifiedIDs []uint64 `json:"notified_user_ids"`
	RecordedAt  string   `json:"recorded_at"`
}

// MessageSentEvent is published after a direct message was stored.  Only the
// truncated preview travels over the broker.
type MessageSentEvent struct {
	MessageID   uint64 `json:"message_id"`
	SenderID    uint64 `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	RecipientID uint64 `json:"recipient_id"`
	Preview     string `json:"preview"`
	SentAt      string `json:"sent_at"`
}
