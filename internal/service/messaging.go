package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/school-behavior-tracker/internal/metrics"
	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/queue"
	"github.com/iliyamo/school-behavior-tracker/internal/repository"
)

// PreviewLength is the number of characters of a message copied into its
// notification.
const PreviewLength = 50

// SendResult always carries the stored message.  FanOutErr is set when the
// recipient could not be notified.
type SendResult struct {
	Message      model.Message
	Notification *model.Notification
	FanOutErr    error
}

// MessageService sends direct messages and notifies recipients.
type MessageService struct {
	users         UserStore
	messages      MessageStore
	notifications NotificationStore
	events        EventPublisher
	log           *logrus.Entry
}

func NewMessageService(users UserStore, messages MessageStore, notifications NotificationStore,
	events EventPublisher, log *logrus.Entry) *MessageService {
	if events == nil {
		events = NopPublisher{}
	}
	return &MessageService{users: users, messages: messages, notifications: notifications, events: events, log: log}
}

// Send stores a message from sessionUserID.  The payload's senderId must
// match the session, otherwise nothing is stored.
func (s *MessageService) Send(ctx context.Context, sessionUserID uint64, in model.NewMessage) (*SendResult, error) {
	if in.SenderID != sessionUserID {
		return nil, Forbidden("Sender mismatch")
	}
	m, err := s.messages.Create(ctx, in)
	if errors.Is(err, repository.ErrReferenced) {
		return nil, &Error{Kind: KindInvalidInput, Field: "recipientId", Message: "Unknown recipient", Err: err}
	}
	if err != nil {
		return nil, err
	}

	res := &SendResult{Message: *m}
	preview := TruncatePreview(m.Content)
	sender, err := s.users.GetByID(ctx, sessionUserID)
	if err == nil {
		res.Notification, err = s.notifications.Create(ctx, model.NewNotification{
			RecipientID: m.RecipientID,
			SenderID:    &sender.ID,
			Type:        model.NotificationMessage,
			Title:       "New message from " + sender.FullName,
			Message:     preview,
			RelatedID:   &m.ID,
		})
	}
	if err != nil {
		res.FanOutErr = fmt.Errorf("notify recipient %d: %w", m.RecipientID, err)
		metrics.RecordFanOutFailure("message")
		s.log.WithError(res.FanOutErr).WithField("message_id", m.ID).Warn("message notification not created")
	} else {
		metrics.RecordNotification(string(model.NotificationMessage))
	}

	ev := queue.MessageSentEvent{
		MessageID:   m.ID,
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Preview:     preview,
		SentAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if sender != nil {
		ev.SenderName = sender.FullName
	}
	if err := s.events.PublishMessageSent(ctx, ev); err != nil {
		s.log.WithError(err).Debug("message.sent not published")
	}
	return res, nil
}

// Conversation lists messages involving userID, optionally only those
// exchanged with contactID.
func (s *MessageService) Conversation(ctx context.Context, userID, contactID uint64) ([]model.Message, error) {
	return s.messages.ListForUser(ctx, userID, contactID)
}

// TruncatePreview keeps the first PreviewLength characters of content and
// appends "..." when something was cut.
func TruncatePreview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewLength {
		return content
	}
	return string(r[:PreviewLength]) + "..."
}
