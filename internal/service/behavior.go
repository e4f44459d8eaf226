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

// BehaviorAlertTitle is the title of every behavior_alert notification.
const BehaviorAlertTitle = "New Behavior Record"

// BehaviorInput is the create payload: the record itself plus two transient
// instructions that are never persisted.
type BehaviorInput struct {
	model.NewBehavior
	NotifyClassTeacher bool `json:"notifyClassTeacher"`
	NotifyCoach        bool `json:"notifyCoach"`
}

// RecordResult always carries the stored behavior.  FanOutErr reports why
// notification fan-out stopped early; it never fails the request.
type RecordResult struct {
	Behavior      model.Behavior
	Notifications []model.Notification
	FanOutErr     error
}

// BehaviorService records behaviors and notifies the class teacher and the
// coach of the student.
type BehaviorService struct {
	users         UserStore
	students      StudentStore
	behaviors     BehaviorStore
	notifications NotificationStore
	events        EventPublisher
	log           *logrus.Entry
}

func NewBehaviorService(users UserStore, students StudentStore, behaviors BehaviorStore,
	notifications NotificationStore, events EventPublisher, log *logrus.Entry) *BehaviorService {
	if events == nil {
		events = NopPublisher{}
	}
	return &BehaviorService{
		users:         users,
		students:      students,
		behaviors:     behaviors,
		notifications: notifications,
		events:        events,
		log:           log,
	}
}

// Record persists the behavior and then fans it out into notifications.
// Only the insert can fail the call.
func (s *BehaviorService) Record(ctx context.Context, reporterID uint64, in BehaviorInput) (*RecordResult, error) {
	b, err := s.behaviors.Create(ctx, in.NewBehavior)
	if errors.Is(err, repository.ErrReferenced) {
		return nil, &Error{Kind: KindInvalidInput, Field: "studentId", Message: "Unknown student or teacher", Err: err}
	}
	if err != nil {
		return nil, err
	}

	res := &RecordResult{Behavior: *b}
	student, reporter, notes, err := s.fanOut(ctx, reporterID, b, in)
	res.Notifications = notes
	if err != nil {
		res.FanOutErr = err
		metrics.RecordFanOutFailure("behavior")
		s.log.WithError(err).WithField("behavior_id", b.ID).Warn("behavior notification fan-out incomplete")
	}

	ev := queue.BehaviorRecordedEvent{
		BehaviorID: b.ID,
		StudentID:  b.StudentID,
		TeacherID:  b.TeacherID,
		Type:       string(b.Type),
		Category:   b.Category,
		Stage:      b.Stage,
		RecordedAt: b.Date.UTC().Format(time.RFC3339),
	}
	if student != nil {
		ev.StudentName = student.FullName
	}
	if reporter != nil {
		ev.TeacherName = reporter.FullName
	}
	for _, n := range notes {
		ev.NotifiedIDs = append(ev.NotifiedIDs, n.RecipientID)
	}
	if err := s.events.PublishBehaviorRecorded(ctx, ev); err != nil {
		s.log.WithError(err).Debug("behavior.recorded not published")
	}
	return res, nil
}

// fanOut creates up to two notifications.  It stops at the first failed
// lookup or insert and returns whatever was created so far.
func (s *BehaviorService) fanOut(ctx context.Context, reporterID uint64, b *model.Behavior, in BehaviorInput) (*model.Student, *model.User, []model.Notification, error) {
	notes := []model.Notification{}
	student, err := s.students.GetByID(ctx, b.StudentID)
	if err != nil {
		return nil, nil, notes, fmt.Errorf("lookup student %d: %w", b.StudentID, err)
	}
	reporter, err := s.users.GetByID(ctx, reporterID)
	if err != nil {
		return student, nil, notes, fmt.Errorf("lookup reporter %d: %w", reporterID, err)
	}

	text := BehaviorMessage(reporter.FullName, b.Type, student.FullName, b.Category)
	notify := func(recipientID uint64) error {
		n, err := s.notifications.Create(ctx, model.NewNotification{
			RecipientID: recipientID,
			SenderID:    &reporter.ID,
			Type:        model.NotificationBehaviorAlert,
			Title:       BehaviorAlertTitle,
			Message:     text,
			RelatedID:   &b.ID,
		})
		if err != nil {
			return fmt.Errorf("notify user %d: %w", recipientID, err)
		}
		metrics.RecordNotification(string(model.NotificationBehaviorAlert))
		notes = append(notes, *n)
		return nil
	}

	if in.NotifyClassTeacher {
		ct, err := s.users.FindClassTeacher(ctx, student.ClassName)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return student, reporter, notes, fmt.Errorf("lookup class teacher of %q: %w", student.ClassName, err)
		case ct.ID != reporter.ID:
			if err := notify(ct.ID); err != nil {
				return student, reporter, notes, err
			}
		}
	}

	// Coach and class teacher may be the same person; both get a row.
	if in.NotifyCoach && student.CoachID != nil && *student.CoachID != reporter.ID {
		if err := notify(*student.CoachID); err != nil {
			return student, reporter, notes, err
		}
	}
	return student, reporter, notes, nil
}

// BehaviorMessage composes the notification body for a behavior record.
func BehaviorMessage(reporterName string, typ model.BehaviorType, studentName, category string) string {
	return fmt.Sprintf("%s reported a %s behavior for %s: %s", reporterName, typ, studentName, category)
}
