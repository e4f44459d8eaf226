package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-behavior-tracker/internal/logging"
	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/queue"
	"github.com/iliyamo/school-behavior-tracker/internal/repository"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
	"github.com/iliyamo/school-behavior-tracker/internal/testutil"
	"github.com/iliyamo/school-behavior-tracker/internal/utils"
	"github.com/iliyamo/school-behavior-tracker/internal/validate"
)

type recordingPublisher struct {
	mu        sync.Mutex
	behaviors []queue.BehaviorRecordedEvent
	messages  []queue.MessageSentEvent
	err       error
}

func (p *recordingPublisher) PublishBehaviorRecorded(_ context.Context, ev queue.BehaviorRecordedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.behaviors = append(p.behaviors, ev)
	return p.err
}

func (p *recordingPublisher) PublishMessageSent(_ context.Context, ev queue.MessageSentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, ev)
	return p.err
}

// school seeds the fixture used by the workflow tests: an admin, a teacher
// who is class teacher of 9-A, and a student in 9-A coached by that teacher.
type school struct {
	db      *testutil.MemDB
	admin   model.User
	teacher model.User
	other   model.User
	student model.Student
}

func newSchool(t *testing.T) *school {
	t.Helper()
	db := testutil.NewMemDB()
	s := &school{db: db}
	s.admin = testutil.MustUser(t, db, model.NewUser{Username: "musa.isler", FullName: "Musa Isler", Role: model.RoleAdmin})
	s.teacher = testutil.MustUser(t, db, model.NewUser{Username: "ayse.yilmaz", FullName: "Ayse Yilmaz", ClassTeacherOf: testutil.Ptr("9-A")})
	s.other = testutil.MustUser(t, db, model.NewUser{Username: "mehmet.demir", FullName: "Mehmet Demir", ClassTeacherOf: testutil.Ptr("10-B")})
	s.student = testutil.MustStudent(t, db, model.NewStudent{
		StudentNumber: "101", FullName: "Ali Veli", ClassName: "9-A", CoachID: &s.teacher.ID,
	})
	return s
}

func (s *school) behaviorService(pub service.EventPublisher) *service.BehaviorService {
	return service.NewBehaviorService(s.db.Users(), s.db.Students(), s.db.Behaviors(), s.db.Notifications(), pub, logging.Discard())
}

func (s *school) input(reporter model.User, classTeacher, coach bool) service.BehaviorInput {
	return service.BehaviorInput{
		NewBehavior: model.NewBehavior{
			StudentID: s.student.ID, TeacherID: reporter.ID,
			Type: model.BehaviorNegative, Category: "Late",
		},
		NotifyClassTeacher: classTeacher,
		NotifyCoach:        coach,
	}
}

func TestRecord_NotifiesClassTeacher(t *testing.T) {
	s := newSchool(t)
	res, err := s.behaviorService(nil).Record(context.Background(), s.admin.ID, s.input(s.admin, true, false))
	require.NoError(t, err)
	require.NoError(t, res.FanOutErr)

	notes := s.db.AllNotifications()
	require.Len(t, notes, 1)
	n := notes[0]
	assert.Equal(t, s.teacher.ID, n.RecipientID)
	assert.Equal(t, model.NotificationBehaviorAlert, n.Type)
	assert.Equal(t, service.BehaviorAlertTitle, n.Title)
	assert.Equal(t, "Musa Isler reported a negative behavior for Ali Veli: Late", n.Message)
	require.NotNil(t, n.RelatedID)
	assert.Equal(t, res.Behavior.ID, *n.RelatedID)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, s.admin.ID, *n.SenderID)
	assert.False(t, n.IsRead)
}

func TestRecord_SameClassTeacherAndCoachGetsTwoNotifications(t *testing.T) {
	s := newSchool(t)
	pub := &recordingPublisher{}
	res, err := s.behaviorService(pub).Record(context.Background(), s.admin.ID, s.input(s.admin, true, true))
	require.NoError(t, err)

	assert.Len(t, res.Notifications, 2)
	notes := s.db.AllNotifications()
	require.Len(t, notes, 2)
	for _, n := range notes {
		assert.Equal(t, s.teacher.ID, n.RecipientID)
		assert.Equal(t, res.Behavior.ID, *n.RelatedID)
	}

	require.Len(t, pub.behaviors, 1)
	ev := pub.behaviors[0]
	assert.Equal(t, res.Behavior.ID, ev.BehaviorID)
	assert.Equal(t, "Ali Veli", ev.StudentName)
	assert.Equal(t, "Musa Isler", ev.TeacherName)
	assert.Equal(t, []uint64{s.teacher.ID, s.teacher.ID}, ev.NotifiedIDs)
}

func TestRecord_ReporterIsNeverNotified(t *testing.T) {
	s := newSchool(t)
	res, err := s.behaviorService(nil).Record(context.Background(), s.teacher.ID, s.input(s.teacher, true, true))
	require.NoError(t, err)
	assert.NoError(t, res.FanOutErr)
	assert.Empty(t, res.Notifications)
	assert.Empty(t, s.db.AllNotifications())
}

func TestRecord_NoFlagsNoNotifications(t *testing.T) {
	s := newSchool(t)
	res, err := s.behaviorService(nil).Record(context.Background(), s.admin.ID, s.input(s.admin, false, false))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStage, res.Behavior.Stage)
	assert.Empty(t, s.db.AllNotifications())
}

func TestRecord_NoClassTeacherForClass(t *testing.T) {
	s := newSchool(t)
	lonely := testutil.MustStudent(t, s.db, model.NewStudent{StudentNumber: "301", FullName: "Can Ak", ClassName: "11-C"})
	in := s.input(s.admin, true, true)
	in.StudentID = lonely.ID

	res, err := s.behaviorService(nil).Record(context.Background(), s.admin.ID, in)
	require.NoError(t, err)
	assert.NoError(t, res.FanOutErr)
	assert.Empty(t, s.db.AllNotifications())
}

func TestRecord_FanOutFailureKeepsRecord(t *testing.T) {
	s := newSchool(t)
	s.db.FailNotifications = errors.New("disk full")

	res, err := s.behaviorService(nil).Record(context.Background(), s.admin.ID, s.input(s.admin, true, true))
	require.NoError(t, err)
	assert.NotZero(t, res.Behavior.ID)
	assert.ErrorContains(t, res.FanOutErr, "disk full")

	list, err := s.db.Behaviors().List(context.Background(), model.BehaviorFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecord_MissingReporterSkipsFanOut(t *testing.T) {
	s := newSchool(t)
	res, err := s.behaviorService(nil).Record(context.Background(), 999, s.input(s.admin, true, true))
	require.NoError(t, err)
	assert.ErrorIs(t, res.FanOutErr, repository.ErrNotFound)
	assert.Empty(t, s.db.AllNotifications())
}

func TestRecord_UnknownStudentIsInvalidInput(t *testing.T) {
	s := newSchool(t)
	in := s.input(s.admin, true, false)
	in.StudentID = 4040

	_, err := s.behaviorService(nil).Record(context.Background(), s.admin.ID, in)
	require.Error(t, err)
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
}

func TestRecord_PublishFailureIsIgnored(t *testing.T) {
	s := newSchool(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	res, err := s.behaviorService(pub).Record(context.Background(), s.admin.ID, s.input(s.admin, true, false))
	require.NoError(t, err)
	assert.NoError(t, res.FanOutErr)
	assert.Len(t, pub.behaviors, 1)
}

func (s *school) messageService(pub service.EventPublisher) *service.MessageService {
	return service.NewMessageService(s.db.Users(), s.db.Messages(), s.db.Notifications(), pub, logging.Discard())
}

func TestSend_TruncatesPreview(t *testing.T) {
	s := newSchool(t)
	pub := &recordingPublisher{}
	content := strings.Repeat("a", 50) + "bcdef"

	res, err := s.messageService(pub).Send(context.Background(), s.admin.ID, model.NewMessage{
		SenderID: s.admin.ID, RecipientID: s.teacher.ID, Content: content,
	})
	require.NoError(t, err)
	assert.Equal(t, content, res.Message.Content)
	assert.False(t, res.Message.IsRead)

	require.NotNil(t, res.Notification)
	n := *res.Notification
	assert.Equal(t, s.teacher.ID, n.RecipientID)
	assert.Equal(t, model.NotificationMessage, n.Type)
	assert.Equal(t, "New message from Musa Isler", n.Title)
	assert.Equal(t, strings.Repeat("a", 50)+"...", n.Message)
	assert.Equal(t, res.Message.ID, *n.RelatedID)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, n.Message, pub.messages[0].Preview)
}

func TestSend_SenderMismatchIsForbidden(t *testing.T) {
	s := newSchool(t)
	_, err := s.messageService(nil).Send(context.Background(), s.teacher.ID, model.NewMessage{
		SenderID: s.admin.ID, RecipientID: s.teacher.ID, Content: "hello",
	})
	require.Error(t, err)
	assert.Equal(t, service.KindForbidden, service.KindOf(err))
	assert.Zero(t, s.db.MessageCount())
	assert.Empty(t, s.db.AllNotifications())
}

func TestSend_NotificationFailureKeepsMessage(t *testing.T) {
	s := newSchool(t)
	s.db.FailNotifications = errors.New("boom")
	res, err := s.messageService(nil).Send(context.Background(), s.admin.ID, model.NewMessage{
		SenderID: s.admin.ID, RecipientID: s.teacher.ID, Content: "hello",
	})
	require.NoError(t, err)
	assert.Error(t, res.FanOutErr)
	assert.Nil(t, res.Notification)
	assert.Equal(t, 1, s.db.MessageCount())
}

func TestSend_UnknownRecipient(t *testing.T) {
	s := newSchool(t)
	_, err := s.messageService(nil).Send(context.Background(), s.admin.ID, model.NewMessage{
		SenderID: s.admin.ID, RecipientID: 777, Content: "hello",
	})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
}

func TestConversation(t *testing.T) {
	s := newSchool(t)
	svc := s.messageService(nil)
	ctx := context.Background()
	send := func(from, to model.User, text string) {
		_, err := svc.Send(ctx, from.ID, model.NewMessage{SenderID: from.ID, RecipientID: to.ID, Content: text})
		require.NoError(t, err)
	}
	send(s.admin, s.teacher, "one")
	send(s.teacher, s.admin, "two")
	send(s.admin, s.other, "three")

	all, err := svc.Conversation(ctx, s.admin.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "three", all[0].Content)

	withTeacher, err := svc.Conversation(ctx, s.admin.ID, s.teacher.ID)
	require.NoError(t, err)
	require.Len(t, withTeacher, 2)
	assert.Equal(t, "two", withTeacher[0].Content)
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "short", service.TruncatePreview("short"))
	exact := strings.Repeat("x", 50)
	assert.Equal(t, exact, service.TruncatePreview(exact))
	long := strings.Repeat("ü", 51)
	assert.Equal(t, strings.Repeat("ü", 50)+"...", service.TruncatePreview(long))
}

func TestAuth_LoginAndCurrentUser(t *testing.T) {
	db := testutil.NewMemDB()
	u := testutil.MustUser(t, db, model.NewUser{Username: "ayse.yilmaz", Password: "P123456", FullName: "Ayse Yilmaz"})
	auth := service.NewAuthService(db.Users())
	ctx := context.Background()

	got, err := auth.Login(ctx, "ayse.yilmaz", "P123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, got.PasswordHash)

	cur, err := auth.CurrentUser(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, cur.Username)

	_, err = auth.Login(ctx, "ayse.yilmaz", "wrong")
	assert.Same(t, service.ErrUnauthorized, err)
	_, err = auth.Login(ctx, "nobody", "P123456")
	assert.Same(t, service.ErrUnauthorized, err)

	_, err = auth.CurrentUser(ctx, 0)
	assert.Same(t, service.ErrUnauthorized, err)
	_, err = auth.CurrentUser(ctx, 4242)
	assert.Same(t, service.ErrUnauthorized, err)
}

func TestAuth_ChangePassword(t *testing.T) {
	db := testutil.NewMemDB()
	u := testutil.MustUser(t, db, model.NewUser{Username: "ayse.yilmaz", Password: "P123456", FullName: "Ayse Yilmaz"})
	require.True(t, u.IsFirstLogin)
	auth := service.NewAuthService(db.Users())
	ctx := context.Background()

	err := auth.ChangePassword(ctx, u.ID, model.PasswordChange{CurrentPassword: "nope", NewPassword: "secret1"})
	var se *service.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, service.KindInvalidInput, se.Kind)
	assert.Equal(t, "currentPassword", se.Field)
	assert.Equal(t, "Incorrect current password", se.Message)

	err = auth.ChangePassword(ctx, u.ID, model.PasswordChange{CurrentPassword: "P123456", NewPassword: "short"})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	require.NoError(t, auth.ChangePassword(ctx, u.ID, model.PasswordChange{CurrentPassword: "P123456", NewPassword: "secret1"}))
	stored, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsFirstLogin)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "secret1"))
	assert.False(t, utils.VerifyPassword(stored.PasswordHash, "P123456"))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind service.Kind
	}{
		{repository.ErrNotFound, service.KindNotFound},
		{repository.ErrDuplicate, service.KindConflict},
		{repository.ErrReferenced, service.KindConflict},
		{&validate.FieldError{Field: "type", Message: "Required"}, service.KindInvalidInput},
		{service.Forbidden("no"), service.KindForbidden},
		{errors.New("boom"), service.KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, service.KindOf(tc.err), tc.err.Error())
	}
	assert.Equal(t, 409, service.KindConflict.Status())
	assert.Equal(t, 401, service.ErrUnauthorized.Kind.Status())
}
