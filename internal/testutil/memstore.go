// Package testutil provides an in-memory stand-in for the SQL repositories.
// It mirrors their observable behavior: monotonic ids, unique keys, foreign
// key checks and the same sentinel errors.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/repository"
)

// MemDB is the shared state behind the per-entity views.
type MemDB struct {
	mu            sync.Mutex
	seq           uint64
	clock         time.Time
	users         map[uint64]model.User
	students      map[uint64]model.Student
	behaviors     map[uint64]model.Behavior
	notifications map[uint64]model.Notification
	messages      map[uint64]model.Message

	// FailNotifications makes every notification insert fail with this error.
	FailNotifications error
}

func NewMemDB() *MemDB {
	return &MemDB{
		clock:         time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC),
		users:         map[uint64]model.User{},
		students:      map[uint64]model.Student{},
		behaviors:     map[uint64]model.Behavior{},
		notifications: map[uint64]model.Notification{},
		messages:      map[uint64]model.Message{},
	}
}

// next returns a fresh id and a strictly increasing timestamp.
func (d *MemDB) next() (uint64, time.Time) {
	d.seq++
	d.clock = d.clock.Add(time.Second)
	return d.seq, d.clock
}

func (d *MemDB) Users() *Users                 { return &Users{d} }
func (d *MemDB) Students() *Students           { return &Students{d} }
func (d *MemDB) Behaviors() *Behaviors         { return &Behaviors{d} }
func (d *MemDB) Notifications() *Notifications { return &Notifications{d} }
func (d *MemDB) Messages() *Messages           { return &Messages{d} }

// AllNotifications returns every stored notification ordered by id.
func (d *MemDB) AllNotifications() []model.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Notification, 0, len(d.notifications))
	for _, n := range d.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MessageCount returns the number of stored messages.
func (d *MemDB) MessageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.messages)
}

type Users struct{ d *MemDB }

func (r *Users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, u := range r.d.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) FindClassTeacher(_ context.Context, className string) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var best *model.User
	for _, u := range r.d.users {
		if u.ClassTeacherOf != nil && *u.ClassTeacherOf == className && (best == nil || u.ID < best.ID) {
			u := u
			best = &u
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *Users) List(context.Context) ([]model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]model.User, 0, len(r.d.users))
	for _, u := range r.d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Users) Count(context.Context) (int64, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return int64(len(r.d.users)), nil
}

func (r *Users) Create(_ context.Context, in model.NewUser) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, u := range r.d.users {
		if u.Username == in.Username {
			return nil, repository.ErrDuplicate
		}
	}
	if in.Role == "" {
		in.Role = model.RoleTeacher
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	id, now := r.d.next()
	u := model.User{
		ID: id, Username: in.Username, PasswordHash: in.Password, FullName: in.FullName,
		Email: in.Email, Role: in.Role, ClassTeacherOf: in.ClassTeacherOf, CoachGroup: in.CoachGroup,
		IsFirstLogin: true, Status: in.Status, CreatedAt: now,
	}
	r.d.users[id] = u
	return &u, nil
}

func (r *Users) Update(_ context.Context, id uint64, p model.UserPatch) (*model.User, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Username != nil {
		for _, o := range r.d.users {
			if o.ID != id && o.Username == *p.Username {
				return nil, repository.ErrDuplicate
			}
		}
		u.Username = *p.Username
	}
	if p.Password != nil {
		u.PasswordHash = *p.Password
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.ClassTeacherOf.Set {
		u.ClassTeacherOf = p.ClassTeacherOf.Value
	}
	if p.CoachGroup.Set {
		u.CoachGroup = p.CoachGroup.Value
	}
	if p.IsFirstLogin != nil {
		u.IsFirstLogin = *p.IsFirstLogin
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	r.d.users[id] = u
	return &u, nil
}

func (r *Users) SetPassword(_ context.Context, id uint64, hash string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	u, ok := r.d.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.IsFirstLogin = false
	r.d.users[id] = u
	return nil
}

func (r *Users) Delete(_ context.Context, id uint64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, s := range r.d.students {
		if s.CoachID != nil && *s.CoachID == id {
			return repository.ErrReferenced
		}
	}
	for _, b := range r.d.behaviors {
		if b.TeacherID == id {
			return repository.ErrReferenced
		}
	}
	for _, n := range r.d.notifications {
		if n.RecipientID == id || (n.SenderID != nil && *n.SenderID == id) {
			return repository.ErrReferenced
		}
	}
	for _, m := range r.d.messages {
		if m.SenderID == id || m.RecipientID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.d.users, id)
	return nil
}

type Students struct{ d *MemDB }

func (r *Students) GetByID(_ context.Context, id uint64) (*model.Student, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *Students) GetByNumber(_ context.Context, number string) (*model.Student, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, s := range r.d.students {
		if s.StudentNumber == number {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Students) List(context.Context) ([]model.Student, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := make([]model.Student, 0, len(r.d.students))
	for _, s := range r.d.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClassName != out[j].ClassName {
			return out[i].ClassName < out[j].ClassName
		}
		return out[i].StudentNumber < out[j].StudentNumber
	})
	return out, nil
}

func (r *Students) Create(_ context.Context, in model.NewStudent) (*model.Student, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, s := range r.d.students {
		if s.StudentNumber == in.StudentNumber {
			return nil, repository.ErrDuplicate
		}
	}
	if in.CoachID != nil {
		if _, ok := r.d.users[*in.CoachID]; !ok {
			return nil, repository.ErrReferenced
		}
	}
	if in.Status == "" {
		in.Status = model.StatusActive
	}
	id, now := r.d.next()
	s := model.Student{
		ID: id, StudentNumber: in.StudentNumber, FullName: in.FullName, ClassName: in.ClassName,
		ParentName: in.ParentName, ParentPhone: in.ParentPhone, CoachID: in.CoachID,
		Status: in.Status, CreatedAt: now,
	}
	r.d.students[id] = s
	return &s, nil
}

func (r *Students) Update(_ context.Context, id uint64, p model.StudentPatch) (*model.Student, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.StudentNumber != nil {
		for _, o := range r.d.students {
			if o.ID != id && o.StudentNumber == *p.StudentNumber {
				return nil, repository.ErrDuplicate
			}
		}
		s.StudentNumber = *p.StudentNumber
	}
	if p.FullName != nil {
		s.FullName = *p.FullName
	}
	if p.ClassName != nil {
		s.ClassName = *p.ClassName
	}
	if p.ParentName.Set {
		s.ParentName = p.ParentName.Value
	}
	if p.ParentPhone.Set {
		s.ParentPhone = p.ParentPhone.Value
	}
	if p.CoachID.Set {
		if v := p.CoachID.Value; v != nil {
			if _, ok := r.d.users[*v]; !ok {
				return nil, repository.ErrReferenced
			}
		}
		s.CoachID = p.CoachID.Value
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	r.d.students[id] = s
	return &s, nil
}

func (r *Students) Delete(_ context.Context, id uint64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, b := range r.d.behaviors {
		if b.StudentID == id {
			return repository.ErrReferenced
		}
	}
	delete(r.d.students, id)
	return nil
}

type Behaviors struct{ d *MemDB }

func (r *Behaviors) Create(_ context.Context, in model.NewBehavior) (*model.Behavior, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.students[in.StudentID]; !ok {
		return nil, repository.ErrReferenced
	}
	if _, ok := r.d.users[in.TeacherID]; !ok {
		return nil, repository.ErrReferenced
	}
	stage := model.DefaultStage
	if in.Stage != nil {
		stage = *in.Stage
	}
	id, now := r.d.next()
	b := model.Behavior{
		ID: id, StudentID: in.StudentID, TeacherID: in.TeacherID, Type: in.Type,
		Category: in.Category, Description: in.Description, Stage: stage, Date: now,
	}
	r.d.behaviors[id] = b
	return &b, nil
}

func (r *Behaviors) List(_ context.Context, f model.BehaviorFilter) ([]model.BehaviorWithRefs, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []model.BehaviorWithRefs{}
	for _, b := range r.d.behaviors {
		if f.StudentID != 0 && b.StudentID != f.StudentID {
			continue
		}
		if f.TeacherID != 0 && b.TeacherID != f.TeacherID {
			continue
		}
		row := model.BehaviorWithRefs{Behavior: b}
		if s, ok := r.d.students[b.StudentID]; ok {
			row.Student = &s
		}
		if u, ok := r.d.users[b.TeacherID]; ok {
			pub := u.Public()
			row.Teacher = &pub
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *Behaviors) Stats(context.Context) (model.BehaviorStats, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	var st model.BehaviorStats
	for _, b := range r.d.behaviors {
		st.Total++
		switch b.Type {
		case model.BehaviorPositive:
			st.Positive++
		case model.BehaviorNegative:
			st.Negative++
		}
	}
	return st, nil
}

type Notifications struct{ d *MemDB }

func (r *Notifications) Create(_ context.Context, in model.NewNotification) (*model.Notification, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.d.FailNotifications != nil {
		return nil, r.d.FailNotifications
	}
	if _, ok := r.d.users[in.RecipientID]; !ok {
		return nil, repository.ErrReferenced
	}
	id, now := r.d.next()
	n := model.Notification{
		ID: id, RecipientID: in.RecipientID, SenderID: in.SenderID, Type: in.Type,
		Title: in.Title, Message: in.Message, RelatedID: in.RelatedID, CreatedAt: now,
	}
	r.d.notifications[id] = n
	return &n, nil
}

func (r *Notifications) ListForRecipient(_ context.Context, userID uint64) ([]model.Notification, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []model.Notification{}
	for _, n := range r.d.notifications {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > model.NotificationListLimit {
		out = out[:model.NotificationListLimit]
	}
	return out, nil
}

func (r *Notifications) MarkRead(_ context.Context, id, recipientID uint64) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if n, ok := r.d.notifications[id]; ok && n.RecipientID == recipientID {
		n.IsRead = true
		r.d.notifications[id] = n
	}
	return nil
}

type Messages struct{ d *MemDB }

func (r *Messages) Create(_ context.Context, in model.NewMessage) (*model.Message, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[in.SenderID]; !ok {
		return nil, repository.ErrReferenced
	}
	if _, ok := r.d.users[in.RecipientID]; !ok {
		return nil, repository.ErrReferenced
	}
	id, now := r.d.next()
	m := model.Message{ID: id, SenderID: in.SenderID, RecipientID: in.RecipientID, Content: in.Content, CreatedAt: now}
	r.d.messages[id] = m
	return &m, nil
}

func (r *Messages) ListForUser(_ context.Context, userID, contactID uint64) ([]model.Message, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	out := []model.Message{}
	for _, m := range r.d.messages {
		mine := m.SenderID == userID || m.RecipientID == userID
		if !mine {
			continue
		}
		if contactID != 0 && m.SenderID != contactID && m.RecipientID != contactID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > model.MessageListLimit {
		out = out[:model.MessageListLimit]
	}
	return out, nil
}
