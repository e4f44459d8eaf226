package router_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-behavior-tracker/internal/handler"
	"github.com/iliyamo/school-behavior-tracker/internal/logging"
	"github.com/iliyamo/school-behavior-tracker/internal/middleware"
	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/router"
	"github.com/iliyamo/school-behavior-tracker/internal/service"
	"github.com/iliyamo/school-behavior-tracker/internal/session"
	"github.com/iliyamo/school-behavior-tracker/internal/testutil"
	"github.com/iliyamo/school-behavior-tracker/internal/validate"
)

const password = "secret-pass"

type app struct {
	db     *testutil.MemDB
	srv    *httptest.Server
	musa   model.User
	ayse   model.User
	mehmet model.User
	ali    model.Student
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := testutil.NewMemDB()
	a := &app{db: db}
	a.musa = testutil.MustUser(t, db, model.NewUser{Username: "musa.yilmaz", Password: password, FullName: "Musa Yilmaz", Role: model.RoleAdmin})
	a.ayse = testutil.MustUser(t, db, model.NewUser{Username: "ayse.kaya", Password: password, FullName: "Ayse Kaya", ClassTeacherOf: testutil.Ptr("9-A")})
	a.mehmet = testutil.MustUser(t, db, model.NewUser{Username: "mehmet.demir", Password: password, FullName: "Mehmet Demir"})
	a.ali = testutil.MustStudent(t, db, model.NewStudent{
		StudentNumber: "101", FullName: "Ali Celik", ClassName: "9-A", CoachID: &a.mehmet.ID,
	})

	log := logging.Discard()
	sessions := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test-secret"})
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }

	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = handler.ErrorHandler(log)
	e.Use(middleware.Sessions(sessions, log))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(service.NewAuthService(db.Users()), sessions, log), noop)
	router.RegisterData(e, router.Handlers{
		Users:    &handler.UserHandler{Users: db.Users(), DefaultPassword: "P123456", Log: log},
		Students: &handler.StudentHandler{Students: db.Students(), Log: log},
		Behaviors: &handler.BehaviorHandler{
			Behaviors: db.Behaviors(),
			Service:   service.NewBehaviorService(db.Users(), db.Students(), db.Behaviors(), db.Notifications(), service.NopPublisher{}, log),
			Log:       log,
		},
		Notifications: &handler.NotificationHandler{Notifications: db.Notifications(), Log: log},
		Messages: &handler.MessageHandler{
			Service: service.NewMessageService(db.Users(), db.Messages(), db.Notifications(), service.NopPublisher{}, log),
			Log:     log,
		},
	}, noop)

	a.srv = httptest.NewServer(e)
	t.Cleanup(a.srv.Close)
	return a
}

// client returns an http.Client with its own cookie jar.
func (a *app) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (a *app) login(t *testing.T, username string) *http.Client {
	t.Helper()
	c := a.client(t)
	res := do(t, c, http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	return c
}

type result struct {
	status int
	body   []byte
}

func (r result) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func do(t *testing.T, c *http.Client, method, url string, body any) result {
	t.Helper()
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	bs, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{status: resp.StatusCode, body: bs}
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	res := do(t, a.client(t), http.MethodGet, a.srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, res.status)
}

func TestSessionLifecycle(t *testing.T) {
	a := newApp(t)
	c := a.client(t)

	res := do(t, c, http.MethodGet, a.srv.URL+"/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, string(res.body))

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": "ayse.kaya", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, string(res.body))

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": "ayse.kaya", "password": password})
	require.Equal(t, http.StatusOK, res.status)
	var me model.User
	res.decode(t, &me)
	assert.Equal(t, a.ayse.ID, me.ID)

	res = do(t, c, http.MethodGet, a.srv.URL+"/api/user", nil)
	require.Equal(t, http.StatusOK, res.status)
	res.decode(t, &me)
	assert.Equal(t, "ayse.kaya", me.Username)

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/logout", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"message":"Logged out"}`, string(res.body))

	res = do(t, c, http.MethodGet, a.srv.URL+"/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestLogin_MissingFieldIsValidationError(t *testing.T) {
	a := newApp(t)
	res := do(t, a.client(t), http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": "ayse.kaya"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	var body map[string]string
	res.decode(t, &body)
	assert.Equal(t, "password", body["field"])
}

func TestDataRoutesRequireSession(t *testing.T) {
	a := newApp(t)
	c := a.client(t)
	for _, path := range []string{"/api/users", "/api/students", "/api/behaviors", "/api/behaviors/stats", "/api/notifications", "/api/messages"} {
		res := do(t, c, http.MethodGet, a.srv.URL+path, nil)
		assert.Equal(t, http.StatusUnauthorized, res.status, path)
	}
}

func TestUsersNeverExposePasswords(t *testing.T) {
	a := newApp(t)
	c := a.login(t, "musa.yilmaz")

	res := do(t, c, http.MethodGet, a.srv.URL+"/api/users", nil)
	require.Equal(t, http.StatusOK, res.status)
	var list []map[string]any
	res.decode(t, &list)
	require.Len(t, list, 3)
	for _, u := range list {
		assert.NotContains(t, u, "password")
	}

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/users", map[string]string{
		"username": "zeynep.ak", "fullName": "Zeynep Ak", "email": "zeynep@school.test",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var created map[string]any
	res.decode(t, &created)
	assert.NotContains(t, created, "password")
	assert.Equal(t, true, created["isFirstLogin"])

	// The default password lets the new user log in.
	fresh := a.client(t)
	res = do(t, fresh, http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": "zeynep.ak", "password": "P123456"})
	assert.Equal(t, http.StatusOK, res.status)
}

func TestUsers_NotFoundAndConflicts(t *testing.T) {
	a := newApp(t)
	c := a.login(t, "musa.yilmaz")

	res := do(t, c, http.MethodGet, a.srv.URL+"/api/users/999", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.JSONEq(t, `{"message":"User not found"}`, string(res.body))

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/users", map[string]string{
		"username": "ayse.kaya", "fullName": "Other", "email": "x@school.test",
	})
	assert.Equal(t, http.StatusConflict, res.status)

	// mehmet coaches a student, so the row is still referenced.
	res = do(t, c, http.MethodDelete, fmt.Sprintf("%s/api/users/%d", a.srv.URL, a.mehmet.ID), nil)
	assert.Equal(t, http.StatusConflict, res.status)

	res = do(t, c, http.MethodDelete, a.srv.URL+"/api/users/999", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"success":true}`, string(res.body))
}

func TestStudents_CreateValidationAndPatch(t *testing.T) {
	a := newApp(t)
	c := a.login(t, "musa.yilmaz")

	res := do(t, c, http.MethodPost, a.srv.URL+"/api/students", map[string]string{"studentNumber": "301", "fullName": "Can Oz"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	var verr map[string]string
	res.decode(t, &verr)
	assert.Equal(t, "className", verr["field"])
	assert.NotEmpty(t, verr["message"])

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/students", map[string]string{"studentNumber": "301", "fullName": "Can Oz", "className": "10-B"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var s model.Student
	res.decode(t, &s)
	assert.Equal(t, model.StatusActive, s.Status)

	res = do(t, c, http.MethodPatch, fmt.Sprintf("%s/api/students/%d", a.srv.URL, s.ID), map[string]any{"className": "10-C", "parentName": nil})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	res.decode(t, &s)
	assert.Equal(t, "10-C", s.ClassName)
	assert.Equal(t, "Can Oz", s.FullName)
}

func TestBehaviorFanOutEndToEnd(t *testing.T) {
	a := newApp(t)
	musa := a.login(t, "musa.yilmaz")

	res := do(t, musa, http.MethodPost, a.srv.URL+"/api/behaviors", map[string]any{
		"studentId":          a.ali.ID,
		"teacherId":          a.musa.ID,
		"type":               "negative",
		"category":           "Late",
		"notifyClassTeacher": true,
		"notifyCoach":        true,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var b model.Behavior
	res.decode(t, &b)
	assert.Equal(t, model.DefaultStage, b.Stage)
	assert.False(t, b.Date.IsZero())

	ayse := a.login(t, "ayse.kaya")
	res = do(t, ayse, http.MethodGet, a.srv.URL+"/api/notifications", nil)
	require.Equal(t, http.StatusOK, res.status)
	var notes []model.Notification
	res.decode(t, &notes)
	require.Len(t, notes, 1)
	n := notes[0]
	assert.Equal(t, model.NotificationBehaviorAlert, n.Type)
	assert.Equal(t, service.BehaviorAlertTitle, n.Title)
	assert.Equal(t, "Musa Yilmaz reported a negative behavior for Ali Celik: Late", n.Message)
	require.NotNil(t, n.RelatedID)
	assert.Equal(t, b.ID, *n.RelatedID)
	assert.False(t, n.IsRead)

	res = do(t, ayse, http.MethodPost, fmt.Sprintf("%s/api/notifications/%d/read", a.srv.URL, n.ID), nil)
	require.Equal(t, http.StatusOK, res.status)
	res = do(t, ayse, http.MethodGet, a.srv.URL+"/api/notifications", nil)
	res.decode(t, &notes)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsRead)

	mehmet := a.login(t, "mehmet.demir")
	res = do(t, mehmet, http.MethodGet, a.srv.URL+"/api/notifications", nil)
	res.decode(t, &notes)
	assert.Len(t, notes, 1)

	res = do(t, musa, http.MethodGet, a.srv.URL+"/api/notifications", nil)
	res.decode(t, &notes)
	assert.Empty(t, notes)

	res = do(t, musa, http.MethodGet, fmt.Sprintf("%s/api/behaviors?studentId=%d", a.srv.URL, a.ali.ID), nil)
	require.Equal(t, http.StatusOK, res.status)
	var list []model.BehaviorWithRefs
	res.decode(t, &list)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Student)
	assert.Equal(t, "Ali Celik", list[0].Student.FullName)
	require.NotNil(t, list[0].Teacher)
	assert.Empty(t, list[0].Teacher.PasswordHash)

	res = do(t, musa, http.MethodGet, a.srv.URL+"/api/behaviors/stats", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"total":1,"positive":0,"negative":1,"recent":[]}`, string(res.body))

	// The student now has a behavior record.
	res = do(t, musa, http.MethodDelete, fmt.Sprintf("%s/api/students/%d", a.srv.URL, a.ali.ID), nil)
	assert.Equal(t, http.StatusConflict, res.status)
}

func TestBehavior_InvalidType(t *testing.T) {
	a := newApp(t)
	c := a.login(t, "musa.yilmaz")
	res := do(t, c, http.MethodPost, a.srv.URL+"/api/behaviors", map[string]any{
		"studentId": a.ali.ID, "teacherId": a.musa.ID, "type": "neutral", "category": "Late",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	var body map[string]string
	res.decode(t, &body)
	assert.Equal(t, "type", body["field"])
}

func TestMessages(t *testing.T) {
	a := newApp(t)
	musa := a.login(t, "musa.yilmaz")

	res := do(t, musa, http.MethodPost, a.srv.URL+"/api/messages", map[string]any{
		"senderId": a.ayse.ID, "recipientId": a.mehmet.ID, "content": "hi",
	})
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, 0, a.db.MessageCount())

	res = do(t, musa, http.MethodPost, a.srv.URL+"/api/messages", map[string]any{
		"senderId": a.musa.ID, "recipientId": a.ayse.ID, "content": "See you at the meeting",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	ayse := a.login(t, "ayse.kaya")
	res = do(t, ayse, http.MethodGet, fmt.Sprintf("%s/api/messages?contactId=%d", a.srv.URL, a.musa.ID), nil)
	require.Equal(t, http.StatusOK, res.status)
	var msgs []model.Message
	res.decode(t, &msgs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "See you at the meeting", msgs[0].Content)

	res = do(t, ayse, http.MethodGet, a.srv.URL+"/api/notifications", nil)
	var notes []model.Notification
	res.decode(t, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationMessage, notes[0].Type)
	assert.Equal(t, "New message from Musa Yilmaz", notes[0].Title)
}

func TestChangePassword(t *testing.T) {
	a := newApp(t)
	c := a.login(t, "ayse.kaya")

	res := do(t, c, http.MethodPost, a.srv.URL+"/api/change-password", map[string]string{
		"currentPassword": "nope", "newPassword": "another-pass",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	var body map[string]string
	res.decode(t, &body)
	assert.Equal(t, "currentPassword", body["field"])

	res = do(t, c, http.MethodPost, a.srv.URL+"/api/change-password", map[string]string{
		"currentPassword": password, "newPassword": "another-pass",
	})
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	fresh := a.client(t)
	res = do(t, fresh, http.MethodPost, a.srv.URL+"/api/login", map[string]string{"username": "ayse.kaya", "password": "another-pass"})
	require.Equal(t, http.StatusOK, res.status)
	var me model.User
	res.decode(t, &me)
	assert.False(t, me.IsFirstLogin)
}
