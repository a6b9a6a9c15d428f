package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"startupconnect/api/config"
	"startupconnect/api/internal"
	"startupconnect/api/internal/model"
	"startupconnect/api/internal/service"
	"startupconnect/api/pkg/security"
	"startupconnect/api/pkg/testutil"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type sentMail struct {
	token string
	to    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) SendVerification(t *model.EmailVerificationToken, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{token: t.Token, to: to})
	return nil
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type envelope struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      json.RawMessage   `json:"data"`
	Errors    map[string]string `json:"errors"`
	RequestID string            `json:"requestID"`
}

type RouterSuite struct {
	suite.Suite

	db     *gorm.DB
	deps   *internal.Deps
	mailer *fakeMailer
	router *gin.Engine
	admin  *model.User
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	config.SetDefaults()
	viper.Set("jwt.secret", "router-test-secret")
	viper.Set("upload.max_size", int64(10<<20))
}

func (s *RouterSuite) TearDownSuite() {
	viper.Reset()
}

func (s *RouterSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.mailer = &fakeMailer{}

	storage, err := service.NewLocalStorage(s.T().TempDir())
	s.Require().NoError(err)

	notifier := service.NewNotifier(s.db, nil)
	dispatcher := service.NewDispatcher(notifier, 1, 64)
	dispatcher.Start()

	cooldown := ttlcache.NewCache()
	s.Require().NoError(cooldown.SetTTL(time.Minute))
	s.T().Cleanup(func() { cooldown.Close() })

	s.deps = &internal.Deps{
		DB:             s.db,
		Argon:          testutil.FastArgon(),
		Storage:        storage,
		Accounts:       service.NewAccounts(s.db, testutil.FastArgon(), nil),
		Verification:   service.NewVerification(s.db, storage, service.WithDispatcher(dispatcher)),
		Notifier:       notifier,
		Dispatcher:     dispatcher,
		Mailer:         s.mailer,
		ResendCooldown: cooldown,
	}

	s.router = NewEngine(s.deps)
	s.admin = testutil.CreateUser(s.T(), s.db, model.RoleAdmin)
}

func (s *RouterSuite) TearDownTest() {
	s.deps.Dispatcher.Close()
}

// flush waits for every queued notification to be written and restarts the
// dispatcher for the rest of the test
func (s *RouterSuite) flush() {
	s.deps.Dispatcher.Close()

	d := service.NewDispatcher(s.deps.Notifier, 1, 64)
	d.Start()
	s.deps.Dispatcher = d
}

func (s *RouterSuite) token(u *model.User) string {
	tok, err := security.SignAuthToken(u.ID, string(u.Role), time.Now())
	s.Require().NoError(err)
	return tok
}

func (s *RouterSuite) do(method, path string, as *model.User, body any) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(as))
	}

	return s.serve(req)
}

func (s *RouterSuite) serve(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *RouterSuite) decode(env envelope, v any) {
	s.Require().NoError(json.Unmarshal(env.Data, v))
}

func (s *RouterSuite) notificationsOf(userID string) []model.Notification {
	var ns []model.Notification
	s.Require().NoError(s.db.Where("recipient_id = ?", userID).Find(&ns).Error)
	return ns
}

func (s *RouterSuite) TestHeartbeat() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestRegisterVerifyLogin() {
	w, env := s.do(http.MethodPost, "/api/auth/register", nil, gin.H{
		"email":    "Founder@Acme.io",
		"password": "Sup3r$ecretPass",
		"name":     "Founder",
		"role":     "ENTREPRENEUR",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.True(env.Success)
	s.NotEmpty(env.RequestID)

	var u model.User
	s.decode(env, &u)
	s.Equal("founder@acme.io", u.Email)
	s.Equal(model.StatusUnverified, u.VerificationStatus)
	s.NotContains(string(env.Data), "passwordHash")

	mail := s.mailer.last()
	s.Equal("founder@acme.io", mail.to)

	w, env = s.do(http.MethodPost, "/api/auth/verify-email", nil, gin.H{"token": mail.token})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(env, &u)
	s.Equal(model.StatusVerified, u.VerificationStatus)
	s.Equal(model.MethodEmail, u.VerificationMethod)

	w, env = s.do(http.MethodPost, "/api/auth/verify-email", nil, gin.H{"token": mail.token})
	s.Equal(http.StatusBadRequest, w.Code)
	s.False(env.Success)

	w, env = s.do(http.MethodPost, "/api/auth/login", nil, gin.H{"email": "founder@acme.io", "password": "Sup3r$ecretPass"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	s.decode(env, &login)
	s.NotEmpty(login.Token)
	s.Equal(u.ID, login.User.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w, _ = s.serve(req)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/api/auth/login", nil, gin.H{"email": "founder@acme.io", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestRegisterValidation() {
	w, env := s.do(http.MethodPost, "/api/auth/register", nil, gin.H{"email": "x@y.io", "role": "ADMIN"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Errors, "password")
	s.Contains(env.Errors, "name")
	s.Contains(env.Errors, "role")
}

func (s *RouterSuite) TestUnknownEmailToken() {
	w, _ := s.do(http.MethodPost, "/api/auth/verify-email", nil, gin.H{"token": "does-not-exist"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestResendCooldown() {
	u := testutil.CreateUser(s.T(), s.db, model.RoleMentor)

	w, _ := s.do(http.MethodPost, "/api/auth/resend-verification", u, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPost, "/api/auth/resend-verification", u, nil)
	s.Equal(http.StatusTooManyRequests, w.Code)
}

func (s *RouterSuite) TestAuthRequired() {
	w, env := s.do(http.MethodGet, "/api/notifications", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)

	inactive := testutil.CreateUser(s.T(), s.db, model.RoleInvestor, testutil.Inactive())
	w, _ = s.do(http.MethodGet, "/api/notifications", inactive, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestSubmitDomainRoles() {
	mentor := testutil.CreateUser(s.T(), s.db, model.RoleMentor)
	w, _ := s.do(http.MethodPost, "/api/verification/submit-domain", mentor, gin.H{"domain": "mentor.io"})
	s.Equal(http.StatusForbidden, w.Code)

	founder := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur)
	w, env := s.do(http.MethodPost, "/api/verification/submit-domain", founder, gin.H{"domain": "https://www.Acme.io/"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var res service.SubmissionResult
	s.decode(env, &res)
	s.Equal(model.StatusPending, res.VerificationStatus)
	s.Equal(model.MethodDomain, res.VerificationMethod)
	s.NotEmpty(res.VerificationID)

	w, env = s.do(http.MethodPost, "/api/verification/submit-domain", founder, gin.H{"domain": "nope"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Errors, "domain")
}

func (s *RouterSuite) TestUploadDocumentAndReview() {
	investor := testutil.CreateUser(s.T(), s.db, model.RoleInvestor)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	s.Require().NoError(mw.WriteField("documentType", "ID_PROOF"))
	fw, err := mw.CreateFormFile("file", "passport.pdf")
	s.Require().NoError(err)
	_, err = fw.Write([]byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/verification/upload-document", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(investor))

	w, env := s.serve(req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var res service.SubmissionResult
	s.decode(env, &res)
	s.Equal(model.MethodDocument, res.VerificationMethod)
	s.NotEmpty(res.FileURL)

	w, env = s.do(http.MethodGet, "/api/admin/verification/pending", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(string(env.Data), investor.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/documents/"+res.VerificationID+"/file", nil)
	req.Header.Set("Authorization", "Bearer "+s.token(s.admin))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("application/pdf", w.Header().Get("Content-Type"))

	// non admins never reach the queue
	w, _ = s.do(http.MethodGet, "/api/admin/verification/pending", investor, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodPatch, "/api/admin/verification/"+investor.ID+"/decide", s.admin, gin.H{"decision": "REJECTED"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Errors, "rejectionReason")

	w, env = s.do(http.MethodPatch, "/api/admin/verification/"+investor.ID+"/decide", s.admin, gin.H{
		"decision":        "REJECTED",
		"rejectionReason": "blurry image",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var u model.User
	s.decode(env, &u)
	s.Equal(model.StatusRejected, u.VerificationStatus)
	s.Equal(model.MethodNone, u.VerificationMethod)
	s.Equal("blurry image", *u.VerificationRejectionReason)

	w, _ = s.do(http.MethodPatch, "/api/admin/verification/"+investor.ID+"/decide", s.admin, gin.H{"decision": "VERIFIED"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/admin/verification/missing/decide", s.admin, gin.H{"decision": "VERIFIED"})
	s.Equal(http.StatusNotFound, w.Code)

	s.flush()
	ns := s.notificationsOf(investor.ID)
	s.Require().Len(ns, 1)
	s.Equal(model.NotifyVerificationRejected, ns[0].Type)
}

func (s *RouterSuite) TestAdminUserManagement() {
	u := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur, testutil.WithStatus(model.StatusVerified, model.MethodDomain))
	original := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur, testutil.WithEmail("first@acme.io"))

	w, _ := s.do(http.MethodPatch, "/api/admin/users/"+s.admin.ID+"/verification", s.admin, gin.H{"verificationStatus": "VERIFIED"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, env := s.do(http.MethodPatch, "/api/admin/users/"+u.ID+"/verification", s.admin, gin.H{"verificationStatus": "UNVERIFIED"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got model.User
	s.decode(env, &got)
	s.Equal(model.StatusUnverified, got.VerificationStatus)
	s.Equal(model.MethodDomain, got.VerificationMethod)

	w, _ = s.do(http.MethodPatch, "/api/admin/users/"+u.ID+"/duplicate", s.admin, gin.H{"isDuplicate": true, "duplicateEmail": "nobody@acme.io"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/admin/users/"+u.ID+"/duplicate", s.admin, gin.H{"isDuplicate": true, "duplicateOf": u.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPatch, "/api/admin/users/"+u.ID+"/duplicate", s.admin, gin.H{"isDuplicate": true, "duplicateEmail": "first@acme.io"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(env, &got)
	s.True(got.IsDuplicate)
	s.Equal(original.ID, *got.DuplicateOfID)

	w, _ = s.do(http.MethodPatch, "/api/admin/users/"+u.ID+"/status", s.admin, gin.H{"isActive": false})
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/auth/me", u, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RouterSuite) TestNotificationEndpoints() {
	u := testutil.CreateUser(s.T(), s.db, model.RoleMentor)
	other := testutil.CreateUser(s.T(), s.db, model.RoleMentor)

	ctx := context.Background()
	mine := s.deps.Notifier.NotifyOne(ctx, service.NotificationSpec{RecipientID: u.ID, Type: model.NotifySystem, Message: "one"})
	s.deps.Notifier.NotifyOne(ctx, service.NotificationSpec{RecipientID: u.ID, Type: model.NotifySystem, Message: "two"})
	theirs := s.deps.Notifier.NotifyOne(ctx, service.NotificationSpec{RecipientID: other.ID, Type: model.NotifySystem, Message: "three"})
	s.Require().NotNil(mine)
	s.Require().NotNil(theirs)

	w, env := s.do(http.MethodGet, "/api/notifications?limit=1", u, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var list struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   int64                `json:"unreadCount"`
	}
	s.decode(env, &list)
	s.Len(list.Notifications, 1)
	s.Equal(int64(2), list.UnreadCount)

	w, _ = s.do(http.MethodPatch, "/api/notifications/"+theirs.ID+"/read", u, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/notifications/missing/read", u, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/notifications/"+mine.ID+"/read", u, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/notifications/mark-all-read", u, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/notifications?unreadOnly=true", u, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(env, &list)
	s.Empty(list.Notifications)
	s.Zero(list.UnreadCount)
}

func (s *RouterSuite) TestCampaignFanOut() {
	founder := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur)
	investor := testutil.CreateUser(s.T(), s.db, model.RoleInvestor)
	mentor := testutil.CreateUser(s.T(), s.db, model.RoleMentor)
	testutil.CreateUser(s.T(), s.db, model.RoleInvestor, testutil.Inactive())

	w, _ := s.do(http.MethodPost, "/api/campaigns", investor, gin.H{"title": "Seed", "fundingGoal": 1000})
	s.Equal(http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodPost, "/api/campaigns", founder, gin.H{"title": "Seed", "fundingGoal": 0})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(env.Errors, "fundingGoal")

	w, _ = s.do(http.MethodPost, "/api/campaigns", founder, gin.H{"title": "Seed round", "industry": "fintech", "fundingGoal": 250000})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	s.flush()
	s.Len(s.notificationsOf(investor.ID), 1)
	s.Len(s.notificationsOf(mentor.ID), 1)
	s.Empty(s.notificationsOf(founder.ID))
	s.Equal(model.NotifyNewCampaign, s.notificationsOf(mentor.ID)[0].Type)
}

func (s *RouterSuite) TestCampaignCreatedWhenNotificationsFail() {
	founder := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur)
	testutil.CreateUser(s.T(), s.db, model.RoleInvestor)

	// Every notification write fails
	s.deps.Dispatcher.Close()
	failing := service.NewDispatcher(service.NewNotifier(s.db, brokenStore{}), 1, 8)
	failing.Start()
	s.deps.Dispatcher = failing

	w, env := s.do(http.MethodPost, "/api/campaigns", founder, gin.H{"title": "Series A", "fundingGoal": 5000000})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.True(env.Success)

	s.flush()
	var count int64
	s.Require().NoError(s.db.Model(&model.Notification{}).Count(&count).Error)
	s.Zero(count)
}

func (s *RouterSuite) TestPitch() {
	founder := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur)
	investor := testutil.CreateUser(s.T(), s.db, model.RoleInvestor)
	mentor := testutil.CreateUser(s.T(), s.db, model.RoleMentor)

	w, _ := s.do(http.MethodPost, "/api/pitches", founder, gin.H{"investorId": mentor.ID, "title": "Deck"})
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/api/pitches", founder, gin.H{"investorId": investor.ID, "title": "Deck"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	s.flush()
	ns := s.notificationsOf(investor.ID)
	s.Require().Len(ns, 1)
	s.Equal(model.NotifyNewPitch, ns[0].Type)
}

func (s *RouterSuite) TestMentorship() {
	founder := testutil.CreateUser(s.T(), s.db, model.RoleEntrepreneur)
	mentor := testutil.CreateUser(s.T(), s.db, model.RoleMentor)
	otherMentor := testutil.CreateUser(s.T(), s.db, model.RoleMentor)

	w, env := s.do(http.MethodPost, "/api/mentorship/requests", founder, gin.H{"mentorId": mentor.ID, "message": "Help with GTM?"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var req model.MentorshipRequest
	s.decode(env, &req)
	s.Equal(model.MentorshipPending, req.Status)

	w, _ = s.do(http.MethodPost, "/api/mentorship/requests", founder, gin.H{"mentorId": mentor.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/mentorship/requests/"+req.ID, otherMentor, gin.H{"status": "ACCEPTED"})
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/mentorship/requests/"+req.ID, mentor, gin.H{"status": "MAYBE"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/mentorship/requests/"+req.ID, mentor, gin.H{"status": "ACCEPTED"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodPatch, "/api/mentorship/requests/"+req.ID, mentor, gin.H{"status": "REJECTED"})
	s.Equal(http.StatusBadRequest, w.Code)

	s.flush()
	s.Len(s.notificationsOf(mentor.ID), 1)
	ns := s.notificationsOf(founder.ID)
	s.Require().Len(ns, 1)
	s.Equal(model.NotifyMentorshipAccepted, ns[0].Type)
}

func (s *RouterSuite) TestUpdateProfile() {
	u := testutil.CreateUser(s.T(), s.db, model.RoleMentor)

	w, env := s.do(http.MethodPatch, "/api/users/me/profile", u, gin.H{
		"bio":    "Operator turned mentor",
		"mentor": gin.H{"expertise": []string{"sales"}, "yearsOfExperience": 12},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var got model.User
	s.decode(env, &got)
	s.Equal("Operator turned mentor", got.Profile.Bio)
	s.Equal(12, got.Profile.Mentor.YearsOfExperience)

	w, _ = s.do(http.MethodPatch, "/api/users/me/profile", u, gin.H{"investor": gin.H{"firm": "Fund"}})
	s.Equal(http.StatusBadRequest, w.Code)
}

type brokenStore struct{}

func (brokenStore) Create(context.Context, *model.Notification) error {
	return errors.New("database is locked")
}

func (brokenStore) CreateBatch(context.Context, []model.Notification) error {
	return errors.New("database is locked")
}
