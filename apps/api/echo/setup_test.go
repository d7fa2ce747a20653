package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
	"github.com/kazimoto/shule/core/invite"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/promotion"
	"github.com/kazimoto/shule/core/ratelimit"
	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
	emailsvc "github.com/kazimoto/shule/services/email"
	identitysvc "github.com/kazimoto/shule/services/identity"
	inmemdb "github.com/kazimoto/shule/storage/database/inmem"
	testutil "github.com/kazimoto/shule/tests"
)

type testEnv struct {
	app         Server
	db          *inmemdb.DB
	profileRepo profile.Repository
	inviteSvc   *invite.Service
}

type stdLogger struct {
	std *log.Logger
}

func (l stdLogger) Enable(bool)                          {}
func (l stdLogger) Debug(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l stdLogger) Info(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l stdLogger) Warn(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l stdLogger) Error(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l stdLogger) Fatal(msg string, args ...interface{}) { l.std.Fatalln(msg, args) }

func setupAPI(t *testing.T) testEnv {
	t.Helper()
	testutil.InitConf()

	db := inmemdb.Open()
	profileRepo := inmemdb.NewProfileRepository(db)
	profileSvc := profile.NewService(profileRepo)
	mailSvc := emailsvc.NewConsoleServiceMock()

	inviteSvc := invite.NewService(inmemdb.NewInviteRepository(db), profileSvc, mailSvc)
	promotionSvc := promotion.NewService(inmemdb.NewPromotionRepository(db), profileSvc)
	recoverySvc := recovery.NewService(inmemdb.NewRecoveryRepository(db), inmemdb.NewDocumentStore(db), profileSvc)
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db), recoverySvc)

	validate, translator := core.NewValidator()
	profile.RegisterValidators(validate, translator)
	invite.RegisterValidators(validate, translator)

	app := NewServer(ServerDeps{
		Conf:           core.Conf,
		Logger:         stdLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)},
		Guard:          auth.NewGuard(identitysvc.NewJWTVerifier(core.Conf), profileRepo),
		Limiter:        ratelimit.NewLimiter(core.Conf.RateLimit.MaxBuckets),
		InviteSvc:      inviteSvc,
		PromotionSvc:   promotionSvc,
		RecoverySvc:    recoverySvc,
		StudentSvc:     studentSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return testEnv{app: app, db: db, profileRepo: profileRepo, inviteSvc: inviteSvc}
}

func getToken(t *testing.T, uid, email string, verified bool) string {
	t.Helper()
	token, err := identitysvc.GenerateToken(core.Conf, uid, email, verified)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeObj(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decodeObj() failed: %v; body: %s", err, body)
	}
}
