package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database/inmem"
)

var (
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errPermDenied   = httpErr{Error: "access denied for this role"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ENV", "TEST")
	conf = core.NewConfig()

	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	validate = validator.New()
	translator = newTranslator()
	core.InitValidators(validate, translator)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type testApp struct {
	app *Server

	usrRepo user.Repository
	asgRepo assignment.Repository

	usrSvc *user.Service
	schSvc *school.Service
	stdSvc *student.Service
	tcrSvc *teacher.Service
	attSvc *attendance.Service
	feeSvc *fee.Service
	asgSvc *assignment.Service
	repSvc *report.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	emailsvc.ClearSentMessages()

	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("inmem.Open(): %v", err)
	}

	// set up DB & repos
	usrRepo := inmem.NewUserRepository(db)
	schRepo := inmem.NewSchoolRepository(db)
	stdRepo := inmem.NewStudentRepository(db)
	tcrRepo := inmem.NewTeacherRepository(db)
	attRepo := inmem.NewAttendanceRepository(db)
	feeRepo := inmem.NewFeeRepository(db)
	asgRepo := inmem.NewAssignmentRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)
	schSvc := school.NewService(db, schRepo, usrRepo, usrSvc)
	stdSvc := student.NewService(db, stdRepo, usrRepo, usrSvc)
	tcrSvc := teacher.NewService(db, tcrRepo, usrRepo, usrSvc)
	attSvc := attendance.NewService(db, attRepo, stdRepo)
	feeSvc := fee.NewService(db, feeRepo)
	asgSvc := assignment.NewService(db, asgRepo)
	repSvc := report.NewService(usrRepo, schRepo, stdRepo, tcrRepo, attRepo, feeRepo, asgRepo)

	// set up server
	a := &testApp{
		usrRepo: usrRepo,
		asgRepo: asgRepo,
		usrSvc:  usrSvc,
		schSvc:  schSvc,
		stdSvc:  stdSvc,
		tcrSvc:  tcrSvc,
		attSvc:  attSvc,
		feeSvc:  feeSvc,
		asgSvc:  asgSvc,
		repSvc:  repSvc,
	}
	a.app = NewServer(
		ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			SchoolSvc:     schSvc,
			StudentSvc:    stdSvc,
			TeacherSvc:    tcrSvc,
			AttendanceSvc: attSvc,
			FeeSvc:        feeSvc,
			AssignmentSvc: asgSvc,
			ReportSvc:     repSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)
	return a
}

// Fixtures

func (a *testApp) createUser(t *testing.T, uname, email string, role user.Role, active bool) user.User {
	t.Helper()
	ctx := context.Background()
	usr, err := a.usrSvc.Create(ctx, user.NewUser{Username: uname, Email: email, Password: "password123", Role: role})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if !active {
		if usr, err = a.usrSvc.SetActive(ctx, usr.ID, false); err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

func (a *testApp) createSchool(t *testing.T, name, adminUname, adminEmail string) school.School {
	t.Helper()
	sch, err := a.schSvc.Create(context.Background(), school.NewSchool{
		Name:          name,
		AdminUsername: adminUname,
		AdminEmail:    adminEmail,
		AdminPassword: "password123",
	})
	if err != nil {
		t.Fatalf("createSchool(): %v", err)
	}
	return sch
}

func (a *testApp) createStudent(t *testing.T, sch school.School, first, last, email, class string) student.Student {
	t.Helper()
	std, err := a.stdSvc.Create(context.Background(), sch, student.NewStudent{
		FirstName: first,
		LastName:  last,
		Email:     email,
		ClassName: class,
	})
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return std
}

func (a *testApp) createTeacher(t *testing.T, sch school.School, first, last, email, subject string) teacher.Teacher {
	t.Helper()
	tcr, err := a.tcrSvc.Create(context.Background(), sch, teacher.NewTeacher{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Subject:   subject,
	})
	if err != nil {
		t.Fatalf("createTeacher(): %v", err)
	}
	return tcr
}

func (a *testApp) user(t *testing.T, id int) user.User {
	t.Helper()
	usr, err := a.usrSvc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("user(): %v", err)
	}
	return usr
}

// Tokens

func getToken(t *testing.T, usr user.User, tenant ...int) string {
	t.Helper()
	var schoolID, profileID int
	if len(tenant) > 0 {
		schoolID = tenant[0]
	}
	if len(tenant) > 1 {
		profileID = tenant[1]
	}
	token, err := GenerateToken(GetUserClaims(conf, usr, schoolID, profileID))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (a *testApp) adminToken(t *testing.T, sch school.School) string {
	t.Helper()
	return getToken(t, a.user(t, sch.AdminID), sch.ID)
}

func (a *testApp) teacherToken(t *testing.T, tcr teacher.Teacher) string {
	t.Helper()
	return getToken(t, a.user(t, tcr.UserID), tcr.SchoolID, tcr.ID)
}

func (a *testApp) studentToken(t *testing.T, std student.Student) string {
	t.Helper()
	return getToken(t, a.user(t, std.UserID), std.SchoolID, std.ID)
}

// HTTP plumbing

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode(): %v; body = %s", err, rec.Body.String())
	}
}
