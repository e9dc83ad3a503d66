package echoapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/assignment"
	"github.com/eakinwale/acadia/core/course"
	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
	emailsvc "github.com/eakinwale/acadia/services/email"
	logsvc "github.com/eakinwale/acadia/services/logger"
	inmemdb "github.com/eakinwale/acadia/storage/database/inmem"
	testutil "github.com/eakinwale/acadia/tests"
)

type fixture struct {
	app Server

	usrRepo user.Repository
	crsRepo course.Repository

	lecturer  user.User
	student   user.User
	deptAdmin user.User
	schAdmin  user.User
	senAdmin  user.User
	courseCSC course.Course
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()

	usrSvc := user.NewService(usrRepo)
	crsSvc := course.NewService(crsRepo)
	apprSvc := approval.NewService(inmemdb.NewApprovalRepository(db), usrSvc, mailSvc, logger)
	resSvc := result.NewService(inmemdb.NewResultRepository(db), crsRepo, apprSvc, core.Conf)
	asgSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db), core.Conf, logger)

	f := &fixture{
		usrRepo: usrRepo,
		crsRepo: crsRepo,
		app: NewServer(&Options{
			DisableReqLogs: true,
			Logger:         logger,
			UserSvc:        usrSvc,
			CourseSvc:      crsSvc,
			ResultSvc:      resSvc,
			ApprovalSvc:    apprSvc,
			AssignmentSvc:  asgSvc,
		}),
	}

	f.lecturer = testutil.CreateUser(t, usrRepo, "Lecturer", "lecturer@acadia.test", "s3cr3tWord!", user.LecturerRoles, true)
	f.student = testutil.CreateUser(t, usrRepo, "Student", "student@acadia.test", "s3cr3tWord!", user.StudentRoles, true)
	f.deptAdmin = testutil.CreateUser(t, usrRepo, "Dept Admin", "dept@acadia.test", "",
		[]string{user.RoleAdmin, user.RoleAdminDepartment}, true)
	f.schAdmin = testutil.CreateUser(t, usrRepo, "School Admin", "school@acadia.test", "",
		[]string{user.RoleAdmin, user.RoleAdminSchool}, true)
	f.senAdmin = testutil.CreateUser(t, usrRepo, "Senate Admin", "senate@acadia.test", "",
		[]string{user.RoleAdmin, user.RoleAdminSenate}, true)
	f.courseCSC = testutil.CreateCourse(t, f.crsRepo, "CSC101", "Intro to Computing", 3, "Computer Science")
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestUserAPI_login(t *testing.T) {
	f := setup(t)

	t.Run("valid credentials return a token", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/users/login", "", echoMap{
			"email": "lecturer@acadia.test", "password": "s3cr3tWord!",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/users/login", "", echoMap{
			"email": "lecturer@acadia.test", "password": "nope",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/users/login", "", echoMap{
			"email": "ghost@acadia.test", "password": "s3cr3tWord!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type echoMap = map[string]interface{}

func TestResultAPI_submit(t *testing.T) {
	f := setup(t)

	body := echoMap{
		"student_id":    f.student.ID,
		"course_id":     f.courseCSC.ID,
		"academic_year": "2025/2026",
		"semester":      "FIRST",
		"ca_score":      25,
		"exam_score":    55,
	}

	t.Run("requires authentication", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/results", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("students may not submit scores", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.student), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("lecturer submission computes the grade", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.lecturer), body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var res result.Result
		decode(t, rec, &res)
		assert.Equal(t, 80.0, res.TotalScore)
		assert.Equal(t, result.GradeA, res.Grade)
	})

	t.Run("score above the ceiling is a field error", func(t *testing.T) {
		bad := echoMap{
			"student_id":    f.student.ID,
			"course_id":     f.courseCSC.ID,
			"academic_year": "2025/2026",
			"semester":      "SECOND",
			"ca_score":      45,
			"exam_score":    55,
		}
		rec := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.lecturer), bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApprovalAPI_act(t *testing.T) {
	f := setup(t)

	submit := func(t *testing.T) result.Result {
		rec := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.lecturer), echoMap{
			"student_id":    f.student.ID,
			"course_id":     f.courseCSC.ID,
			"academic_year": "2025/2026",
			"semester":      "FIRST",
			"ca_score":      25,
			"exam_score":    55,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		var res result.Result
		decode(t, rec, &res)
		return res
	}

	res := submit(t)

	rec := f.do(t, http.MethodGet, "/v1/results/"+res.ID+"/approval", getToken(t, f.lecturer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var appr approval.ResultApproval
	decode(t, rec, &appr)
	require.Equal(t, approval.StatusPending, appr.Status)

	t.Run("students may not act", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/approvals/"+appr.ID+"/act", getToken(t, f.student), echoMap{"decision": "APPROVE"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong tier is refused", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/approvals/"+appr.ID+"/act", getToken(t, f.senAdmin), echoMap{"decision": "APPROVE"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("chain advances tier by tier", func(t *testing.T) {
		for _, admin := range []user.User{f.deptAdmin, f.schAdmin, f.senAdmin} {
			rec := f.do(t, http.MethodPost, "/v1/approvals/"+appr.ID+"/act", getToken(t, admin), echoMap{"decision": "APPROVE"})
			require.Equal(t, http.StatusOK, rec.Code)
			decode(t, rec, &appr)
		}
		assert.Equal(t, approval.StatusSenateApproved, appr.Status)
	})

	t.Run("acting on a finalized approval conflicts", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/approvals/"+appr.ID+"/act", getToken(t, f.senAdmin), echoMap{"decision": "APPROVE"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rejecting without comments is a field error", func(t *testing.T) {
		res2 := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.lecturer), echoMap{
			"student_id":    f.student.ID,
			"course_id":     f.courseCSC.ID,
			"academic_year": "2025/2026",
			"semester":      "SECOND",
			"ca_score":      10,
			"exam_score":    20,
		})
		require.Equal(t, http.StatusCreated, res2.Code)
		var r result.Result
		decode(t, res2, &r)

		rec := f.do(t, http.MethodGet, "/v1/results/"+r.ID+"/approval", getToken(t, f.lecturer), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var a approval.ResultApproval
		decode(t, rec, &a)

		rec = f.do(t, http.MethodPost, "/v1/approvals/"+a.ID+"/act", getToken(t, f.deptAdmin), echoMap{"decision": "REJECT"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResultAPI_transcript(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/v1/results", getToken(t, f.lecturer), echoMap{
		"student_id":    f.student.ID,
		"course_id":     f.courseCSC.ID,
		"academic_year": "2025/2026",
		"semester":      "FIRST",
		"ca_score":      25,
		"exam_score":    55,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("students see their own transcript", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/students/"+f.student.ID+"/transcript", getToken(t, f.student), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var tr result.Transcript
		decode(t, rec, &tr)
		assert.Equal(t, f.student.ID, tr.StudentID)
		require.Len(t, tr.Semesters, 1)
		// pending result carries no weight
		assert.Equal(t, 0.0, tr.CGPA)
	})

	t.Run("students may not read another transcript", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/students/"+f.lecturer.ID+"/transcript", getToken(t, f.student), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admins may read any transcript", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/students/"+f.student.ID+"/transcript", getToken(t, f.deptAdmin), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAssignmentAPI_staging(t *testing.T) {
	f := setup(t)
	admin := getToken(t, f.deptAdmin)

	t.Run("staging is admin only", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/assignments/staging", getToken(t, f.lecturer), echoMap{
			"course_id": f.courseCSC.ID, "lecturer_id": f.lecturer.ID,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("stage then confirm commits the pair", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/assignments/staging", admin, echoMap{
			"course_id": f.courseCSC.ID, "lecturer_id": f.lecturer.ID,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var session SessionResponse
		decode(t, rec, &session)
		require.Len(t, session.Pairs, 1)

		rec = f.do(t, http.MethodPost, "/v1/assignments/staging/confirm", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var batch assignment.BatchResult
		decode(t, rec, &batch)
		assert.Equal(t, 1, batch.Created)
		assert.Equal(t, 0, batch.Failed)

		// the session drained
		rec = f.do(t, http.MethodGet, "/v1/assignments/staging", admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &session)
		assert.Empty(t, session.Pairs)
	})

	t.Run("staging an already assigned course conflicts", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/assignments/staging", admin, echoMap{
			"course_id": f.courseCSC.ID, "lecturer_id": f.lecturer.ID,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
