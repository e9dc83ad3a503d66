package result_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/course"
	"github.com/eakinwale/acadia/core/result"
	"github.com/eakinwale/acadia/core/user"
	inmemdb "github.com/eakinwale/acadia/storage/database/inmem"
	testutil "github.com/eakinwale/acadia/tests"
)

type resultFixture struct {
	svc      *result.Service
	apprSvc  *approval.Service
	crsRepo  course.Repository
	resRepo  result.Repository
	courseID string
}

func newResultFixture(t *testing.T) *resultFixture {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)

	crsRepo := inmemdb.NewCourseRepository(db)
	resRepo := inmemdb.NewResultRepository(db)
	apprSvc := approval.NewService(inmemdb.NewApprovalRepository(db), nil, nil, nil)
	svc := result.NewService(resRepo, crsRepo, apprSvc, core.Conf)

	crs := testutil.CreateCourse(t, crsRepo, "CSC101", "Intro to Computing", 3, "Computer Science")
	return &resultFixture{svc: svc, apprSvc: apprSvc, crsRepo: crsRepo, resRepo: resRepo, courseID: crs.ID}
}

func (f *resultFixture) submit(t *testing.T, studentID string, ca, exam float64) result.Result {
	t.Helper()
	res, err := f.svc.SubmitScores(context.Background(), result.NewResult{
		StudentID:    studentID,
		CourseID:     f.courseID,
		AcademicYear: "2025/2026",
		Semester:     core.SemesterFirst,
		CAScore:      ca,
		ExamScore:    exam,
	})
	require.NoError(t, err)
	return res
}

// approveTo walks a result's approval up to the given terminal status.
func (f *resultFixture) approveTo(t *testing.T, resultID string, target approval.Status) {
	t.Helper()
	ctx := context.Background()

	steps := map[approval.Status]int{
		approval.StatusDepartmentApproved: 1,
		approval.StatusFacultyApproved:    2,
		approval.StatusSenateApproved:     3,
	}
	roles := []string{user.RoleAdminDepartment, user.RoleAdminSchool, user.RoleAdminSenate}

	appr, err := f.apprSvc.GetByResultID(ctx, resultID)
	require.NoError(t, err)

	for i := 0; i < steps[target]; i++ {
		appr, err = f.apprSvc.Act(ctx, appr.ID, approval.Action{
			ActorID:   "admin-" + roles[i],
			ActorRole: roles[i],
			Decision:  approval.DecisionApprove,
		})
		require.NoError(t, err)
	}
}

func TestService_SubmitScores(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	res := f.submit(t, "student-1", 25, 55)

	assert.Equal(t, 80.0, res.TotalScore)
	assert.Equal(t, result.GradeA, res.Grade)
	assert.Equal(t, 3, res.CreditUnit)
	assert.Equal(t, "csc101", res.CourseCode)

	// submission opens a department-tier approval cycle
	appr, err := f.apprSvc.GetByResultID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusPending, appr.Status)
	assert.Equal(t, approval.LevelDepartment, appr.Level)
	assert.Equal(t, 1, appr.Version)
}

func TestService_SubmitScores_validation(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		nr   result.NewResult
	}{
		{
			"ca score above ceiling",
			result.NewResult{
				StudentID: "s1", CourseID: f.courseID, AcademicYear: "2025/2026",
				Semester: core.SemesterFirst, CAScore: 35, ExamScore: 50,
			},
		},
		{
			"exam score above ceiling",
			result.NewResult{
				StudentID: "s1", CourseID: f.courseID, AcademicYear: "2025/2026",
				Semester: core.SemesterFirst, CAScore: 20, ExamScore: 75,
			},
		},
		{
			"malformed academic year",
			result.NewResult{
				StudentID: "s1", CourseID: f.courseID, AcademicYear: "2025-2026",
				Semester: core.SemesterFirst, CAScore: 20, ExamScore: 50,
			},
		},
		{
			"non-consecutive academic year",
			result.NewResult{
				StudentID: "s1", CourseID: f.courseID, AcademicYear: "2025/2027",
				Semester: core.SemesterFirst, CAScore: 20, ExamScore: 50,
			},
		},
		{
			"unknown semester",
			result.NewResult{
				StudentID: "s1", CourseID: f.courseID, AcademicYear: "2025/2026",
				Semester: "THIRD", CAScore: 20, ExamScore: 50,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitScores(ctx, tt.nr)
			assert.Error(t, err)
		})
	}

	t.Run("unknown course", func(t *testing.T) {
		_, err := f.svc.SubmitScores(ctx, result.NewResult{
			StudentID: "s1", CourseID: "nope", AcademicYear: "2025/2026",
			Semester: core.SemesterFirst, CAScore: 20, ExamScore: 50,
		})
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_resubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("pending result may be corrected in place", func(t *testing.T) {
		f := newResultFixture(t)
		res := f.submit(t, "student-1", 10, 30)
		assert.Equal(t, result.GradeE, res.Grade)

		res2 := f.submit(t, "student-1", 25, 55)
		assert.Equal(t, res.ID, res2.ID)
		assert.Equal(t, result.GradeA, res2.Grade)

		appr, err := f.apprSvc.GetByResultID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, appr.Status)
	})

	t.Run("result under review rejects resubmission", func(t *testing.T) {
		f := newResultFixture(t)
		res := f.submit(t, "student-1", 10, 30)
		f.approveTo(t, res.ID, approval.StatusDepartmentApproved)

		_, err := f.svc.SubmitScores(ctx, result.NewResult{
			StudentID: "student-1", CourseID: f.courseID, AcademicYear: "2025/2026",
			Semester: core.SemesterFirst, CAScore: 25, ExamScore: 55,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "under review")
	})

	t.Run("finalized result is immutable", func(t *testing.T) {
		f := newResultFixture(t)
		res := f.submit(t, "student-1", 10, 30)
		f.approveTo(t, res.ID, approval.StatusSenateApproved)

		_, err := f.svc.SubmitScores(ctx, result.NewResult{
			StudentID: "student-1", CourseID: f.courseID, AcademicYear: "2025/2026",
			Semester: core.SemesterFirst, CAScore: 25, ExamScore: 55,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finalized")
	})

	t.Run("rejected result may be corrected and re-enters at department", func(t *testing.T) {
		f := newResultFixture(t)
		res := f.submit(t, "student-1", 10, 30)

		appr, err := f.apprSvc.GetByResultID(ctx, res.ID)
		require.NoError(t, err)
		_, err = f.apprSvc.Act(ctx, appr.ID, approval.Action{
			ActorID:   "dept-admin",
			ActorRole: user.RoleAdminDepartment,
			Decision:  approval.DecisionReject,
			Comments:  "scores look transposed",
		})
		require.NoError(t, err)

		res2 := f.submit(t, "student-1", 30, 55)
		assert.Equal(t, res.ID, res2.ID)
		assert.Equal(t, 85.0, res2.TotalScore)

		// a fresh cycle was opened at the department tier
		appr2, err := f.apprSvc.GetByResultID(ctx, res.ID)
		require.NoError(t, err)
		assert.NotEqual(t, appr.ID, appr2.ID)
		assert.Equal(t, approval.StatusPending, appr2.Status)
		assert.Equal(t, approval.LevelDepartment, appr2.Level)
	})
}

func TestService_TranscriptFor(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	// second-semester course for the same student
	crs2 := testutil.CreateCourse(t, f.crsRepo, "MTH102", "Calculus II", 2, "Mathematics")

	// approved A on 3 units
	res1 := f.submit(t, "student-1", 25, 55)
	f.approveTo(t, res1.ID, approval.StatusSenateApproved)

	// approved C on 2 units, second semester
	res2, err := f.svc.SubmitScores(ctx, result.NewResult{
		StudentID: "student-1", CourseID: crs2.ID, AcademicYear: "2025/2026",
		Semester: core.SemesterSecond, CAScore: 20, ExamScore: 35,
	})
	require.NoError(t, err)
	f.approveTo(t, res2.ID, approval.StatusSenateApproved)

	// pending result in the first semester must not weigh anywhere
	crs3 := testutil.CreateCourse(t, f.crsRepo, "PHY101", "Mechanics", 4, "Physics")
	_, err = f.svc.SubmitScores(ctx, result.NewResult{
		StudentID: "student-1", CourseID: crs3.ID, AcademicYear: "2025/2026",
		Semester: core.SemesterFirst, CAScore: 5, ExamScore: 10,
	})
	require.NoError(t, err)

	tr, err := f.svc.TranscriptFor(ctx, "student-1")
	require.NoError(t, err)

	require.Len(t, tr.Semesters, 2)
	first, second := tr.Semesters[0], tr.Semesters[1]
	assert.Equal(t, core.SemesterFirst, first.Semester)
	assert.Equal(t, core.SemesterSecond, second.Semester)

	// first semester GPA: only the approved A weighs, the pending F is listed but excluded
	assert.Len(t, first.Results, 2)
	assert.Equal(t, 5.0, first.GPA)
	assert.Equal(t, 3.0, second.GPA)

	// CGPA over approved results only: (5*3 + 3*2) / 5
	assert.InDelta(t, 4.2, tr.CGPA, 1e-9)
}

func TestService_TranscriptFor_empty(t *testing.T) {
	f := newResultFixture(t)

	tr, err := f.svc.TranscriptFor(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.CGPA)
	assert.Empty(t, tr.Semesters)
}

func TestService_Backfill(t *testing.T) {
	f := newResultFixture(t)
	ctx := context.Background()

	f.submit(t, "student-1", 25, 55)
	res2 := f.submit(t, "student-2", 20, 35)

	// nothing drifted yet
	updated, err := f.svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)

	// simulate a stored grade drifting from the active scale
	drifted := res2
	drifted.Grade = result.GradeA
	_, err = f.resRepo.UpdateResult(ctx, drifted)
	require.NoError(t, err)

	updated, err = f.svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	fixed, err := f.svc.GetByID(ctx, res2.ID)
	require.NoError(t, err)
	assert.Equal(t, result.GradeC, fixed.Grade)

	// idempotent
	updated, err = f.svc.Backfill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
