package result

import (
	"context"
	"fmt"
	"time"

	"github.com/eakinwale/acadia/core"
)

// Result is one student's performance in one course for one
// (academicYear, semester). TotalScore and Grade are derived from the raw
// scores by the grade scale and never set directly.
type Result struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"student_id"`
	CourseID     string        `db:"course_id" json:"course_id"`
	CourseCode   string        `db:"course_code" json:"course_code"`
	CourseTitle  string        `db:"course_title" json:"course_title"`
	AcademicYear string        `db:"academic_year" json:"academic_year"`
	Semester     core.Semester `db:"semester" json:"semester"`
	CAScore      float64       `db:"ca_score" json:"ca_score"`
	ExamScore    float64       `db:"exam_score" json:"exam_score"`
	TotalScore   float64       `db:"total_score" json:"total_score"`
	Grade        Grade         `db:"grade" json:"grade"`
	CreditUnit   int           `db:"credit_unit" json:"credit_unit"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"` // UTC
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"` // UTC
}

// NewResult contains the scores a lecturer submits for one student on one
// course. Score ceilings are policy-defined and enforced by the service
// against the configured limits, so only the floor lives in the tags here.
type NewResult struct {
	StudentID    string        `json:"student_id" validate:"required"`
	CourseID     string        `json:"course_id" validate:"required"`
	AcademicYear string        `json:"academic_year" validate:"required,academic_year"`
	Semester     core.Semester `json:"semester" validate:"required,semester"`
	CAScore      float64       `json:"ca_score" validate:"gte=0"`
	ExamScore    float64       `json:"exam_score" validate:"gte=0"`
}

func (nr *NewResult) Validate(conf *core.Config) error {
	nr.StudentID = core.CleanString(nr.StudentID)
	nr.CourseID = core.CleanString(nr.CourseID)
	nr.AcademicYear = core.CleanString(nr.AcademicYear)

	if err := core.Validate.Struct(nr); err != nil {
		return err
	}

	var flds []core.FieldError
	if nr.CAScore > conf.Academic.MaxCAScore {
		flds = append(flds, core.FieldError{
			Field: "ca_score",
			Error: fmt.Sprintf("must not exceed %g", conf.Academic.MaxCAScore),
		})
	}
	if nr.ExamScore > conf.Academic.MaxExamScore {
		flds = append(flds, core.FieldError{
			Field: "exam_score",
			Error: fmt.Sprintf("must not exceed %g", conf.Academic.MaxExamScore),
		})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

type QueryFilter struct {
	StudentID    string        `query:"student_id"`
	CourseID     string        `query:"course_id"`
	AcademicYear string        `query:"academic_year"`
	Semester     core.Semester `query:"semester"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == "" && qf.CourseID == "" && qf.AcademicYear == "" && qf.Semester == ""
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
}

type Repository interface {
	CreateResult(ctx context.Context, res Result) (Result, error)
	GetResultByID(ctx context.Context, id string) (Result, error)
	// GetResult fetches the single result for a (student, course, session, semester) tuple.
	GetResult(ctx context.Context, studentID, courseID, academicYear string, semester core.Semester) (Result, error)
	// FilterResults applies AND operation on available QueryFilter fields.
	FilterResults(ctx context.Context, filter QueryFilter) ([]Result, error)
	UpdateResult(ctx context.Context, res Result) (Result, error)
}
