package course

import (
	"context"
	"time"

	"github.com/eakinwale/acadia/core"
)

// Course is the catalogue entry a result or an assignment refers to. Credit
// units are copied onto results at computation time so historical results
// survive later catalogue edits.
type Course struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Title      string    `db:"title" json:"title"`
	CreditUnit int       `db:"credit_unit" json:"credit_unit"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code       string `json:"code" validate:"required"`
	Title      string `json:"title" validate:"required"`
	CreditUnit int    `json:"credit_unit" validate:"gte=0,lte=12"`
	Department string `json:"department" validate:"required"`
}

func (nc *NewCourse) Validate() error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	nc.Department = core.CleanString(nc.Department)
	return core.Validate.Struct(nc)
}

type QueryFilter struct {
	Search     string `query:"search"`
	Department string `query:"department"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
}

type Repository interface {
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	GetCourseByID(ctx context.Context, id string) (Course, error)
	GetCourseByCode(ctx context.Context, code string) (Course, error)
	// FilterCourses applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on Code or Title.
	FilterCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
}
