package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/result"
)

type resultRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *sqlx.DB) result.Repository {
	return &resultRepository{db: db}
}

const resultColumns = `id, student_id, course_id, course_code, course_title, academic_year,
	semester, ca_score, exam_score, total_score, grade, credit_unit, created_at, updated_at`

func (repo *resultRepository) CreateResult(ctx context.Context, res result.Result) (result.Result, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO result (id, student_id, course_id, course_code, course_title, academic_year,
		        semester, ca_score, exam_score, total_score, grade, credit_unit, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		res.ID, res.StudentID, res.CourseID, res.CourseCode, res.CourseTitle, res.AcademicYear,
		res.Semester, res.CAScore, res.ExamScore, res.TotalScore, res.Grade, res.CreditUnit,
		res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return result.Result{}, core.NewDuplicateError("a result already exists for this student, course and term")
		}
		return result.Result{}, errors.Wrap(err, "creating result")
	}
	return res, nil
}

func (repo *resultRepository) GetResultByID(ctx context.Context, id string) (result.Result, error) {
	var res result.Result
	err := repo.db.GetContext(ctx, &res, `SELECT `+resultColumns+` FROM result WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return result.Result{}, result.ErrNotFound
		}
		return result.Result{}, errors.Wrap(err, "getting result by id")
	}
	return res, nil
}

func (repo *resultRepository) GetResult(ctx context.Context, studentID, courseID, academicYear string, semester core.Semester) (result.Result, error) {
	var res result.Result
	err := repo.db.GetContext(ctx, &res,
		`SELECT `+resultColumns+` FROM result
		 WHERE student_id = $1 AND course_id = $2 AND academic_year = $3 AND semester = $4`,
		studentID, courseID, academicYear, semester,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return result.Result{}, result.ErrNotFound
		}
		return result.Result{}, errors.Wrap(err, "getting result")
	}
	return res, nil
}

func (repo *resultRepository) FilterResults(ctx context.Context, filter result.QueryFilter) ([]result.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM result WHERE true`
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += argCond(` AND student_id = $%d`, len(args))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += argCond(` AND course_id = $%d`, len(args))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		query += argCond(` AND academic_year = $%d`, len(args))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		query += argCond(` AND semester = $%d`, len(args))
	}
	query += ` ORDER BY created_at`

	results := make([]result.Result, 0)
	if err := repo.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering results")
	}
	return results, nil
}

func (repo *resultRepository) UpdateResult(ctx context.Context, res result.Result) (result.Result, error) {
	cmd, err := repo.db.ExecContext(ctx,
		`UPDATE result SET ca_score = $2, exam_score = $3, total_score = $4, grade = $5,
		        credit_unit = $6, course_code = $7, course_title = $8, updated_at = $9
		 WHERE id = $1`,
		res.ID, res.CAScore, res.ExamScore, res.TotalScore, res.Grade,
		res.CreditUnit, res.CourseCode, res.CourseTitle, res.UpdatedAt,
	)
	if err != nil {
		return result.Result{}, errors.Wrap(err, "updating result")
	}
	if n, err := cmd.RowsAffected(); err == nil && n == 0 {
		return result.Result{}, result.ErrNotFound
	}
	return res, nil
}
