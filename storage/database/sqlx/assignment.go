package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

const assignmentColumns = `id, course_id, lecturer_id, academic_year, semester, created_at`

func (repo *assignmentRepository) AssignmentExists(ctx context.Context, courseID, academicYear string, semester core.Semester) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM course_assignment
		 WHERE course_id = $1 AND academic_year = $2 AND semester = $3)`,
		courseID, academicYear, semester,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking assignment existence")
	}
	return exists, nil
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.CourseAssignment) (assignment.CourseAssignment, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_assignment (id, course_id, lecturer_id, academic_year, semester, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		asg.ID, asg.CourseID, asg.LecturerID, asg.AcademicYear, asg.Semester, asg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assignment.CourseAssignment{}, core.NewDuplicateError("the course already has a lecturer for this term")
		}
		return assignment.CourseAssignment{}, errors.Wrap(err, "creating assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.CourseAssignment, error) {
	var asg assignment.CourseAssignment
	err := repo.db.GetContext(ctx, &asg, `SELECT `+assignmentColumns+` FROM course_assignment WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return assignment.CourseAssignment{}, assignment.ErrNotFound
		}
		return assignment.CourseAssignment{}, errors.Wrap(err, "getting assignment by id")
	}
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	cmd, err := repo.db.ExecContext(ctx, `DELETE FROM course_assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := cmd.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.CourseAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM course_assignment WHERE true`
	var args []interface{}

	if filter.LecturerID != "" {
		args = append(args, filter.LecturerID)
		query += argCond(` AND lecturer_id = $%d`, len(args))
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

	assignments := make([]assignment.CourseAssignment, 0)
	if err := repo.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	return assignments, nil
}
