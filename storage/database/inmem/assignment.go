package inmemdb

import (
	"context"
	"sort"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) AssignmentExists(_ context.Context, courseID, academicYear string, semester core.Semester) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	return repo.exists(courseID, academicYear, semester), nil
}

// exists must be called with the table lock held.
func (repo *assignmentRepository) exists(courseID, academicYear string, semester core.Semester) bool {
	for _, asg := range repo.db.table {
		if asg.CourseID == courseID && asg.AcademicYear == academicYear && asg.Semester == semester {
			return true
		}
	}
	return false
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.CourseAssignment) (assignment.CourseAssignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// mirrors the store's unique index on (course, year, semester)
	if repo.exists(asg.CourseID, asg.AcademicYear, asg.Semester) {
		return assignment.CourseAssignment{}, core.NewDuplicateError("course already has a lecturer for this term")
	}
	repo.db.table[asg.ID] = &asg
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.CourseAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if asg, ok := repo.db.table[id]; ok {
		return *asg, nil
	}
	return assignment.CourseAssignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *assignmentRepository) FilterAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.CourseAssignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]assignment.CourseAssignment, 0)
	for _, asg := range repo.db.table {
		if filter.LecturerID != "" && asg.LecturerID != filter.LecturerID {
			continue
		}
		if filter.AcademicYear != "" && asg.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Semester != "" && asg.Semester != filter.Semester {
			continue
		}
		matches = append(matches, *asg)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CourseID < matches[j].CourseID })
	return matches, nil
}
