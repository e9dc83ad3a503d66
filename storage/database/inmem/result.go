package inmemdb

import (
	"context"
	"sort"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/result"
)

type resultRepository struct {
	db *resultTable
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

func (repo *resultRepository) CreateResult(_ context.Context, res result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[res.ID] = &res
	return res, nil
}

func (repo *resultRepository) GetResultByID(_ context.Context, id string) (result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.table[id]; ok {
		return *res, nil
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) GetResult(_ context.Context, studentID, courseID, academicYear string, semester core.Semester) (result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, res := range repo.db.table {
		if res.StudentID == studentID && res.CourseID == courseID &&
			res.AcademicYear == academicYear && res.Semester == semester {
			return *res, nil
		}
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) FilterResults(_ context.Context, filter result.QueryFilter) ([]result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]result.Result, 0)
	for _, res := range repo.db.table {
		if filter.StudentID != "" && res.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && res.CourseID != filter.CourseID {
			continue
		}
		if filter.AcademicYear != "" && res.AcademicYear != filter.AcademicYear {
			continue
		}
		if filter.Semester != "" && res.Semester != filter.Semester {
			continue
		}
		matches = append(matches, *res)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (repo *resultRepository) UpdateResult(_ context.Context, res result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[res.ID]; !ok {
		return result.Result{}, result.ErrNotFound
	}
	repo.db.table[res.ID] = &res
	return res, nil
}
