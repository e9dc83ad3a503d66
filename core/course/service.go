package course

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eakinwale/acadia/core"
)

var ErrNotFound = core.NewNotFoundError("course not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	if _, err := svc.repo.GetCourseByCode(ctx, nc.Code); err == nil {
		return Course{}, core.NewDuplicateError("a course with this code already exists")
	} else if !core.IsNotFound(err) {
		return Course{}, err
	}

	now := time.Now().UTC()
	crs := Course{
		ID:         uuid.New().String(),
		Code:       nc.Code,
		Title:      nc.Title,
		CreditUnit: nc.CreditUnit,
		Department: nc.Department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) GetByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourseByCode(ctx, core.CleanString(code, true /* lower */))
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Clean()
	return svc.repo.FilterCourses(ctx, filter)
}
