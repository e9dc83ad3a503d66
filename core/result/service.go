package result

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/course"
)

var (
	ErrNotFound    = core.NewNotFoundError("result not found")
	errFinalized   = core.NewStateError("result already finalized; further changes require a new submission")
	errUnderReview = core.NewStateError("result is under review and cannot be modified")
)

type Service struct {
	repo      Repository
	courses   course.Repository
	approvals *approval.Service
	conf      *core.Config
	scale     GradeScale
}

func NewService(repo Repository, courses course.Repository, approvals *approval.Service, conf *core.Config) *Service {
	return &Service{
		repo:      repo,
		courses:   courses,
		approvals: approvals,
		conf:      conf,
		scale:     DefaultGradeScale(),
	}
}

// Scale exposes the grade scale shared by every computation site.
func (svc *Service) Scale() GradeScale {
	return svc.scale
}

// compute derives TotalScore and Grade from the raw scores. Raw scores are
// sanitized to safe numeric values, never rejected here; range checks belong
// to input validation.
func (svc *Service) compute(res *Result) {
	if res.CAScore < 0 {
		res.CAScore = 0
	}
	if res.ExamScore < 0 {
		res.ExamScore = 0
	}
	res.TotalScore = res.CAScore + res.ExamScore
	res.Grade = svc.scale.GradeFor(res.TotalScore)
}

// SubmitScores records a lecturer's scores for one student on one course and
// opens a department-tier approval cycle. Resubmitting an existing result is
// only permitted while its approval is still pending or after rejection; a
// rejected result gets a fresh approval cycle.
func (svc *Service) SubmitScores(ctx context.Context, nr NewResult) (Result, error) {
	if err := nr.Validate(svc.conf); err != nil {
		return Result{}, err
	}

	crs, err := svc.courses.GetCourseByID(ctx, nr.CourseID)
	if err != nil {
		return Result{}, err
	}

	existing, err := svc.repo.GetResult(ctx, nr.StudentID, nr.CourseID, nr.AcademicYear, nr.Semester)
	if err == nil {
		return svc.resubmit(ctx, existing, nr)
	}
	if !core.IsNotFound(err) {
		return Result{}, errors.Wrap(err, "checking existing result")
	}

	now := time.Now().UTC()
	res := Result{
		ID:           uuid.New().String(),
		StudentID:    nr.StudentID,
		CourseID:     crs.ID,
		CourseCode:   crs.Code,
		CourseTitle:  crs.Title,
		AcademicYear: nr.AcademicYear,
		Semester:     nr.Semester,
		CAScore:      nr.CAScore,
		ExamScore:    nr.ExamScore,
		CreditUnit:   crs.CreditUnit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	svc.compute(&res)

	res, err = svc.repo.CreateResult(ctx, res)
	if err != nil {
		return Result{}, err
	}
	if _, err = svc.approvals.Submit(ctx, res.ID); err != nil {
		return Result{}, errors.Wrap(err, "opening approval cycle")
	}
	return res, nil
}

// resubmit updates a result's scores. Finalized results are immutable; a
// result rejected at some tier may be corrected, which opens a new cycle.
func (svc *Service) resubmit(ctx context.Context, res Result, nr NewResult) (Result, error) {
	appr, err := svc.approvals.GetByResultID(ctx, res.ID)
	rejected := false
	if err == nil {
		switch {
		case appr.Status == approval.StatusSenateApproved:
			return Result{}, errFinalized
		case appr.Status == approval.StatusRejected:
			rejected = true
		case appr.Status != approval.StatusPending:
			return Result{}, errUnderReview
		}
	} else if !core.IsNotFound(err) {
		return Result{}, errors.Wrap(err, "checking approval status")
	}

	res.CAScore = nr.CAScore
	res.ExamScore = nr.ExamScore
	res.UpdatedAt = time.Now().UTC()
	svc.compute(&res)

	res, err = svc.repo.UpdateResult(ctx, res)
	if err != nil {
		return Result{}, err
	}
	if rejected {
		if _, err = svc.approvals.Submit(ctx, res.ID); err != nil {
			return Result{}, errors.Wrap(err, "reopening approval cycle")
		}
	}
	return res, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Result, error) {
	return svc.repo.GetResultByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Result, error) {
	filter.Clean()
	return svc.repo.FilterResults(ctx, filter)
}

type (
	// SemesterRecord is one term's slice of a transcript. GPA only weighs
	// senate-approved results; results still in flight are listed but carry
	// no weight.
	SemesterRecord struct {
		AcademicYear string        `json:"academic_year"`
		Semester     core.Semester `json:"semester"`
		GPA          float64       `json:"gpa"`
		Results      []Result      `json:"results"`
	}

	Transcript struct {
		StudentID string           `json:"student_id"`
		CGPA      float64          `json:"cgpa"`
		Semesters []SemesterRecord `json:"semesters"`
	}
)

var semesterOrder = map[core.Semester]int{
	core.SemesterFirst:  0,
	core.SemesterSecond: 1,
	core.SemesterSummer: 2,
}

// TranscriptFor aggregates a student's senate-approved results into
// per-semester GPAs and a cumulative CGPA. Pending and rejected results are
// excluded from both aggregates.
func (svc *Service) TranscriptFor(ctx context.Context, studentID string) (Transcript, error) {
	results, err := svc.repo.FilterResults(ctx, QueryFilter{StudentID: studentID})
	if err != nil {
		return Transcript{}, err
	}

	statuses, err := svc.approvedStatuses(ctx, results)
	if err != nil {
		return Transcript{}, err
	}

	type termKey struct {
		year string
		sem  core.Semester
	}
	terms := make(map[termKey][]Result)
	var keys []termKey
	var cumulative []GradeEntry

	for _, res := range results {
		k := termKey{res.AcademicYear, res.Semester}
		if _, ok := terms[k]; !ok {
			keys = append(keys, k)
		}
		terms[k] = append(terms[k], res)
		if statuses[res.ID] == approval.StatusSenateApproved {
			cumulative = append(cumulative, GradeEntry{Grade: res.Grade, CreditUnit: res.CreditUnit})
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return semesterOrder[keys[i].sem] < semesterOrder[keys[j].sem]
	})

	tr := Transcript{StudentID: studentID, CGPA: svc.scale.CGPA(cumulative)}
	for _, k := range keys {
		var entries []GradeEntry
		for _, res := range terms[k] {
			if statuses[res.ID] == approval.StatusSenateApproved {
				entries = append(entries, GradeEntry{Grade: res.Grade, CreditUnit: res.CreditUnit})
			}
		}
		tr.Semesters = append(tr.Semesters, SemesterRecord{
			AcademicYear: k.year,
			Semester:     k.sem,
			GPA:          svc.scale.GPA(entries),
			Results:      terms[k],
		})
	}
	return tr, nil
}

func (svc *Service) approvedStatuses(ctx context.Context, results []Result) (map[string]approval.Status, error) {
	if len(results) == 0 {
		return map[string]approval.Status{}, nil
	}
	ids := make([]string, 0, len(results))
	for _, res := range results {
		ids = append(ids, res.ID)
	}
	return svc.approvals.StatusesByResultIDs(ctx, ids)
}

// Backfill recomputes derived fields across all stored results and rewrites
// only rows whose stored grade or total drifted from the current scale. It is
// read-only when nothing drifted, and idempotent.
func (svc *Service) Backfill(ctx context.Context) (int, error) {
	results, err := svc.repo.FilterResults(ctx, QueryFilter{})
	if err != nil {
		return 0, err
	}

	var updated int
	for _, res := range results {
		recomputed := res
		svc.compute(&recomputed)
		if recomputed.TotalScore == res.TotalScore && recomputed.Grade == res.Grade {
			continue
		}
		recomputed.UpdatedAt = time.Now().UTC()
		if _, err := svc.repo.UpdateResult(ctx, recomputed); err != nil {
			return updated, errors.Wrapf(err, "backfilling result %s", res.ID)
		}
		updated++
	}
	return updated, nil
}
