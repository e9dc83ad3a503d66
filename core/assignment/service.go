package assignment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
)

var (
	ErrNotFound        = core.NewNotFoundError("assignment not found")
	errAlreadyAssigned = core.NewDuplicateError("course already has a lecturer for this term")
	errPastYear        = core.NewStateError("assignments for past academic years are immutable")
)

// confirmConcurrency bounds the fan-out of a single confirm batch.
const confirmConcurrency = 8

type Service struct {
	repo   Repository
	conf   *core.Config
	logger core.Logger
}

func NewService(repo Repository, conf *core.Config, logger core.Logger) *Service {
	return &Service{repo: repo, conf: conf, logger: logger}
}

// NewSession opens a staging session for an admin against the institution's
// current term.
func (svc *Service) NewSession(adminID string) *StagingSession {
	return NewStagingSession(adminID, svc.conf.Academic.CurrentYear, svc.conf.Academic.CurrentSemester)
}

// Stage proposes a lecturer for a course in the session. A course that
// already has a committed assignment for the session's term is refused up
// front so the admin learns about the duplicate before confirm.
func (svc *Service) Stage(ctx context.Context, session *StagingSession, courseID, lecturerID string) error {
	exists, err := svc.repo.AssignmentExists(ctx, courseID, session.AcademicYear, session.Semester)
	if err != nil {
		return errors.Wrap(err, "checking existing assignment")
	}
	if exists {
		return errAlreadyAssigned
	}
	session.Stage(courseID, lecturerID)
	return nil
}

// Confirm attempts to commit every staged pair for the session's term. The
// attempts fan out concurrently and are independent: each pair succeeds or
// fails on its own, and the batch reports a per-pair outcome rather than
// aborting as a whole. Confirmed pairs leave the session; failed pairs stay
// staged so the admin can retry or cancel them.
//
// Confirm refuses to touch terms other than the institution's current
// academic year and returns an empty batch.
func (svc *Service) Confirm(ctx context.Context, session *StagingSession) (BatchResult, error) {
	if session.AcademicYear != svc.conf.Academic.CurrentYear {
		if svc.logger != nil {
			svc.logger.Warn("refusing to confirm assignments for a non-current academic year",
				session.AcademicYear)
		}
		return BatchResult{}, nil
	}

	pairs := session.Pairs()
	if len(pairs) == 0 {
		return BatchResult{}, nil
	}

	entries := make([]BatchEntry, len(pairs))
	sem := make(chan struct{}, confirmConcurrency)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair Pair) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			entries[i] = svc.confirmOne(ctx, session, pair)
		}(i, pair)
	}
	wg.Wait()

	batch := BatchResult{Entries: entries}
	for _, e := range entries {
		if e.Created {
			batch.Created++
			session.Unstage(e.CourseID)
		} else {
			batch.Failed++
		}
	}
	return batch, nil
}

// confirmOne is one independent write attempt. Once it starts, its outcome is
// final; there is no cancellation of an in-flight pair.
func (svc *Service) confirmOne(ctx context.Context, session *StagingSession, pair Pair) BatchEntry {
	entry := BatchEntry{CourseID: pair.CourseID, LecturerID: pair.LecturerID}

	exists, err := svc.repo.AssignmentExists(ctx, pair.CourseID, session.AcademicYear, session.Semester)
	if err != nil {
		entry.Error = err.Error()
		return entry
	}
	if exists {
		entry.Error = errAlreadyAssigned.Error()
		return entry
	}

	asg := CourseAssignment{
		ID:           uuid.New().String(),
		CourseID:     pair.CourseID,
		LecturerID:   pair.LecturerID,
		AcademicYear: session.AcademicYear,
		Semester:     session.Semester,
		CreatedAt:    time.Now().UTC(),
	}
	// a duplicate racing past the pre-check fails cleanly on the store's
	// uniqueness constraint
	if _, err := svc.repo.CreateAssignment(ctx, asg); err != nil {
		entry.Error = err.Error()
		return entry
	}
	entry.Created = true
	return entry
}

func (svc *Service) GetByID(ctx context.Context, id string) (CourseAssignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]CourseAssignment, error) {
	filter.Clean()
	return svc.repo.FilterAssignments(ctx, filter)
}

// Delete removes a committed assignment. Prior years are read-only once the
// academic year rolls over.
func (svc *Service) Delete(ctx context.Context, id string) error {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	if asg.AcademicYear != svc.conf.Academic.CurrentYear {
		return errPastYear
	}
	return svc.repo.DeleteAssignment(ctx, id)
}
