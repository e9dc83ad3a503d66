package assignment

import (
	"context"
	"sort"
	"time"

	"github.com/eakinwale/acadia/core"
)

// CourseAssignment binds one lecturer to one course for one
// (academicYear, semester). At most one lecturer per course per term.
type CourseAssignment struct {
	ID           string        `db:"id" json:"id"`
	CourseID     string        `db:"course_id" json:"course_id"`
	LecturerID   string        `db:"lecturer_id" json:"lecturer_id"`
	AcademicYear string        `db:"academic_year" json:"academic_year"`
	Semester     core.Semester `db:"semester" json:"semester"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"` // UTC
}

// StagingSession holds one admin's proposed course->lecturer pairings for one
// term, before confirmation. It is an explicit entity keyed by admin and term
// so the two-phase protocol is visible and testable; sessions are never
// shared between admins.
type StagingSession struct {
	AdminID      string            `json:"admin_id"`
	AcademicYear string            `json:"academic_year"`
	Semester     core.Semester     `json:"semester"`
	Proposals    map[string]string `json:"proposals"` // courseID -> lecturerID
}

func NewStagingSession(adminID, academicYear string, semester core.Semester) *StagingSession {
	return &StagingSession{
		AdminID:      adminID,
		AcademicYear: academicYear,
		Semester:     semester,
		Proposals:    make(map[string]string),
	}
}

// Stage proposes a lecturer for a course. Staging the same course again
// replaces the prior proposal; staging is advisory, not committed.
func (s *StagingSession) Stage(courseID, lecturerID string) {
	s.Proposals[courseID] = lecturerID
}

func (s *StagingSession) Unstage(courseID string) {
	delete(s.Proposals, courseID)
}

func (s *StagingSession) Clear() {
	s.Proposals = make(map[string]string)
}

func (s *StagingSession) Len() int {
	return len(s.Proposals)
}

// Pair is one staged (course, lecturer) proposal.
type Pair struct {
	CourseID   string `json:"course_id"`
	LecturerID string `json:"lecturer_id"`
}

// Pairs returns the staged proposals in stable course order.
func (s *StagingSession) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.Proposals))
	for courseID, lecturerID := range s.Proposals {
		pairs = append(pairs, Pair{CourseID: courseID, LecturerID: lecturerID})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].CourseID < pairs[j].CourseID })
	return pairs
}

// BatchEntry is the outcome of one confirm attempt. Failures are data the
// caller surfaces per course, never a global abort.
type BatchEntry struct {
	CourseID   string `json:"course_id"`
	LecturerID string `json:"lecturer_id"`
	Created    bool   `json:"created"`
	Error      string `json:"error,omitempty"`
}

// BatchResult is the per-pair outcome list of one confirm call.
type BatchResult struct {
	Entries []BatchEntry `json:"entries"`
	Created int          `json:"created"`
	Failed  int          `json:"failed"`
}

type QueryFilter struct {
	LecturerID   string        `query:"lecturer_id"`
	AcademicYear string        `query:"academic_year"`
	Semester     core.Semester `query:"semester"`
}

func (qf *QueryFilter) Clean() {
	qf.LecturerID = core.CleanString(qf.LecturerID)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
}

type Repository interface {
	// AssignmentExists reports whether a course already has a lecturer for the term.
	AssignmentExists(ctx context.Context, courseID, academicYear string, semester core.Semester) (bool, error)
	// CreateAssignment persists an assignment, failing with core.DuplicateError
	// on the (courseID, academicYear, semester) uniqueness violation.
	CreateAssignment(ctx context.Context, asg CourseAssignment) (CourseAssignment, error)
	GetAssignmentByID(ctx context.Context, id string) (CourseAssignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	FilterAssignments(ctx context.Context, filter QueryFilter) ([]CourseAssignment, error)
}
