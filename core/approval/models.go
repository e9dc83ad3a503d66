package approval

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/user"
)

// Level names the admin tier whose action a pending approval awaits.
type Level string

const (
	LevelDepartment Level = "DEPARTMENT_ADMIN"
	LevelSchool     Level = "SCHOOL_ADMIN"
	LevelSenate     Level = "SENATE_ADMIN"
)

// Status is the workflow state of an approval record.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusDepartmentApproved Status = "DEPARTMENT_APPROVED"
	StatusFacultyApproved    Status = "FACULTY_APPROVED"
	StatusSenateApproved     Status = "SENATE_APPROVED"
	StatusRejected           Status = "REJECTED"
)

// Decision is an approver's verdict on a pending approval.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// transition describes the effect of an approval at a given tier.
type transition struct {
	status   Status
	next     Level
	terminal bool
}

// approveTransitions is the whole state machine as data: tier order, resulting
// statuses and the terminal senate step. Rejection is handled separately since
// it is terminal from any tier.
var approveTransitions = map[Level]transition{
	LevelDepartment: {status: StatusDepartmentApproved, next: LevelSchool},
	LevelSchool:     {status: StatusFacultyApproved, next: LevelSenate},
	LevelSenate:     {status: StatusSenateApproved, next: LevelSenate, terminal: true},
}

// levelRoles is the single place mapping approval tiers to actor roles.
var levelRoles = map[Level]string{
	LevelDepartment: user.RoleAdminDepartment,
	LevelSchool:     user.RoleAdminSchool,
	LevelSenate:     user.RoleAdminSenate,
}

// RoleFor returns the role required to act at the given tier.
func RoleFor(level Level) string {
	return levelRoles[level]
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusSenateApproved || s == StatusRejected
}

// ResultApproval is the single source of truth for one result's workflow
// state. Tier stamps are append-only: a later transition never overwrites an
// earlier tier's approver or timestamp.
type ResultApproval struct {
	ID       string `db:"id" json:"id"`
	ResultID string `db:"result_id" json:"result_id"`
	Level    Level  `db:"level" json:"level"`
	Status   Status `db:"status" json:"status"`

	Comments             null.String `db:"comments" json:"comments,omitempty"`
	DepartmentApproverID null.String `db:"department_approver_id" json:"department_approver_id,omitempty"`
	DepartmentActedAt    null.Time   `db:"department_acted_at" json:"department_acted_at,omitempty"`
	SchoolApproverID     null.String `db:"school_approver_id" json:"school_approver_id,omitempty"`
	SchoolActedAt        null.Time   `db:"school_acted_at" json:"school_acted_at,omitempty"`
	SenateApproverID     null.String `db:"senate_approver_id" json:"senate_approver_id,omitempty"`
	SenateActedAt        null.Time   `db:"senate_acted_at" json:"senate_acted_at,omitempty"`

	// Version implements optimistic concurrency: SaveTransition only applies
	// when the stored version still matches.
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // UTC
}

func (ra ResultApproval) Terminal() bool {
	return ra.Status.Terminal()
}

// stamp records the acting approver and time on the tier currently exercised.
func (ra *ResultApproval) stamp(level Level, actorID string, at time.Time) {
	switch level {
	case LevelDepartment:
		ra.DepartmentApproverID = null.StringFrom(actorID)
		ra.DepartmentActedAt = null.TimeFrom(at)
	case LevelSchool:
		ra.SchoolApproverID = null.StringFrom(actorID)
		ra.SchoolActedAt = null.TimeFrom(at)
	case LevelSenate:
		ra.SenateApproverID = null.StringFrom(actorID)
		ra.SenateActedAt = null.TimeFrom(at)
	}
}

// Action is one tier admin's decision on a pending approval.
type Action struct {
	ActorID   string   `json:"actor_id" validate:"required"`
	ActorRole string   `json:"actor_role" validate:"required"`
	Decision  Decision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Comments  string   `json:"comments"`
}

func (a *Action) Validate() error {
	a.ActorID = core.CleanString(a.ActorID)
	a.Comments = core.CleanString(a.Comments)
	return core.Validate.Struct(a)
}

type QueryFilter struct {
	Status       Status        `query:"status"`
	AcademicYear string        `query:"academic_year"`
	Semester     core.Semester `query:"semester"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.AcademicYear == "" && qf.Semester == ""
}

type Repository interface {
	CreateApproval(ctx context.Context, appr ResultApproval) (ResultApproval, error)
	GetApprovalByID(ctx context.Context, id string) (ResultApproval, error)
	GetApprovalByResultID(ctx context.Context, resultID string) (ResultApproval, error)
	// SaveTransition persists a transition, failing with core.ConflictError if
	// the stored record's version no longer matches appr.Version. The stored
	// version is bumped on success.
	SaveTransition(ctx context.Context, appr ResultApproval) (ResultApproval, error)
	// FilterApprovals applies AND operation on available QueryFilter fields;
	// year/semester filters follow the owning result.
	FilterApprovals(ctx context.Context, filter QueryFilter) ([]ResultApproval, error)
	// StatusesByResultIDs returns the approval status per result ID; results
	// with no approval record are absent from the map.
	StatusesByResultIDs(ctx context.Context, resultIDs []string) (map[string]Status, error)
}
