package approval

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eakinwale/acadia/core"
)

var (
	ErrNotFound        = core.NewNotFoundError("approval not found")
	errAlreadyInFlight = core.NewDuplicateError("result already has an approval in progress")
	errFinalized       = core.NewStateError("approval already finalized")
	errWrongTier       = core.NewAuthorizationError("actor role does not match the required approval tier")
)

// Directory resolves notification recipients for a role. Implemented by the
// user service; kept narrow so this package stays free of user internals.
type Directory interface {
	AddressesByRole(ctx context.Context, role string) ([]mail.Address, error)
}

type Service struct {
	repo      Repository
	directory Directory
	mailSvc   core.EmailService
	logger    core.Logger
}

func NewService(repo Repository, directory Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		mailSvc:   mailSvc,
		logger:    logger,
	}
}

// Submit opens an approval cycle for a result at the department tier. A
// result may only ever have one non-terminal approval record; a fresh cycle
// after rejection replaces nothing, it is a new record.
func (svc *Service) Submit(ctx context.Context, resultID string) (ResultApproval, error) {
	existing, err := svc.repo.GetApprovalByResultID(ctx, resultID)
	if err == nil && !existing.Terminal() {
		return ResultApproval{}, errAlreadyInFlight
	}
	if err != nil && !core.IsNotFound(err) {
		return ResultApproval{}, errors.Wrap(err, "checking in-flight approval")
	}

	now := time.Now().UTC()
	appr := ResultApproval{
		ID:        uuid.New().String(),
		ResultID:  resultID,
		Level:     LevelDepartment,
		Status:    StatusPending,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateApproval(ctx, appr)
}

// Act applies one tier admin's decision. The transition is validated against
// the record's current level and status, stamped with the actor and time,
// persisted under optimistic concurrency, and only then notified.
func (svc *Service) Act(ctx context.Context, approvalID string, act Action) (ResultApproval, error) {
	if err := act.Validate(); err != nil {
		return ResultApproval{}, err
	}

	appr, err := svc.repo.GetApprovalByID(ctx, approvalID)
	if err != nil {
		return ResultApproval{}, err
	}

	if appr.Terminal() {
		return ResultApproval{}, errFinalized
	}
	if act.ActorRole != RoleFor(appr.Level) {
		return ResultApproval{}, errWrongTier
	}

	now := time.Now().UTC()
	actedLevel := appr.Level

	switch act.Decision {
	case DecisionReject:
		if act.Comments == "" {
			return ResultApproval{}, core.NewValidationError(nil,
				core.FieldError{Field: "comments", Error: "comments are required to reject"})
		}
		appr.Status = StatusRejected
		appr.Comments = null.StringFrom(act.Comments)
	case DecisionApprove:
		tr := approveTransitions[appr.Level]
		appr.Status = tr.status
		if !tr.terminal {
			appr.Level = tr.next
		}
	}

	appr.stamp(actedLevel, act.ActorID, now)
	appr.UpdatedAt = now

	saved, err := svc.repo.SaveTransition(ctx, appr)
	if err != nil {
		return ResultApproval{}, err
	}

	svc.notify(ctx, saved, act, actedLevel)
	return saved, nil
}

// GetByResultID returns a result's current approval record.
func (svc *Service) GetByResultID(ctx context.Context, resultID string) (ResultApproval, error) {
	return svc.repo.GetApprovalByResultID(ctx, resultID)
}

// StatusFor returns a result's approval status; a result with no approval
// record surfaces as NotFound.
func (svc *Service) StatusFor(ctx context.Context, resultID string) (Status, error) {
	appr, err := svc.repo.GetApprovalByResultID(ctx, resultID)
	if err != nil {
		return "", err
	}
	return appr.Status, nil
}

// StatusesByResultIDs returns approval statuses for a batch of results.
func (svc *Service) StatusesByResultIDs(ctx context.Context, resultIDs []string) (map[string]Status, error) {
	return svc.repo.StatusesByResultIDs(ctx, resultIDs)
}

// Filter lists approvals for the presentation layer.
func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]ResultApproval, error) {
	return svc.repo.FilterApprovals(ctx, filter)
}

// notify emails the interested parties after a successful transition. Sending
// happens strictly after persistence; a failed transition never notifies.
func (svc *Service) notify(ctx context.Context, appr ResultApproval, act Action, actedLevel Level) {
	if svc.mailSvc == nil || svc.directory == nil {
		return
	}

	var subject, body, role string
	switch {
	case appr.Status == StatusRejected:
		role = RoleFor(actedLevel)
		subject = "Result rejected"
		body = fmt.Sprintf("Result %s was rejected at %s: %s", appr.ResultID, actedLevel, appr.Comments.String)
	case appr.Terminal():
		role = RoleFor(LevelSenate)
		subject = "Result fully approved"
		body = fmt.Sprintf("Result %s has been approved by senate and is now final.", appr.ResultID)
	default:
		role = RoleFor(appr.Level)
		subject = "Result awaiting your approval"
		body = fmt.Sprintf("Result %s was approved at %s and now awaits %s.", appr.ResultID, actedLevel, appr.Level)
	}

	addrs, err := svc.directory.AddressesByRole(ctx, role)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Warn("resolving approval notification recipients", err)
		}
		return
	}
	if len(addrs) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{To: addrs, Subject: subject, Body: body})
}
