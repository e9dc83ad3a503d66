package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
)

type approvalRepository struct {
	db *sqlx.DB
}

var _ approval.Repository = (*approvalRepository)(nil)

func NewApprovalRepository(db *sqlx.DB) approval.Repository {
	return &approvalRepository{db: db}
}

const approvalColumns = `id, result_id, level, status, comments,
	department_approver_id, department_acted_at, school_approver_id, school_acted_at,
	senate_approver_id, senate_acted_at, version, created_at, updated_at`

func (repo *approvalRepository) CreateApproval(ctx context.Context, appr approval.ResultApproval) (approval.ResultApproval, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO result_approval (id, result_id, level, status, comments,
		        department_approver_id, department_acted_at, school_approver_id, school_acted_at,
		        senate_approver_id, senate_acted_at, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		appr.ID, appr.ResultID, appr.Level, appr.Status, appr.Comments,
		appr.DepartmentApproverID, appr.DepartmentActedAt, appr.SchoolApproverID, appr.SchoolActedAt,
		appr.SenateApproverID, appr.SenateActedAt, appr.Version, appr.CreatedAt, appr.UpdatedAt,
	)
	if err != nil {
		return approval.ResultApproval{}, errors.Wrap(err, "creating approval")
	}
	return appr, nil
}

func (repo *approvalRepository) GetApprovalByID(ctx context.Context, id string) (approval.ResultApproval, error) {
	var appr approval.ResultApproval
	err := repo.db.GetContext(ctx, &appr, `SELECT `+approvalColumns+` FROM result_approval WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return approval.ResultApproval{}, approval.ErrNotFound
		}
		return approval.ResultApproval{}, errors.Wrap(err, "getting approval by id")
	}
	return appr, nil
}

// GetApprovalByResultID returns the latest approval cycle for a result;
// rejected cycles are superseded on resubmission.
func (repo *approvalRepository) GetApprovalByResultID(ctx context.Context, resultID string) (approval.ResultApproval, error) {
	var appr approval.ResultApproval
	err := repo.db.GetContext(ctx, &appr,
		`SELECT `+approvalColumns+` FROM result_approval
		 WHERE result_id = $1 ORDER BY created_at DESC LIMIT 1`,
		resultID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return approval.ResultApproval{}, approval.ErrNotFound
		}
		return approval.ResultApproval{}, errors.Wrap(err, "getting approval by result id")
	}
	return appr, nil
}

func (repo *approvalRepository) SaveTransition(ctx context.Context, appr approval.ResultApproval) (approval.ResultApproval, error) {
	cmd, err := repo.db.ExecContext(ctx,
		`UPDATE result_approval
		 SET level = $3, status = $4, comments = $5,
		     department_approver_id = $6, department_acted_at = $7,
		     school_approver_id = $8, school_acted_at = $9,
		     senate_approver_id = $10, senate_acted_at = $11,
		     version = version + 1, updated_at = $12
		 WHERE id = $1 AND version = $2`,
		appr.ID, appr.Version, appr.Level, appr.Status, appr.Comments,
		appr.DepartmentApproverID, appr.DepartmentActedAt,
		appr.SchoolApproverID, appr.SchoolActedAt,
		appr.SenateApproverID, appr.SenateActedAt, appr.UpdatedAt,
	)
	if err != nil {
		return approval.ResultApproval{}, errors.Wrap(err, "saving approval transition")
	}
	if n, err := cmd.RowsAffected(); err == nil && n == 0 {
		return approval.ResultApproval{}, core.NewConflictError("the approval was modified concurrently, reload and retry")
	}
	appr.Version++
	return appr, nil
}

func (repo *approvalRepository) FilterApprovals(ctx context.Context, filter approval.QueryFilter) ([]approval.ResultApproval, error) {
	query := `SELECT ` + prefixColumns("ra", approvalColumns) + `
		FROM result_approval ra
		JOIN result r ON r.id = ra.result_id
		WHERE true`
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += argCond(` AND ra.status = $%d`, len(args))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		query += argCond(` AND r.academic_year = $%d`, len(args))
	}
	if filter.Semester != "" {
		args = append(args, filter.Semester)
		query += argCond(` AND r.semester = $%d`, len(args))
	}
	query += ` ORDER BY ra.created_at`

	approvals := make([]approval.ResultApproval, 0)
	if err := repo.db.SelectContext(ctx, &approvals, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering approvals")
	}
	return approvals, nil
}

func (repo *approvalRepository) StatusesByResultIDs(ctx context.Context, resultIDs []string) (map[string]approval.Status, error) {
	statuses := make(map[string]approval.Status, len(resultIDs))
	if len(resultIDs) == 0 {
		return statuses, nil
	}

	// DISTINCT ON keeps only the latest cycle per result.
	rows := make([]struct {
		ResultID string          `db:"result_id"`
		Status   approval.Status `db:"status"`
	}, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT ON (result_id) result_id, status
		 FROM result_approval WHERE result_id = ANY($1)
		 ORDER BY result_id, created_at DESC`,
		pq.Array(resultIDs),
	)
	if err != nil {
		return nil, errors.Wrap(err, "getting approval statuses")
	}
	for _, row := range rows {
		statuses[row.ResultID] = row.Status
	}
	return statuses, nil
}
