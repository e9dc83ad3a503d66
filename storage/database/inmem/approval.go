package inmemdb

import (
	"context"
	"sort"

	"github.com/eakinwale/acadia/core"
	"github.com/eakinwale/acadia/core/approval"
	"github.com/eakinwale/acadia/core/result"
)

type approvalRepository struct {
	db      *approvalTable
	results *resultTable
}

var _ approval.Repository = (*approvalRepository)(nil)

func NewApprovalRepository(db *DB) approval.Repository {
	return &approvalRepository{db: db.approval, results: db.result}
}

func (repo *approvalRepository) CreateApproval(_ context.Context, appr approval.ResultApproval) (approval.ResultApproval, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[appr.ID] = &appr
	return appr, nil
}

func (repo *approvalRepository) GetApprovalByID(_ context.Context, id string) (approval.ResultApproval, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if appr, ok := repo.db.table[id]; ok {
		return *appr, nil
	}
	return approval.ResultApproval{}, approval.ErrNotFound
}

func (repo *approvalRepository) GetApprovalByResultID(_ context.Context, resultID string) (approval.ResultApproval, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// a result may accumulate several terminal records over resubmission
	// cycles; the latest one is the source of truth
	var latest *approval.ResultApproval
	for _, appr := range repo.db.table {
		if appr.ResultID != resultID {
			continue
		}
		if latest == nil || appr.CreatedAt.After(latest.CreatedAt) {
			latest = appr
		}
	}
	if latest == nil {
		return approval.ResultApproval{}, approval.ErrNotFound
	}
	return *latest, nil
}

func (repo *approvalRepository) SaveTransition(_ context.Context, appr approval.ResultApproval) (approval.ResultApproval, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stored, ok := repo.db.table[appr.ID]
	if !ok {
		return approval.ResultApproval{}, approval.ErrNotFound
	}
	if stored.Version != appr.Version {
		return approval.ResultApproval{}, core.NewConflictError("approval was modified concurrently")
	}
	appr.Version++
	repo.db.table[appr.ID] = &appr
	return appr, nil
}

func (repo *approvalRepository) FilterApprovals(ctx context.Context, filter approval.QueryFilter) ([]approval.ResultApproval, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	matches := make([]approval.ResultApproval, 0)
	for _, appr := range repo.db.table {
		if filter.Status != "" && appr.Status != filter.Status {
			continue
		}
		if filter.AcademicYear != "" || filter.Semester != "" {
			res, ok := repo.resultFor(appr.ResultID)
			if !ok {
				continue
			}
			if filter.AcademicYear != "" && res.AcademicYear != filter.AcademicYear {
				continue
			}
			if filter.Semester != "" && res.Semester != filter.Semester {
				continue
			}
		}
		matches = append(matches, *appr)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (repo *approvalRepository) resultFor(resultID string) (result.Result, bool) {
	repo.results.RLock()
	defer repo.results.RUnlock()

	if res, ok := repo.results.table[resultID]; ok {
		return *res, true
	}
	return result.Result{}, false
}

func (repo *approvalRepository) StatusesByResultIDs(_ context.Context, resultIDs []string) (map[string]approval.Status, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]bool, len(resultIDs))
	for _, id := range resultIDs {
		wanted[id] = true
	}

	latest := make(map[string]*approval.ResultApproval, len(resultIDs))
	for _, appr := range repo.db.table {
		if !wanted[appr.ResultID] {
			continue
		}
		if prev, ok := latest[appr.ResultID]; !ok || appr.CreatedAt.After(prev.CreatedAt) {
			latest[appr.ResultID] = appr
		}
	}

	statuses := make(map[string]approval.Status, len(latest))
	for id, appr := range latest {
		statuses[id] = appr.Status
	}
	return statuses, nil
}
