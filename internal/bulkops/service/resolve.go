package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bulkops/internal/bulkops/model"
)

// validateRequest normalizes req in place and converts validation failures to
// ErrValidation.
func validateRequest(req *model.BatchOperationRequest) error {
	if err := req.Validate(); err != nil {
		var detail *model.ErrorDetail
		if errors.As(err, &detail) {
			return fmt.Errorf("%w: %s", ErrValidation, detail.Message)
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// resolveTargets loads every target of req in one read. An id owned by
// another tenant is a validation error, an id nobody owns is not found.
// The result is indexed by id.
func (s *Service) resolveTargets(ctx context.Context, req *model.BatchOperationRequest) (map[string]*model.TargetRecord, error) {
	records, err := s.Store.FetchByIDs(ctx, req.TenantID, req.TargetIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*model.TargetRecord, len(records))
	for _, r := range records {
		if r.TenantID != req.TenantID {
			return nil, fmt.Errorf("%w: target %s is outside tenant %s", ErrValidation, r.ID, req.TenantID)
		}
		byID[r.ID] = r
	}

	var missing []string
	for _, id := range req.TargetIDs {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return byID, nil
	}

	owners, err := s.Store.ResolveTenants(ctx, missing)
	if err != nil {
		return nil, err
	}
	var foreign []string
	for _, id := range missing {
		if owner, ok := owners[id]; ok && owner != req.TenantID {
			foreign = append(foreign, id)
		}
	}
	if len(foreign) > 0 {
		sort.Strings(foreign)
		return nil, fmt.Errorf("%w: targets outside tenant %s: %s", ErrValidation, req.TenantID, summarize(foreign))
	}
	return nil, fmt.Errorf("%w: targets %s", ErrNotFound, summarize(missing))
}

// ordered returns the targets in request order.
func ordered(req *model.BatchOperationRequest, byID map[string]*model.TargetRecord) []*model.TargetRecord {
	out := make([]*model.TargetRecord, 0, len(req.TargetIDs))
	for _, id := range req.TargetIDs {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
