package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/repository"
	appErr "github.com/govbuilder/engine/pkg/errors"
	"github.com/govbuilder/engine/pkg/logger"
)

// syncPass holds the state of one sequential sync over all content types.
type syncPass struct {
	ctx   context.Context
	src   govbuilt.Source
	repos *repository.Repositories

	// cache keeps successful fetches so a dependency fetched early is not fetched twice.
	cache map[govbuilt.ContentType][]govbuilt.ContentItem
	// produced counts items merged per content type during this pass.
	produced map[govbuilt.ContentType]int
}

func (p *syncPass) fetch(ct govbuilt.ContentType) ([]govbuilt.ContentItem, error) {
	if items, ok := p.cache[ct]; ok {
		return items, nil
	}
	items, err := p.src.Fetch(p.ctx, ct)
	if err != nil {
		return nil, err
	}
	p.cache[ct] = items
	return items, nil
}

func (p *syncPass) run(ct govbuilt.ContentType) SyncResult {
	res := SyncResult{ContentType: string(ct)}
	log := logger.L().With(zap.String("content_type", string(ct)))

	items, err := p.fetch(ct)
	if err != nil {
		log.Warn("content type fetch failed", zap.Error(err))
		return failed(res, err)
	}
	res.Fetched = len(items)

	var (
		merge      repository.MergeResult
		unresolved []string
	)
	switch ct {
	case govbuilt.CaseStatus:
		merge, err = p.repos.Statuses.Merge(mapAll(items, mapStatus))
	case govbuilt.LicenseStatus:
		merge, err = p.repos.LicenseStatuses.Merge(mapAll(items, mapStatus))
	case govbuilt.CaseSubType:
		merge, err = p.repos.Subtypes.Merge(mapAll(items, mapSubtype))
	case govbuilt.LicenseSubType:
		merge, err = p.repos.LicenseSubTypes.Merge(mapAll(items, mapSubtype))
	case govbuilt.InspectionType:
		workflows := p.inspectionWorkflowLookup()
		mapped := make([]models.InspectionType, 0, len(items))
		for _, item := range items {
			it, missing := mapInspectionType(item, workflows)
			if it.WorkflowID == "" {
				if existing, ok := p.repos.InspectionTypes.FindByRemoteID(item.ContentItemID); ok {
					it.WorkflowID = existing.WorkflowID
				}
			}
			mapped = append(mapped, it)
			unresolved = append(unresolved, missing...)
		}
		merge, err = p.repos.InspectionTypes.Merge(mapped)
	case govbuilt.CaseType:
		lookup, dep := p.subtypeLookup(govbuilt.CaseSubType, p.repos.Subtypes)
		res.DependencyFetched = dep
		mapped := make([]models.CaseType, 0, len(items))
		for _, item := range items {
			c, missing := mapCaseType(item, lookup)
			// The remote has no case workflow, so a local assignment is the only one there is.
			if existing, ok := p.repos.CaseTypes.FindByRemoteID(item.ContentItemID); ok {
				c.WorkflowID = existing.WorkflowID
			}
			mapped = append(mapped, c)
			unresolved = append(unresolved, missing...)
		}
		merge, err = p.repos.CaseTypes.Merge(mapped)
	case govbuilt.LicenseType:
		lookup, dep := p.subtypeLookup(govbuilt.LicenseSubType, p.repos.LicenseSubTypes)
		res.DependencyFetched = dep
		mapped := make([]models.LicenseType, 0, len(items))
		for _, item := range items {
			l, missing := mapLicenseType(item, lookup)
			if existing, ok := p.repos.LicenseTypes.FindByRemoteID(item.ContentItemID); ok {
				l.WorkflowID = existing.WorkflowID
			}
			mapped = append(mapped, l)
			unresolved = append(unresolved, missing...)
		}
		merge, err = p.repos.LicenseTypes.Merge(mapped)
	case govbuilt.AccountingDetails:
		merge, err = p.repos.AccountingDetails.Merge(mapAll(items, mapAccountingDetail))
	default:
		err = appErr.Newf(appErr.CodeInvalid, "unknown content type %s", ct)
	}
	if err != nil {
		log.Warn("content type merge failed", zap.Error(err))
		return failed(res, err)
	}

	p.produced[ct] = len(items)
	res.Success = true
	res.Added = merge.Added
	res.Updated = merge.Updated
	res.Unresolved = unresolved
	for _, id := range unresolved {
		log.Warn("reference dropped",
			zap.String("code", string(appErr.CodeDependencyUnresolved)),
			zap.String("remote_id", id),
		)
	}
	log.Info("content type synced", zap.Int("count", len(items)), zap.Int("added", merge.Added), zap.Int("updated", merge.Updated))
	return res
}

// subtypeLookup maps remote subtype ids to local ids from the dependency
// collection. When the dependency has produced nothing in this pass (failed,
// empty, or not reached yet) it is fetched and merged first; the fetch is
// cached so the dependency's own turn reuses it. It returns the dependency
// name when such a fetch happened.
func (p *syncPass) subtypeLookup(dep govbuilt.ContentType, repo repository.EntityRepository[models.Subtype]) (map[string]string, string) {
	var fetched string
	if p.produced[dep] == 0 {
		fetched = string(dep)
		if cached, ok := p.cache[dep]; ok && len(cached) == 0 {
			delete(p.cache, dep)
		}
		items, err := p.fetch(dep)
		switch {
		case err != nil:
			logger.L().Warn("dependency fetch failed", zap.String("content_type", string(dep)), zap.Error(err))
		case len(items) > 0:
			if _, err := repo.Merge(mapAll(items, mapSubtype)); err != nil {
				logger.L().Warn("dependency merge failed", zap.String("content_type", string(dep)), zap.Error(err))
			} else {
				p.produced[dep] = len(items)
			}
		}
	}

	lookup := map[string]string{}
	for _, st := range repo.List() {
		if rid := st.RemoteID(); rid != "" {
			lookup[rid] = st.ID
		}
	}
	return lookup, fetched
}

// inspectionWorkflowLookup resolves a workflow reference by remote id or local id.
func (p *syncPass) inspectionWorkflowLookup() map[string]string {
	lookup := map[string]string{}
	for _, wf := range p.repos.InspectionWorkflows.List() {
		lookup[wf.ID] = wf.ID
		if rid := wf.RemoteID(); rid != "" {
			lookup[rid] = wf.ID
		}
	}
	return lookup
}

func failed(res SyncResult, err error) SyncResult {
	res.Success = false
	res.Error = err.Error()
	res.ErrorCode = string(appErr.CodeOf(err))
	return res
}
