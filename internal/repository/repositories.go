package repository

import (
	"sort"
	"strings"

	"github.com/govbuilder/engine/internal/models"
	"github.com/govbuilder/engine/internal/store"
	appErr "github.com/govbuilder/engine/pkg/errors"
)

// Collection names as exposed by the API, CLI and import.
const (
	CollectionStatuses            = "statuses"
	CollectionLicenseStatuses     = "licenseStatuses"
	CollectionCaseTypes           = "caseTypes"
	CollectionLicenseTypes        = "licenseTypes"
	CollectionSubtypes            = "subtypes"
	CollectionLicenseSubTypes     = "licenseSubTypes"
	CollectionInspectionTypes     = "inspectionTypes"
	CollectionAccountingDetails   = "accountingDetails"
	CollectionWorkflows           = "workflows"
	CollectionInspectionWorkflows = "inspectionWorkflows"
	CollectionLicenseWorkflows    = "licenseWorkflows"
)

// Repositories bundles one repository per collection of an opened project.
type Repositories struct {
	Statuses            EntityRepository[models.Status]
	LicenseStatuses     EntityRepository[models.Status]
	CaseTypes           EntityRepository[models.CaseType]
	LicenseTypes        EntityRepository[models.LicenseType]
	Subtypes            EntityRepository[models.Subtype]
	LicenseSubTypes     EntityRepository[models.Subtype]
	InspectionTypes     EntityRepository[models.InspectionType]
	AccountingDetails   EntityRepository[models.AccountingDetail]
	Workflows           EntityRepository[models.Workflow]
	InspectionWorkflows EntityRepository[models.InspectionWorkflow]
	LicenseWorkflows    EntityRepository[models.LicenseWorkflow]

	collections map[string]Collection
}

// NewRepositories wires every repository to doc.
func NewRepositories(doc *store.Document) *Repositories {
	caseTypeDefaults := WithDefaults(func(c *models.CaseType) {
		c.Subtypes = []string{}
	})
	licenseTypeDefaults := WithDefaults(func(l *models.LicenseType) {
		l.Subtypes = []string{}
	})

	r := &Repositories{
		Statuses: NewListRepository[models.Status](CollectionStatuses, doc,
			func(b *models.ProjectBuild) *[]models.Status { return &b.Statuses }),
		LicenseStatuses: NewListRepository[models.Status](CollectionLicenseStatuses, doc,
			func(b *models.ProjectBuild) *[]models.Status { return &b.LicenseStatuses }),
		CaseTypes: NewListRepository[models.CaseType](CollectionCaseTypes, doc,
			func(b *models.ProjectBuild) *[]models.CaseType { return &b.CaseTypes }, caseTypeDefaults),
		LicenseTypes: NewListRepository[models.LicenseType](CollectionLicenseTypes, doc,
			func(b *models.ProjectBuild) *[]models.LicenseType { return &b.LicenseTypes }, licenseTypeDefaults),
		Subtypes: NewListRepository[models.Subtype](CollectionSubtypes, doc,
			func(b *models.ProjectBuild) *[]models.Subtype { return &b.Subtypes }, WithCheck(uniqueSubtypeName)),
		LicenseSubTypes: NewListRepository[models.Subtype](CollectionLicenseSubTypes, doc,
			func(b *models.ProjectBuild) *[]models.Subtype { return &b.LicenseSubTypes }, WithCheck(uniqueSubtypeName)),
		InspectionTypes: NewListRepository[models.InspectionType](CollectionInspectionTypes, doc,
			func(b *models.ProjectBuild) *[]models.InspectionType { return &b.InspectionTypes },
			WithDefaults(func(i *models.InspectionType) { i.DurationHours = 1 })),
		AccountingDetails: NewListRepository[models.AccountingDetail](CollectionAccountingDetails, doc,
			func(b *models.ProjectBuild) *[]models.AccountingDetail { return b.AccountingDetails() }),
		Workflows: NewMapRepository[models.Workflow](CollectionWorkflows, doc,
			func(b *models.ProjectBuild) *map[string]models.Workflow { return &b.Workflows },
			WithDefaults(func(w *models.Workflow) { w.Steps = []models.WorkflowStep{} })),
		InspectionWorkflows: NewMapRepository[models.InspectionWorkflow](CollectionInspectionWorkflows, doc,
			func(b *models.ProjectBuild) *map[string]models.InspectionWorkflow { return &b.InspectionWorkflows }),
		LicenseWorkflows: NewMapRepository[models.LicenseWorkflow](CollectionLicenseWorkflows, doc,
			func(b *models.ProjectBuild) *map[string]models.LicenseWorkflow { return &b.LicenseWorkflows },
			WithDefaults(func(w *models.LicenseWorkflow) { w.Steps = []models.WorkflowStep{} })),
	}

	r.collections = map[string]Collection{}
	for _, c := range []Collection{
		AsCollection(r.Statuses), AsCollection(r.LicenseStatuses),
		AsCollection(r.CaseTypes), AsCollection(r.LicenseTypes),
		AsCollection(r.Subtypes), AsCollection(r.LicenseSubTypes),
		AsCollection(r.InspectionTypes), AsCollection(r.AccountingDetails),
		AsCollection(r.Workflows), AsCollection(r.InspectionWorkflows), AsCollection(r.LicenseWorkflows),
	} {
		r.collections[c.Kind()] = c
	}
	return r
}

// Collection returns the type-erased repository for name.
func (r *Repositories) Collection(name string) (Collection, error) {
	c, ok := r.collections[name]
	if !ok {
		return nil, appErr.Newf(appErr.CodeNotFound, "unknown collection %q", name).
			WithMeta("collections", r.CollectionNames())
	}
	return c, nil
}

// CollectionNames lists the known collection names, sorted.
func (r *Repositories) CollectionNames() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func uniqueSubtypeName(existing []models.Subtype, candidate *models.Subtype) error {
	for _, s := range existing {
		if strings.EqualFold(s.Name, candidate.Name) {
			return appErr.Newf(appErr.CodeConflict, "subtype %q already exists", candidate.Name).
				WithMeta("id", s.ID)
		}
	}
	return nil
}
