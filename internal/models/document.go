package models

import (
	"encoding/json"
	"time"
)

// DocumentFileName is the fixed name of the project document inside a project directory.
const DocumentFileName = "govbuilder.json"

// ProjectDocument is the root of a project's persisted state.
type ProjectDocument struct {
	Name          string    `json:"name"`
	Created       time.Time `json:"created"`
	GovData       GovData   `json:"govData"`
	StagingURL    string    `json:"stagingUrl,omitempty"`
	APIConfigured bool      `json:"apiConfigured"`

	// Extra carries top-level keys this version does not model so they survive a save.
	Extra map[string]json.RawMessage `json:"-"`
}

// GovData holds the project title, builder entities and any agency metadata.
type GovData struct {
	Title        string        `json:"title,omitempty"`
	ProjectBuild *ProjectBuild `json:"projectBuild"`

	// Extra keeps agencies, regulations, metadata and other unmodeled keys.
	Extra map[string]json.RawMessage `json:"-"`
}

// ProjectBuild contains every entity collection of a project.
//
// Workflows are keyed by their own id because consumers look them up one at
// a time; every other collection is an ordered array.
type ProjectBuild struct {
	Statuses            []Status                      `json:"statuses"`
	LicenseStatuses     []Status                      `json:"licenseStatuses"`
	CaseTypes           []CaseType                    `json:"caseTypes"`
	LicenseTypes        []LicenseType                 `json:"licenseTypes"`
	Subtypes            []Subtype                     `json:"subtypes"`
	LicenseSubTypes     []Subtype                     `json:"licenseSubTypes"`
	Workflows           map[string]Workflow           `json:"workflows"`
	InspectionWorkflows map[string]InspectionWorkflow `json:"inspectionWorkflows"`
	LicenseWorkflows    map[string]LicenseWorkflow    `json:"licenseWorkflows"`
	InspectionTypes     []InspectionType              `json:"inspectionTypes"`
	Accounting          *Accounting                   `json:"accounting"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Accounting wraps the accounting detail list.
type Accounting struct {
	Details []AccountingDetail `json:"details"`
}

// NewProjectDocument returns the starter document written for a new project.
func NewProjectDocument(name string, created time.Time) *ProjectDocument {
	return &ProjectDocument{
		Name:    name,
		Created: created.UTC(),
		GovData: GovData{
			Title:        name,
			ProjectBuild: NewProjectBuild(),
			Extra: map[string]json.RawMessage{
				"agencies":    json.RawMessage(`[]`),
				"regulations": json.RawMessage(`{}`),
				"metadata":    json.RawMessage(`{}`),
			},
		},
	}
}

// NewProjectBuild returns a ProjectBuild with every container present and empty.
func NewProjectBuild() *ProjectBuild {
	b := &ProjectBuild{}
	b.EnsureContainers()
	return b
}

// Build returns the project build, creating it if missing.
func (g *GovData) Build() *ProjectBuild {
	if g.ProjectBuild == nil {
		g.ProjectBuild = NewProjectBuild()
	}
	return g.ProjectBuild
}

// EnsureContainers replaces nil collections with empty ones. Existing data is untouched.
func (b *ProjectBuild) EnsureContainers() {
	if b.Statuses == nil {
		b.Statuses = []Status{}
	}
	if b.LicenseStatuses == nil {
		b.LicenseStatuses = []Status{}
	}
	if b.CaseTypes == nil {
		b.CaseTypes = []CaseType{}
	}
	if b.LicenseTypes == nil {
		b.LicenseTypes = []LicenseType{}
	}
	if b.Subtypes == nil {
		b.Subtypes = []Subtype{}
	}
	if b.LicenseSubTypes == nil {
		b.LicenseSubTypes = []Subtype{}
	}
	if b.Workflows == nil {
		b.Workflows = map[string]Workflow{}
	}
	if b.InspectionWorkflows == nil {
		b.InspectionWorkflows = map[string]InspectionWorkflow{}
	}
	if b.LicenseWorkflows == nil {
		b.LicenseWorkflows = map[string]LicenseWorkflow{}
	}
	if b.InspectionTypes == nil {
		b.InspectionTypes = []InspectionType{}
	}
	b.AccountingDetails()
}

// AccountingDetails returns a pointer to the accounting detail list, creating
// the accounting container on first use.
func (b *ProjectBuild) AccountingDetails() *[]AccountingDetail {
	if b.Accounting == nil {
		b.Accounting = &Accounting{}
	}
	if b.Accounting.Details == nil {
		b.Accounting.Details = []AccountingDetail{}
	}
	return &b.Accounting.Details
}

var (
	documentKeys     = []string{"name", "created", "govData", "stagingUrl", "apiConfigured"}
	govDataKeys      = []string{"title", "projectBuild"}
	projectBuildKeys = []string{
		"statuses", "licenseStatuses", "caseTypes", "licenseTypes", "subtypes", "licenseSubTypes",
		"workflows", "inspectionWorkflows", "licenseWorkflows", "inspectionTypes", "accounting",
	}
)

// UnmarshalJSON decodes the document and keeps unknown keys in Extra.
func (d *ProjectDocument) UnmarshalJSON(b []byte) error {
	type plain ProjectDocument
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(b, documentKeys)
	if err != nil {
		return err
	}
	*d = ProjectDocument(p)
	d.Extra = extra
	return nil
}

// MarshalJSON encodes the document followed by any preserved unknown keys.
func (d ProjectDocument) MarshalJSON() ([]byte, error) {
	type plain ProjectDocument
	b, err := json.Marshal(plain(d))
	if err != nil {
		return nil, err
	}
	return appendExtra(b, d.Extra, documentKeys)
}

// UnmarshalJSON decodes govData and keeps unknown keys in Extra.
func (g *GovData) UnmarshalJSON(b []byte) error {
	type plain GovData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(b, govDataKeys)
	if err != nil {
		return err
	}
	*g = GovData(p)
	g.Extra = extra
	return nil
}

// MarshalJSON encodes govData followed by any preserved unknown keys.
func (g GovData) MarshalJSON() ([]byte, error) {
	type plain GovData
	b, err := json.Marshal(plain(g))
	if err != nil {
		return nil, err
	}
	return appendExtra(b, g.Extra, govDataKeys)
}

// UnmarshalJSON decodes the project build and keeps unknown collections in Extra.
func (b *ProjectBuild) UnmarshalJSON(data []byte) error {
	type plain ProjectBuild
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, projectBuildKeys)
	if err != nil {
		return err
	}
	*b = ProjectBuild(p)
	b.Extra = extra
	return nil
}

// MarshalJSON encodes the project build followed by any preserved unknown collections.
func (b ProjectBuild) MarshalJSON() ([]byte, error) {
	type plain ProjectBuild
	out, err := json.Marshal(plain(b))
	if err != nil {
		return nil, err
	}
	return appendExtra(out, b.Extra, projectBuildKeys)
}
