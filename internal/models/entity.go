package models

import (
	"encoding/json"
	"strings"
)

// Base is embedded by every builder entity.
type Base struct {
	ID string `json:"id"`
	// GovbuiltContentItemID links a record to its remote GovBuilt content item.
	// Only synced or imported records carry one.
	GovbuiltContentItemID *string `json:"govbuiltContentItemId,omitempty"`
}

// Meta exposes the embedded Base to generic repositories.
func (b *Base) Meta() *Base { return b }

// RemoteID returns the remote content item id or "" when the record is local-only.
func (b *Base) RemoteID() string {
	if b.GovbuiltContentItemID == nil {
		return ""
	}
	return *b.GovbuiltContentItemID
}

// Link sets the remote content item id.
func (b *Base) Link(remoteID string) {
	id := remoteID
	b.GovbuiltContentItemID = &id
}

// Status is a case or license status.
type Status struct {
	Base
	Title string `json:"title" validate:"required"`
	Color string `json:"color,omitempty"`

	HideFromStatusFlowChevron bool `json:"hideFromStatusFlowChevron"`
	NotifyAssignedTeamMembers bool `json:"notifyAssignedTeamMembers"`
	NotifyOtherTeamMembers    bool `json:"notifyOtherTeamMembers"`
	NotifyApplicant           bool `json:"notifyApplicant"`
	NotifyAllContacts         bool `json:"notifyAllContacts"`
	NotifyOtherRecipient      bool `json:"notifyOtherRecipient"`

	UseDefaultAssignedTeamMembers bool `json:"useDefaultAssignedTeamMembers"`
	UseDefaultOtherTeamMembers    bool `json:"useDefaultOtherTeamMembers"`
	UseDefaultApplicant           bool `json:"useDefaultApplicant"`
	UseDefaultAllContacts         bool `json:"useDefaultAllContacts"`
	UseDefaultOtherRecipient      bool `json:"useDefaultOtherRecipient"`

	TeamEmailSubject      string `json:"teamEmailSubject,omitempty"`
	TeamEmailBody         string `json:"teamEmailBody,omitempty"`
	ApplicantEmailSubject string `json:"applicantEmailSubject,omitempty"`
	ApplicantEmailBody    string `json:"applicantEmailBody,omitempty"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

func (s *Status) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
}

// CaseType describes a kind of case and how its numbers are generated.
type CaseType struct {
	Base
	Title              string   `json:"title" validate:"required"`
	Description        string   `json:"description,omitempty"`
	Prefix             string   `json:"prefix"`
	Suffix             string   `json:"suffix"`
	AutoNumber         bool     `json:"autoNumber"`
	AutoLicense        bool     `json:"autoLicense"`
	InspectionRequired bool     `json:"inspectionRequired"`
	NumberOfDigits     int      `json:"numberOfDigits,omitempty" validate:"gte=0"`
	Subtypes           []string `json:"subtypes"`
	WorkflowID         string   `json:"workflowId,omitempty"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

func (c *CaseType) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	if c.Subtypes == nil {
		c.Subtypes = []string{}
	}
}

// LicenseType mirrors CaseType for licenses; Subtypes reference license subtypes.
type LicenseType struct {
	Base
	Title              string   `json:"title" validate:"required"`
	Description        string   `json:"description,omitempty"`
	Prefix             string   `json:"prefix"`
	Suffix             string   `json:"suffix"`
	AutoNumber         bool     `json:"autoNumber"`
	AutoLicense        bool     `json:"autoLicense"`
	InspectionRequired bool     `json:"inspectionRequired"`
	NumberOfDigits     int      `json:"numberOfDigits,omitempty" validate:"gte=0"`
	Subtypes           []string `json:"subtypes"`
	WorkflowID         string   `json:"workflowId,omitempty"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

func (l *LicenseType) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	if l.Subtypes == nil {
		l.Subtypes = []string{}
	}
}

// Subtype is a case or license subtype.
type Subtype struct {
	Base
	Name string `json:"name" validate:"required"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

func (s *Subtype) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
}

// InspectionType is a kind of inspection with its default duration.
type InspectionType struct {
	Base
	Title         string  `json:"title" validate:"required"`
	DurationHours float64 `json:"durationHours" validate:"gte=0"`
	WorkflowID    string  `json:"workflowId,omitempty"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

func (i *InspectionType) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
}

// AccountingDetail is a fee/GL configuration record.
type AccountingDetail struct {
	Base
	Title                      string `json:"title" validate:"required"`
	GLKey                      string `json:"glKey" validate:"required"`
	TranCode                   string `json:"tranCode,omitempty"`
	FeeCode                    string `json:"feeCode,omitempty"`
	FeeAbbreviation            string `json:"feeAbbreviation,omitempty"`
	Notes                      string `json:"notes,omitempty"`
	DebitAccountNumber         string `json:"debitAccountNumber,omitempty"`
	DebitAccountTransferNumber string `json:"debitAccountTransferNumber,omitempty"`
	FeeDetails                 string `json:"feeDetails,omitempty"`

	// Extra keeps members this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// Normalize trims the required fields so whitespace-only values fail validation.
func (a *AccountingDetail) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.GLKey = strings.TrimSpace(a.GLKey)
}
