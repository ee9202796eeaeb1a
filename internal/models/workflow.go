package models

import (
	"encoding/json"
	"strings"
)

// WorkflowStep places a status at a position in a workflow.
type WorkflowStep struct {
	ID       string `json:"id"`
	StatusID string `json:"statusId"`
	Label    string `json:"label,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Workflow is an ordered list of case status steps.
type Workflow struct {
	Base
	Name  string         `json:"name" validate:"required"`
	Steps []WorkflowStep `json:"steps"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (w *Workflow) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
	if w.Steps == nil {
		w.Steps = []WorkflowStep{}
	}
}

// LicenseWorkflow is an ordered list of license status steps.
type LicenseWorkflow struct {
	Base
	Name  string         `json:"name" validate:"required"`
	Steps []WorkflowStep `json:"steps"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (w *LicenseWorkflow) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
	if w.Steps == nil {
		w.Steps = []WorkflowStep{}
	}
}

// NotificationConfig controls who is notified, and with which templates, for one inspection event.
// Optional members are pointers so an absent member stays absent on save.
type NotificationConfig struct {
	Enabled bool `json:"enabled"`

	AppendAssignTeamMembers                   *bool `json:"appendAssignTeamMembers,omitempty"`
	NotifyAssignedTeamMembers                 *bool `json:"notifyAssignedTeamMembers,omitempty"`
	NotifyOtherTeamMembers                    *bool `json:"notifyOtherTeamMembers,omitempty"`
	NotifyApplicant                           *bool `json:"notifyApplicant,omitempty"`
	NotifyAllContacts                         *bool `json:"notifyAllContacts,omitempty"`
	NotifyOtherRecipient                      *bool `json:"notifyOtherRecipient,omitempty"`
	DoNotSendMailWhenApplicantAndApproverSame *bool `json:"doNotSendMailWhenApplicantAndApproverSame,omitempty"`
	AttachPermitTypes                         *bool `json:"attachPermitTypes,omitempty"`
	AttachFormLetters                         *bool `json:"attachFormLetters,omitempty"`

	NotifyAssignedTeamMembersTemplate *string `json:"notifyAssignedTeamMembersTemplate,omitempty"`
	NotifyOtherTeamMembersTemplate    *string `json:"notifyOtherTeamMembersTemplate,omitempty"`
	NotifyApplicantTemplate           *string `json:"notifyApplicantTemplate,omitempty"`
	NotifyAllContactsTemplate         *string `json:"notifyAllContactsTemplate,omitempty"`
	NotifyOtherRecipientTemplate      *string `json:"notifyOtherRecipientTemplate,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// InspectionWorkflow holds per-event notification settings for inspections.
// Event members are keyed by the remote's inspection status names.
type InspectionWorkflow struct {
	Base
	Name string `json:"name" validate:"required"`

	AcceptedInvite   *NotificationConfig `json:"AcceptedInvite,omitempty"`
	Approved         *NotificationConfig `json:"Approved,omitempty"`
	CancelledByAdmin *NotificationConfig `json:"CancelledByAdmin,omitempty"`
	CancelledByUser  *NotificationConfig `json:"CancelledByUser,omitempty"`
	Completed        *NotificationConfig `json:"Completed,omitempty"`
	DeclinedInvite   *NotificationConfig `json:"DeclinedInvite,omitempty"`
	Failed           *NotificationConfig `json:"Failed,omitempty"`
	InProgress       *NotificationConfig `json:"InProgress,omitempty"`
	NotRequired      *NotificationConfig `json:"NotRequired,omitempty"`
	Submitted        *NotificationConfig `json:"Submitted,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (w *InspectionWorkflow) Normalize() {
	w.Name = strings.TrimSpace(w.Name)
}
