package services

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/govbuilder/engine/internal/govbuilt"
	"github.com/govbuilder/engine/internal/models"
)

func linked(item govbuilt.ContentItem) models.Base {
	b := models.Base{ID: uuid.NewString()}
	b.Link(item.ContentItemID)
	return b
}

func mapStatus(item govbuilt.ContentItem) models.Status {
	f := item.Fields
	return models.Status{
		Base:                      linked(item),
		Title:                     item.DisplayText,
		Color:                     f.Text("Color"),
		HideFromStatusFlowChevron: f.BoolOr("HideFromStatusFlowChevrons", false),
		NotifyAssignedTeamMembers: f.BoolOr("IsTeamMembersNotified", false),
		NotifyOtherTeamMembers:    f.BoolOr("IsOtherTeamMembersNotified", false),
		NotifyApplicant:           f.BoolOr("IsApplicantNotified", false),
		NotifyAllContacts:         f.BoolOr("IsContactsNotified", false),
		NotifyOtherRecipient:      f.BoolOr("IsNotifyOtherRecipient", false),
		TeamEmailSubject:          f.Text("TeamEmailSubject"),
		TeamEmailBody:             f.Text("TeamEmailBody"),
		ApplicantEmailSubject:     f.Text("ApplicantEmailSubject"),
		ApplicantEmailBody:        f.Text("ApplicantEmailBody"),
	}
}

func mapSubtype(item govbuilt.ContentItem) models.Subtype {
	return models.Subtype{Base: linked(item), Name: item.DisplayText}
}

// typeFields holds the fields CaseType and LicenseType share.
type typeFields struct {
	Prefix             string
	Suffix             string
	AutoNumber         bool
	AutoLicense        bool
	InspectionRequired bool
	NumberOfDigits     int
	Subtypes           []string
}

// mapTypeFields reads a case or license type part. Subtype references are
// translated through lookup (remote id to local id); ids with no local match
// are returned as unresolved.
func mapTypeFields(f govbuilt.Fields, lookup map[string]string) (typeFields, []string) {
	tf := typeFields{
		Prefix:             f.Text("Prefix"),
		Suffix:             f.Text("Suffix"),
		AutoNumber:         f.BoolOr("UseAutoNumber", true),
		AutoLicense:        f.BoolOr("AutoLicense", false),
		InspectionRequired: f.BoolOr("InspectionType", false),
		Subtypes:           []string{},
	}
	if n, ok := f.Number("NumberOfDigits"); ok && n > 0 {
		tf.NumberOfDigits = int(n)
	}

	var unresolved []string
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, remote := range govbuilt.SplitIDs(f.Text("CaseSubTypes")) {
		local, ok := lookup[remote]
		if !ok {
			unresolved = append(unresolved, remote)
			continue
		}
		if seen.Add(local) {
			tf.Subtypes = append(tf.Subtypes, local)
		}
	}
	return tf, unresolved
}

func mapCaseType(item govbuilt.ContentItem, lookup map[string]string) (models.CaseType, []string) {
	tf, unresolved := mapTypeFields(item.Fields, lookup)
	return models.CaseType{
		Base:               linked(item),
		Title:              item.DisplayText,
		Prefix:             tf.Prefix,
		Suffix:             tf.Suffix,
		AutoNumber:         tf.AutoNumber,
		AutoLicense:        tf.AutoLicense,
		InspectionRequired: tf.InspectionRequired,
		NumberOfDigits:     tf.NumberOfDigits,
		Subtypes:           tf.Subtypes,
	}, unresolved
}

func mapLicenseType(item govbuilt.ContentItem, lookup map[string]string) (models.LicenseType, []string) {
	tf, unresolved := mapTypeFields(item.Fields, lookup)
	return models.LicenseType{
		Base:               linked(item),
		Title:              item.DisplayText,
		Prefix:             tf.Prefix,
		Suffix:             tf.Suffix,
		AutoNumber:         tf.AutoNumber,
		AutoLicense:        tf.AutoLicense,
		InspectionRequired: tf.InspectionRequired,
		NumberOfDigits:     tf.NumberOfDigits,
		Subtypes:           tf.Subtypes,
	}, unresolved
}

// mapInspectionType resolves WorkflowId against local inspection workflows
// (remote id first, then local id); an unmatched reference is left empty.
func mapInspectionType(item govbuilt.ContentItem, workflows map[string]string) (models.InspectionType, []string) {
	f := item.Fields
	it := models.InspectionType{
		Base:          linked(item),
		Title:         item.DisplayText,
		DurationHours: 1,
	}
	if n, ok := f.Number("DurationHours"); ok && n >= 0 {
		it.DurationHours = n
	}
	var unresolved []string
	if ids := f.ContentItemIDs("WorkflowId"); len(ids) > 0 {
		if local, ok := workflows[ids[0]]; ok {
			it.WorkflowID = local
		} else {
			unresolved = append(unresolved, ids[0])
		}
	}
	return it, unresolved
}

func mapAccountingDetail(item govbuilt.ContentItem) models.AccountingDetail {
	f := item.Fields
	return models.AccountingDetail{
		Base:                       linked(item),
		Title:                      item.DisplayText,
		GLKey:                      f.Text("GLKey"),
		TranCode:                   f.Text("TranCode"),
		FeeCode:                    f.Text("FeeCode"),
		FeeAbbreviation:            f.Text("FeeAbbreviation"),
		Notes:                      f.Text("Notes"),
		DebitAccountNumber:         f.Text("DebitAccountNumber"),
		DebitAccountTransferNumber: f.Text("DebitAccountTransferNumber"),
		FeeDetails:                 f.Text("FeeDetails"),
	}
}

func mapAll[T any](items []govbuilt.ContentItem, fn func(govbuilt.ContentItem) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
