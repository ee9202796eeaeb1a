package models

// Entities keep members they do not model in Extra, so documents written by
// other versions of the builder survive a load and save unchanged.

func (s *Status) UnmarshalJSON(b []byte) error {
	type plain Status
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*s = Status(p)
	s.Extra = extra
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	type plain Status
	return encodeWithExtra(plain(s), s.Extra)
}

func (c *CaseType) UnmarshalJSON(b []byte) error {
	type plain CaseType
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*c = CaseType(p)
	c.Extra = extra
	return nil
}

func (c CaseType) MarshalJSON() ([]byte, error) {
	type plain CaseType
	return encodeWithExtra(plain(c), c.Extra)
}

func (l *LicenseType) UnmarshalJSON(b []byte) error {
	type plain LicenseType
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*l = LicenseType(p)
	l.Extra = extra
	return nil
}

func (l LicenseType) MarshalJSON() ([]byte, error) {
	type plain LicenseType
	return encodeWithExtra(plain(l), l.Extra)
}

func (s *Subtype) UnmarshalJSON(b []byte) error {
	type plain Subtype
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*s = Subtype(p)
	s.Extra = extra
	return nil
}

func (s Subtype) MarshalJSON() ([]byte, error) {
	type plain Subtype
	return encodeWithExtra(plain(s), s.Extra)
}

func (i *InspectionType) UnmarshalJSON(b []byte) error {
	type plain InspectionType
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*i = InspectionType(p)
	i.Extra = extra
	return nil
}

func (i InspectionType) MarshalJSON() ([]byte, error) {
	type plain InspectionType
	return encodeWithExtra(plain(i), i.Extra)
}

func (a *AccountingDetail) UnmarshalJSON(b []byte) error {
	type plain AccountingDetail
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*a = AccountingDetail(p)
	a.Extra = extra
	return nil
}

func (a AccountingDetail) MarshalJSON() ([]byte, error) {
	type plain AccountingDetail
	return encodeWithExtra(plain(a), a.Extra)
}

func (w *WorkflowStep) UnmarshalJSON(b []byte) error {
	type plain WorkflowStep
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*w = WorkflowStep(p)
	w.Extra = extra
	return nil
}

func (w WorkflowStep) MarshalJSON() ([]byte, error) {
	type plain WorkflowStep
	return encodeWithExtra(plain(w), w.Extra)
}

func (w *Workflow) UnmarshalJSON(b []byte) error {
	type plain Workflow
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*w = Workflow(p)
	w.Extra = extra
	return nil
}

func (w Workflow) MarshalJSON() ([]byte, error) {
	type plain Workflow
	return encodeWithExtra(plain(w), w.Extra)
}

func (w *LicenseWorkflow) UnmarshalJSON(b []byte) error {
	type plain LicenseWorkflow
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*w = LicenseWorkflow(p)
	w.Extra = extra
	return nil
}

func (w LicenseWorkflow) MarshalJSON() ([]byte, error) {
	type plain LicenseWorkflow
	return encodeWithExtra(plain(w), w.Extra)
}

func (n *NotificationConfig) UnmarshalJSON(b []byte) error {
	type plain NotificationConfig
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*n = NotificationConfig(p)
	n.Extra = extra
	return nil
}

func (n NotificationConfig) MarshalJSON() ([]byte, error) {
	type plain NotificationConfig
	return encodeWithExtra(plain(n), n.Extra)
}

func (w *InspectionWorkflow) UnmarshalJSON(b []byte) error {
	type plain InspectionWorkflow
	var p plain
	extra, err := decodeWithExtra(b, &p)
	if err != nil {
		return err
	}
	*w = InspectionWorkflow(p)
	w.Extra = extra
	return nil
}

func (w InspectionWorkflow) MarshalJSON() ([]byte, error) {
	type plain InspectionWorkflow
	return encodeWithExtra(plain(w), w.Extra)
}
