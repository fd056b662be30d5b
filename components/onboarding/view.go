package onboarding

// View is the read model a page or JSON client renders.
type View struct {
	SessionID  string          `json:"session_id"`
	DraftID    string          `json:"draft_id"`
	Step       Step            `json:"step"`
	StepName   string          `json:"step_name"`
	StepSlug   string          `json:"step_slug"`
	TotalSteps int             `json:"total_steps"`
	CanAdvance bool            `json:"can_advance"`
	Issues     []FieldIssue    `json:"issues"`
	Draft      Draft           `json:"draft"`
	Connection ConnectionState `json:"connection"`
	Notices    []Notice        `json:"notices"`
	Submission *SubmitResult   `json:"submission,omitempty"`
	Policy     Policy          `json:"policy"`
	Closed     bool            `json:"closed"`
}

// Snapshot returns a consistent copy of the wizard state.
func (w *Wizard) Snapshot() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	in := w.gateInputLocked()
	issues := StepIssues(in, w.step)
	if issues == nil {
		issues = []FieldIssue{}
	}
	view := View{
		SessionID:  w.id,
		DraftID:    w.draftID,
		Step:       w.step,
		StepSlug:   w.step.Slug(),
		TotalSteps: TotalSteps,
		CanAdvance: !w.closed && len(issues) == 0,
		Issues:     issues,
		Draft:      w.draft.Clone(),
		Connection: w.conn.view(),
		Notices:    append([]Notice{}, w.notices...),
		Policy:     w.policy,
		Closed:     w.closed,
	}
	if def, ok := w.step.Definition(); ok {
		view.StepName = def.Name
	}
	if w.result != nil {
		result := *w.result
		view.Submission = &result
	}
	return view
}

// DismissNotices clears the transient notices.
func (w *Wizard) DismissNotices() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notices = nil
}
