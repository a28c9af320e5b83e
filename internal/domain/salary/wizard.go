package salary

import (
	"context"
	"strings"
	"sync"

	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
)

type Step int

const (
	StepSelectEmployee Step = iota + 1
	StepConfigure
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepSelectEmployee:
		return "select_employee"
	case StepConfigure:
		return "configure"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Submitter persists a finished configuration.
type Submitter interface {
	CreateStructure(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	UpdateStructure(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// Wizard walks one structure through employee selection, configuration and
// review. It works on the catalog snapshot it was built with and never
// refreshes it. At most one submission is in flight at a time.
type Wizard struct {
	mu         sync.Mutex
	catalog    catalog.Catalog
	submitter  Submitter
	step       Step
	editing    bool
	employee   *catalog.ProfileSummary
	selection  *Selection
	payGrade   *catalog.PayGrade
	payFreq    *catalog.PayFrequency
	deductions []catalog.Deduction
	currency   string
	inFlight   bool
	closed     bool
}

func NewWizard(snapshot catalog.Catalog, submitter Submitter) *Wizard {
	w := &Wizard{catalog: snapshot, submitter: submitter, step: StepSelectEmployee}
	w.resetConfiguration()
	return w
}

// NewEditWizard reopens the structure of an existing profile. It starts at
// configure and cannot step back to employee selection.
func NewEditWizard(snapshot catalog.Catalog, detail profile.DetailedProfile, submitter Submitter) (*Wizard, error) {
	if strings.TrimSpace(detail.ID) == "" {
		return nil, ErrUnknownEmployee
	}
	summary := detail.Summary()
	w := &Wizard{
		catalog:   snapshot,
		submitter: submitter,
		step:      StepConfigure,
		editing:   true,
		employee:  &summary,
		selection: NewEmptySelection(snapshot.Components),
		currency:  currencyOr(detail.Currency, snapshot.Currency),
	}
	w.selection.seedDefaults()
	for _, line := range detail.SalaryStructures {
		w.selection.add(line.SalaryComponent)
		w.selection.selected[line.SalaryComponent.ID] = true
		w.selection.amounts[line.SalaryComponent.ID] = line.PayAmount
	}
	if len(detail.SalaryStructures) > 0 {
		first := detail.SalaryStructures[0]
		if first.PayGrade != nil {
			grade := *first.PayGrade
			w.payGrade = &grade
		}
		if first.PayFrequency != nil {
			freq := *first.PayFrequency
			w.payFreq = &freq
		}
	}
	w.deductions = append([]catalog.Deduction(nil), detail.Deductions...)
	return w, nil
}

func (w *Wizard) resetConfiguration() {
	w.selection = NewSelection(w.catalog.Components)
	w.payGrade = nil
	w.payFreq = nil
	w.deductions = nil
	w.currency = currencyOr("", w.catalog.Currency)
}

func currencyOr(values ...string) string {
	for _, v := range values {
		if code := strings.ToUpper(strings.TrimSpace(v)); code != "" {
			return code
		}
	}
	return DefaultCurrency
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Editing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.editing
}

func (w *Wizard) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Wizard) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

func (w *Wizard) CatalogVersion() int64 {
	return w.catalog.Version
}

func (w *Wizard) Employee() (catalog.ProfileSummary, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.employee == nil {
		return catalog.ProfileSummary{}, false
	}
	return *w.employee, true
}

// SelectEmployee picks the basic profile. Picking a different profile
// starts a fresh configuration; picking the same one keeps it.
func (w *Wizard) SelectEmployee(profileID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.step != StepSelectEmployee {
		return ErrWrongStep
	}
	p, ok := w.catalog.Profile(profileID)
	if !ok {
		return ErrUnknownEmployee
	}
	if w.employee == nil || w.employee.ID != p.ID {
		w.resetConfiguration()
	}
	w.employee = &p
	return nil
}

func (w *Wizard) ToggleComponent(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	return w.selection.Toggle(id)
}

func (w *Wizard) SelectComponent(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.selection.Select(id)
}

func (w *Wizard) SetAmount(id, raw string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.selection.SetAmount(id, raw)
}

func (w *Wizard) SelectPayGrade(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	grade, ok := w.catalog.PayGrade(id)
	if !ok {
		return ErrUnknownPayGrade
	}
	w.payGrade = &grade
	return nil
}

func (w *Wizard) SelectPayFrequency(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	freq, ok := w.catalog.PayFrequency(id)
	if !ok {
		return ErrUnknownPayFrequency
	}
	w.payFreq = &freq
	return nil
}

// ToggleDeduction adds or removes a deduction by id and reports whether it
// is now applied.
func (w *Wizard) ToggleDeduction(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	for i, d := range w.deductions {
		if d.ID == id {
			w.deductions = append(w.deductions[:i:i], w.deductions[i+1:]...)
			return false, nil
		}
	}
	d, ok := w.catalog.Deduction(id)
	if !ok {
		return false, ErrUnknownDeduction
	}
	w.deductions = append(w.deductions, d)
	return true, nil
}

func (w *Wizard) SetCurrency(code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.currency = currencyOr(code, w.currency)
	return nil
}

// Next advances one step. A failed precondition leaves the step unchanged.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	switch w.step {
	case StepSelectEmployee:
		if w.employee == nil {
			return ErrNoEmployee
		}
		w.step = StepConfigure
	case StepConfigure:
		if err := checkConfigure(w.selection.Len(), w.payGrade != nil, w.payFreq != nil); err != nil {
			return err
		}
		w.step = StepReview
	default:
		return ErrWrongStep
	}
	return nil
}

// Back steps back one step and keeps all state.
func (w *Wizard) Back() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	lowest := StepSelectEmployee
	if w.editing {
		lowest = StepConfigure
	}
	if !w.closed && w.step > lowest {
		w.step--
	}
	return w.step
}

// Cancel discards the session.
func (w *Wizard) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Confirm submits the configuration. Success closes the wizard; failure
// keeps it in review with no retry. A second call while one is pending
// returns ErrSubmitInFlight without reaching the submitter.
func (w *Wizard) Confirm(ctx context.Context) (SubmitResult, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return SubmitResult{}, ErrClosed
	}
	if w.step != StepReview {
		w.mu.Unlock()
		return SubmitResult{}, ErrNotInReview
	}
	if w.inFlight {
		w.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	}
	if err := checkConfigure(w.selection.Len(), w.payGrade != nil, w.payFreq != nil); err != nil {
		w.mu.Unlock()
		return SubmitResult{}, err
	}
	req := w.requestLocked()
	editing := w.editing
	w.inFlight = true
	w.mu.Unlock()

	var (
		res SubmitResult
		err error
	)
	if editing {
		res, err = w.submitter.UpdateStructure(ctx, req)
	} else {
		res, err = w.submitter.CreateStructure(ctx, req)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if err != nil {
		return SubmitResult{}, &SubmitError{Editing: editing, Err: err}
	}
	w.closed = true
	if res.Message == "" {
		res.Message = successMessage(editing)
	}
	return res, nil
}

func successMessage(editing bool) string {
	if editing {
		return MessageUpdated
	}
	return MessageCreated
}

// Request builds the submission payload for the current state.
func (w *Wizard) Request() SubmitRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requestLocked()
}

func (w *Wizard) requestLocked() SubmitRequest {
	req := SubmitRequest{
		Components:     []ComponentAmount{},
		Deductions:     []string{},
		Currency:       w.currency,
		CatalogVersion: w.catalog.Version,
	}
	if w.employee != nil {
		req.ProfileID = w.employee.ID
	}
	for _, c := range w.selection.Selected() {
		req.Components = append(req.Components, ComponentAmount{ID: c.ID, Amount: c.Amount})
	}
	if w.payGrade != nil {
		req.PayGrade = w.payGrade.ID
	}
	if w.payFreq != nil {
		req.PayFrequency = w.payFreq.ID
	}
	for _, d := range w.deductions {
		req.Deductions = append(req.Deductions, d.ID)
	}
	return req
}

func (w *Wizard) Configuration() Configuration {
	w.mu.Lock()
	defer w.mu.Unlock()
	selected := w.selection.Selected()
	cfg := Configuration{
		SelectedComponents: selected,
		Amounts:            w.selection.Amounts(),
		Deductions:         append([]catalog.Deduction{}, w.deductions...),
		BaseSalary:         w.selection.BaseSalary(),
		EstimatedTotal:     Gross(selected),
		Currency:           w.currency,
	}
	if w.payGrade != nil {
		grade := *w.payGrade
		cfg.PayGrade = &grade
	}
	if w.payFreq != nil {
		freq := *w.payFreq
		cfg.PayFrequency = &freq
	}
	return cfg
}

// Totals recomputes the live preview from scratch.
func (w *Wizard) Totals() Totals {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Compute(w.selection.Selected(), w.deductions)
}

// checkConfigure is the configure gate; the first failing check wins.
func checkConfigure(components int, hasPayGrade, hasPayFrequency bool) error {
	switch {
	case components < 1:
		return ErrNoComponents
	case !hasPayGrade:
		return ErrNoPayGrade
	case !hasPayFrequency:
		return ErrNoPayFrequency
	}
	return nil
}

// CheckRequest applies the same ordered gate to a submitted payload.
func CheckRequest(req SubmitRequest) error {
	if strings.TrimSpace(req.ProfileID) == "" {
		return ErrNoEmployee
	}
	return checkConfigure(len(req.Components), strings.TrimSpace(req.PayGrade) != "", strings.TrimSpace(req.PayFrequency) != "")
}
