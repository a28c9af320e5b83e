package salary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"unifiedpro/internal/domain/catalog"
	"unifiedpro/internal/domain/profile"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	creates  []SubmitRequest
	updates  []SubmitRequest
	err      error
	calls    atomic.Int32
	block    chan struct{}
	received chan struct{}
}

func (f *fakeSubmitter) CreateStructure(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	f.calls.Add(1)
	if f.received != nil {
		f.received <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	if f.err != nil {
		return SubmitResult{}, f.err
	}
	return SubmitResult{ProfileID: req.ProfileID}, nil
}

func (f *fakeSubmitter) UpdateStructure(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	if f.err != nil {
		return SubmitResult{}, f.err
	}
	return SubmitResult{ProfileID: req.ProfileID}, nil
}

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Version:        4,
		Components:     testComponents(),
		PayGrades:      []catalog.PayGrade{{ID: "g1", Name: "G1"}},
		PayFrequencies: []catalog.PayFrequency{{ID: "monthly", Name: "Monthly"}},
		Deductions: []catalog.Deduction{
			{ID: "tax", Name: "Tax", Percentage: 5},
			{ID: "pf", Name: "Provident Fund", Percentage: 2},
		},
		Currency: "PKR",
		BasicProfiles: []catalog.ProfileSummary{
			{ID: "p1", EmployeeName: "Ada Lovelace"},
			{ID: "p2", EmployeeName: "Alan Turing"},
		},
	}
}

func readyForReview(t *testing.T, w *Wizard) {
	t.Helper()
	if err := w.SelectEmployee("p1"); err != nil {
		t.Fatalf("select employee: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("next to configure: %v", err)
	}
	if err := w.SetAmount("c1", "25000"); err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if _, err := w.ToggleComponent("c2"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := w.SetAmount("c2", "15000"); err != nil {
		t.Fatalf("set amount: %v", err)
	}
	if err := w.SelectPayGrade("g1"); err != nil {
		t.Fatalf("pay grade: %v", err)
	}
	if err := w.SelectPayFrequency("monthly"); err != nil {
		t.Fatalf("pay frequency: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("next to review: %v", err)
	}
}

func TestWizardRequiresEmployee(t *testing.T) {
	w := NewWizard(testCatalog(), &fakeSubmitter{})
	err := w.Next()
	if !errors.Is(err, ErrNoEmployee) {
		t.Fatalf("expected ErrNoEmployee, got %v", err)
	}
	if UserMessage(err) != "Please select an employee first." {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
	if w.Step() != StepSelectEmployee {
		t.Fatalf("expected step to stay at select employee, got %s", w.Step())
	}

	if err := w.SelectEmployee("p1"); err != nil {
		t.Fatalf("select employee: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("expected transition, got %v", err)
	}
	if w.Step() != StepConfigure {
		t.Fatalf("expected configure, got %s", w.Step())
	}
}

func TestWizardConfigureGateOrder(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(w *Wizard)
		wantErr error
		wantMsg string
	}{
		{
			name: "no components wins over missing grade and frequency",
			setup: func(w *Wizard) {
				_, _ = w.ToggleComponent("c1")
			},
			wantErr: ErrNoComponents,
			wantMsg: "Please select at least 1 component",
		},
		{
			name:    "missing pay grade wins over missing frequency",
			setup:   func(w *Wizard) {},
			wantErr: ErrNoPayGrade,
			wantMsg: "Please select Pay Grade",
		},
		{
			name: "missing pay frequency",
			setup: func(w *Wizard) {
				_ = w.SelectPayGrade("g1")
			},
			wantErr: ErrNoPayFrequency,
			wantMsg: "Please select Pay Frequency",
		},
		{
			name: "frequency alone still needs a grade",
			setup: func(w *Wizard) {
				_ = w.SelectPayFrequency("monthly")
			},
			wantErr: ErrNoPayGrade,
			wantMsg: "Please select Pay Grade",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := NewWizard(testCatalog(), &fakeSubmitter{})
			if err := w.SelectEmployee("p1"); err != nil {
				t.Fatalf("select employee: %v", err)
			}
			if err := w.Next(); err != nil {
				t.Fatalf("next: %v", err)
			}
			tc.setup(w)

			err := w.Next()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if UserMessage(err) != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, UserMessage(err))
			}
			if w.Step() != StepConfigure {
				t.Fatalf("expected to stay in configure, got %s", w.Step())
			}
		})
	}
}

func TestWizardBackKeepsState(t *testing.T) {
	w := NewWizard(testCatalog(), &fakeSubmitter{})
	readyForReview(t, w)
	before := w.Request()

	if step := w.Back(); step != StepConfigure {
		t.Fatalf("expected configure, got %s", step)
	}
	if step := w.Back(); step != StepSelectEmployee {
		t.Fatalf("expected select employee, got %s", step)
	}
	if step := w.Back(); step != StepSelectEmployee {
		t.Fatalf("expected to stay at select employee, got %s", step)
	}
	if err := w.SelectEmployee("p1"); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	after := w.Request()
	if len(after.Components) != len(before.Components) || after.PayGrade != before.PayGrade || after.PayFrequency != before.PayFrequency {
		t.Fatalf("expected state to survive navigation, before %+v after %+v", before, after)
	}
}

func TestWizardEmployeeChangeResetsConfiguration(t *testing.T) {
	w := NewWizard(testCatalog(), &fakeSubmitter{})
	readyForReview(t, w)
	w.Back()
	w.Back()

	if err := w.SelectEmployee("p2"); err != nil {
		t.Fatalf("select employee: %v", err)
	}
	cfg := w.Configuration()
	if cfg.PayGrade != nil || cfg.PayFrequency != nil {
		t.Fatalf("expected pay grade and frequency to reset, got %+v", cfg)
	}
	if len(cfg.SelectedComponents) != 1 || cfg.SelectedComponents[0].ID != "c1" || cfg.SelectedComponents[0].Amount != 20000 {
		t.Fatalf("expected a fresh basic-only selection, got %+v", cfg.SelectedComponents)
	}
}

func TestWizardReviewTotalsAndDeductions(t *testing.T) {
	w := NewWizard(testCatalog(), &fakeSubmitter{})
	readyForReview(t, w)

	if on, err := w.ToggleDeduction("tax"); err != nil || !on {
		t.Fatalf("expected tax applied, got %v %v", on, err)
	}
	if on, err := w.ToggleDeduction("pf"); err != nil || !on {
		t.Fatalf("expected pf applied, got %v %v", on, err)
	}

	totals := w.Totals()
	if totals.Gross != 40000 || totals.TotalDeductions != 2800 || totals.Net != 37200 || totals.TakeHomePercent != 93 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	if on, _ := w.ToggleDeduction("tax"); on {
		t.Fatal("expected tax removed")
	}
	if got := w.Totals().TotalDeductions; got != 800 {
		t.Fatalf("expected 800 after removing tax, got %v", got)
	}
	if _, err := w.ToggleDeduction("missing"); !errors.Is(err, ErrUnknownDeduction) {
		t.Fatalf("expected ErrUnknownDeduction, got %v", err)
	}

	cfg := w.Configuration()
	if cfg.BaseSalary != 25000 || cfg.EstimatedTotal != 40000 || cfg.Currency != "PKR" {
		t.Fatalf("unexpected configuration %+v", cfg)
	}
}

func TestWizardConfirmSuccessCloses(t *testing.T) {
	sub := &fakeSubmitter{}
	w := NewWizard(testCatalog(), sub)
	readyForReview(t, w)
	_, _ = w.ToggleDeduction("pf")

	res, err := w.Confirm(context.Background())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Message != MessageCreated {
		t.Fatalf("expected created message, got %q", res.Message)
	}
	if !w.Closed() {
		t.Fatal("expected wizard closed after success")
	}
	if len(sub.creates) != 1 {
		t.Fatalf("expected one create, got %d", len(sub.creates))
	}
	req := sub.creates[0]
	if req.ProfileID != "p1" || req.PayGrade != "g1" || req.PayFrequency != "monthly" || req.CatalogVersion != 4 {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(req.Components) != 2 || req.Components[0].Amount != 25000 || req.Components[1].Amount != 15000 {
		t.Fatalf("unexpected components %+v", req.Components)
	}
	if len(req.Deductions) != 1 || req.Deductions[0] != "pf" {
		t.Fatalf("unexpected deductions %+v", req.Deductions)
	}

	if _, err := w.Confirm(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestWizardConfirmFailureStaysInReview(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("backend rejected")}
	w := NewWizard(testCatalog(), sub)
	readyForReview(t, w)

	_, err := w.Confirm(context.Background())
	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if UserMessage(err) != MessageCreateFailed {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
	if w.Closed() || w.Step() != StepReview {
		t.Fatalf("expected wizard open in review, closed=%v step=%s", w.Closed(), w.Step())
	}
	if sub.calls.Load() != 1 {
		t.Fatalf("expected exactly one attempt, got %d", sub.calls.Load())
	}
}

func TestWizardConfirmOutsideReview(t *testing.T) {
	w := NewWizard(testCatalog(), &fakeSubmitter{})
	if _, err := w.Confirm(context.Background()); !errors.Is(err, ErrNotInReview) {
		t.Fatalf("expected ErrNotInReview, got %v", err)
	}
}

func TestWizardSingleFlightConfirm(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{}), received: make(chan struct{}, 1)}
	w := NewWizard(testCatalog(), sub)
	readyForReview(t, w)

	done := make(chan error, 1)
	go func() {
		_, err := w.Confirm(context.Background())
		done <- err
	}()

	select {
	case <-sub.received:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the submitter")
	}
	if !w.InFlight() {
		t.Fatal("expected a submission in flight")
	}
	if _, err := w.Confirm(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	if sub.calls.Load() != 1 {
		t.Fatalf("expected one submitter call, got %d", sub.calls.Load())
	}
}

func TestEditWizard(t *testing.T) {
	grade := catalog.PayGrade{ID: "g1", Name: "G1"}
	freq := catalog.PayFrequency{ID: "monthly", Name: "Monthly"}
	detail := profile.DetailedProfile{
		ID:       "p1",
		Employee: profile.Employee{ID: "e1", FirstName: "Ada", LastName: "Lovelace"},
		SalaryStructures: []profile.StructureLine{
			{SalaryComponent: catalog.Component{ID: "c1", Name: "Basic Salary", Category: "Basic"}, PayAmount: 30000, PayGrade: &grade, PayFrequency: &freq},
			{SalaryComponent: catalog.Component{ID: "old", Name: "Legacy Bonus", Category: "allowance"}, PayAmount: 500, PayGrade: &grade, PayFrequency: &freq},
		},
		Deductions: []catalog.Deduction{{ID: "tax", Name: "Tax", Percentage: 5}},
	}

	sub := &fakeSubmitter{}
	w, err := NewEditWizard(testCatalog(), detail, sub)
	if err != nil {
		t.Fatalf("edit wizard: %v", err)
	}
	if w.Step() != StepConfigure || !w.Editing() {
		t.Fatalf("expected editing at configure, got %s", w.Step())
	}
	if step := w.Back(); step != StepConfigure {
		t.Fatalf("expected back to stop at configure, got %s", step)
	}

	cfg := w.Configuration()
	if cfg.BaseSalary != 30000 || cfg.EstimatedTotal != 30500 {
		t.Fatalf("unexpected configuration %+v", cfg)
	}
	if cfg.PayGrade == nil || cfg.PayGrade.ID != "g1" || cfg.PayFrequency == nil || cfg.PayFrequency.ID != "monthly" {
		t.Fatalf("expected pay grade and frequency from profile, got %+v", cfg)
	}

	if err := w.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	res, err := w.Confirm(context.Background())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Message != MessageUpdated || len(sub.updates) != 1 || len(sub.creates) != 0 {
		t.Fatalf("expected a single update, got %+v creates=%d updates=%d", res, len(sub.creates), len(sub.updates))
	}
}

func TestCheckRequestOrder(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitRequest
		want error
	}{
		{name: "empty", req: SubmitRequest{}, want: ErrNoEmployee},
		{name: "no components", req: SubmitRequest{ProfileID: "p1"}, want: ErrNoComponents},
		{name: "no grade", req: SubmitRequest{ProfileID: "p1", Components: []ComponentAmount{{ID: "c1"}}}, want: ErrNoPayGrade},
		{name: "no frequency", req: SubmitRequest{ProfileID: "p1", Components: []ComponentAmount{{ID: "c1"}}, PayGrade: "g1"}, want: ErrNoPayFrequency},
		{name: "complete", req: SubmitRequest{ProfileID: "p1", Components: []ComponentAmount{{ID: "c1"}}, PayGrade: "g1", PayFrequency: "m"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckRequest(tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
