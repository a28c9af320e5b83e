package slip

import (
	"errors"
	"testing"
)

func sampleSlips() []Slip {
	return []Slip{
		{ID: "s1", Status: "Paid", FromDate: "2026-01-01", TotalAmount: ptr(1000), Breakdown: Breakdown{EmployeeName: "Ada Lovelace", ExpenseClaimsTotal: 50}},
		{ID: "s2", Status: "draft", Breakdown: Breakdown{EmployeeName: "Alan Turing", Period: &Period{From: "2026-02-01"}, NetPayable: ptr(2000)}},
		{ID: "s3", Status: "paid", FromDate: "2026-02-01", Breakdown: Breakdown{EmployeeName: "Grace Hopper", NetPayable: ptr(1500), ExpenseClaimsTotal: 25}},
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filter", filter: Filter{}, want: []string{"s1", "s2", "s3"}},
		{name: "name is case insensitive", filter: Filter{Query: "ALAN"}, want: []string{"s2"}},
		{name: "month", filter: Filter{Month: "2026-02"}, want: []string{"s2", "s3"}},
		{name: "status is case insensitive", filter: Filter{Status: "PAID"}, want: []string{"s1", "s3"}},
		{name: "all disables status", filter: Filter{Status: "All"}, want: []string{"s1", "s2", "s3"}},
		{name: "combined", filter: Filter{Month: "2026-02", Status: "paid", Query: "grace"}, want: []string{"s3"}},
		{name: "nothing matches", filter: Filter{Query: "nobody"}, want: []string{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Apply(sampleSlips(), tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d slips, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected %s at %d, got %s", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestNormalizeRejectsBadMonth(t *testing.T) {
	if _, err := (Filter{Month: "2026-13"}).Normalize(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	f, err := (Filter{Status: " ALL ", Query: "  ada "}).Normalize()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.Status != "" || f.Query != "ada" {
		t.Fatalf("unexpected normalized filter %+v", f)
	}
}

func TestMonths(t *testing.T) {
	got := Months(sampleSlips())
	if len(got) != 2 || got[0] != "2026-02" || got[1] != "2026-01" {
		t.Fatalf("expected [2026-02 2026-01], got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(sampleSlips())
	if sum.TotalSlips != 3 || sum.PaidSlips != 2 {
		t.Fatalf("unexpected counts %+v", sum)
	}
	if sum.TotalPayout != 4500 {
		t.Fatalf("expected payout 4500, got %v", sum.TotalPayout)
	}
	if sum.AvgSalary != 1500 {
		t.Fatalf("expected average 1500, got %v", sum.AvgSalary)
	}
	if sum.Advances != 75 {
		t.Fatalf("expected advances 75, got %v", sum.Advances)
	}

	empty := Summarize(nil)
	if empty.AvgSalary != 0 || empty.TotalSlips != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestSummarizeRoundsAverage(t *testing.T) {
	slips := []Slip{{TotalAmount: ptr(1000)}, {TotalAmount: ptr(1001)}}
	if got := Summarize(slips).AvgSalary; got != 1001 {
		t.Fatalf("expected 1001, got %v", got)
	}
}
