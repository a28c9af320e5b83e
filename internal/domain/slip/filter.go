package slip

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type Filter struct {
	Query  string
	Month  string
	Status string
}

// Normalize trims the filter and rejects a malformed month.
func (f Filter) Normalize() (Filter, error) {
	out := Filter{
		Query:  strings.TrimSpace(f.Query),
		Month:  strings.TrimSpace(f.Month),
		Status: strings.ToLower(strings.TrimSpace(f.Status)),
	}
	if out.Status == StatusAll {
		out.Status = ""
	}
	if out.Month != "" && !monthPattern.MatchString(out.Month) {
		return Filter{}, ErrInvalidMonth
	}
	return out, nil
}

func (f Filter) Match(s Slip) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(s.EmployeeName()), strings.ToLower(f.Query)) {
		return false
	}
	if f.Month != "" && s.Month() != f.Month {
		return false
	}
	status := strings.ToLower(strings.TrimSpace(f.Status))
	if status != "" && status != StatusAll && !strings.EqualFold(strings.TrimSpace(s.Status), status) {
		return false
	}
	return true
}

// Apply keeps the slips that match every set criterion, in order.
func Apply(slips []Slip, f Filter) []Slip {
	out := make([]Slip, 0, len(slips))
	for _, s := range slips {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Months lists the distinct period months, newest first.
func Months(slips []Slip) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range slips {
		m := s.Month()
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Summarize computes the summary cards over slips.
func Summarize(slips []Slip) Summary {
	payout := decimal.Zero
	advances := decimal.Zero
	sum := Summary{TotalSlips: len(slips)}
	for _, s := range slips {
		if s.IsPaid() {
			sum.PaidSlips++
		}
		payout = payout.Add(decimal.NewFromFloat(s.Net()))
		advances = advances.Add(decimal.NewFromFloat(s.Advances()))
	}
	sum.TotalPayout = payout.InexactFloat64()
	sum.Advances = advances.InexactFloat64()
	if sum.TotalSlips > 0 {
		sum.AvgSalary = math.Floor(payout.InexactFloat64()/float64(sum.TotalSlips) + 0.5)
	}
	return sum
}
