package salary

import (
	"math"
	"strconv"
	"strings"

	"unifiedpro/internal/domain/catalog"
)

// Selection tracks which salary components are on and the amount entered
// for each. Amounts outlive membership: deselecting keeps the value so a
// later reselect restores it.
type Selection struct {
	order    []string
	byID     map[string]catalog.Component
	selected map[string]bool
	amounts  map[string]float64
}

// NewEmptySelection knows the given components and selects none of them.
func NewEmptySelection(components []catalog.Component) *Selection {
	s := &Selection{
		order:    make([]string, 0, len(components)),
		byID:     make(map[string]catalog.Component, len(components)),
		selected: map[string]bool{},
		amounts:  map[string]float64{},
	}
	for _, c := range components {
		s.add(c)
	}
	return s
}

// NewSelection applies the initial selection policy. Every component is
// seeded with its current amount, or its minimum salary when it has none.
// Components with a non-null current amount are selected; when there are
// none, only the first basic component is.
func NewSelection(components []catalog.Component) *Selection {
	s := NewEmptySelection(components)
	s.seedDefaults()

	seeded := false
	for _, c := range components {
		if c.Current.Value == nil {
			continue
		}
		seeded = true
		s.selected[c.ID] = true
	}
	if seeded {
		return s
	}

	for _, id := range s.order {
		if isBasic(s.byID[id]) {
			s.selected[id] = true
			break
		}
	}
	return s
}

// seedDefaults sets every known component to its current amount, falling
// back to its minimum salary.
func (s *Selection) seedDefaults() {
	for _, id := range s.order {
		c := s.byID[id]
		if c.Current.Value != nil {
			s.amounts[id] = *c.Current.Value
		} else {
			s.amounts[id] = c.MinimumSalary
		}
	}
}

// isBasic matches a component categorised "basic" or whose name mentions it.
func isBasic(c catalog.Component) bool {
	return strings.EqualFold(strings.TrimSpace(c.Category), basicCategory) ||
		strings.Contains(strings.ToLower(c.Name), basicCategory)
}

func (s *Selection) add(c catalog.Component) {
	if _, ok := s.byID[c.ID]; ok {
		return
	}
	s.order = append(s.order, c.ID)
	s.byID[c.ID] = c
}

// Toggle flips membership of id and reports the new state.
func (s *Selection) Toggle(id string) (bool, error) {
	if _, ok := s.byID[id]; !ok {
		return false, ErrUnknownComponent
	}
	s.selected[id] = !s.selected[id]
	if !s.selected[id] {
		delete(s.selected, id)
		return false, nil
	}
	return true, nil
}

// Select turns id on without touching its amount.
func (s *Selection) Select(id string) error {
	if _, ok := s.byID[id]; !ok {
		return ErrUnknownComponent
	}
	s.selected[id] = true
	return nil
}

// SetAmount stores raw coerced to a number. Empty or non-numeric input is
// stored as zero. A negative amount is rejected and the stored one kept.
func (s *Selection) SetAmount(id, raw string) error {
	return s.SetAmountValue(id, ParseAmount(raw))
}

func (s *Selection) SetAmountValue(id string, amount float64) error {
	if _, ok := s.byID[id]; !ok {
		return ErrUnknownComponent
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	s.amounts[id] = amount
	return nil
}

func (s *Selection) Amount(id string) float64 {
	return s.amounts[id]
}

func (s *Selection) IsSelected(id string) bool {
	return s.selected[id]
}

func (s *Selection) Len() int {
	return len(s.selected)
}

// Selected lists the selected components in catalog order.
func (s *Selection) Selected() []SelectedComponent {
	out := make([]SelectedComponent, 0, len(s.selected))
	for _, id := range s.order {
		if !s.selected[id] {
			continue
		}
		c := s.byID[id]
		out = append(out, SelectedComponent{ID: c.ID, Name: c.Name, Category: c.Category, Amount: s.amounts[id]})
	}
	return out
}

func (s *Selection) Amounts() map[string]float64 {
	out := make(map[string]float64, len(s.amounts))
	for id, amount := range s.amounts {
		out[id] = amount
	}
	return out
}

// ParseAmount is the permissive numeric coercion used for typed amounts.
func ParseAmount(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// BaseSalary is the amount held for the first basic component of the
// catalog, whether or not it is selected.
func (s *Selection) BaseSalary() float64 {
	for _, id := range s.order {
		if isBasic(s.byID[id]) {
			return s.amounts[id]
		}
	}
	return 0
}
