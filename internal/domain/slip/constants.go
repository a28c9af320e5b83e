package slip

const (
	StatusDraft = "draft"
	StatusPaid  = "paid"

	// StatusAll disables the status filter.
	StatusAll = "all"

	DefaultCurrency = "PKR"

	// ReconcileTolerance absorbs rounding between stored net and the
	// recomputed breakdown.
	ReconcileTolerance = 0.5
)
