package salary

import "errors"

var (
	ErrNoEmployee     = errors.New("no employee selected")
	ErrNoComponents   = errors.New("no salary component selected")
	ErrNoPayGrade     = errors.New("no pay grade selected")
	ErrNoPayFrequency = errors.New("no pay frequency selected")

	ErrUnknownComponent    = errors.New("unknown salary component")
	ErrUnknownEmployee     = errors.New("unknown basic profile")
	ErrUnknownPayGrade     = errors.New("unknown pay grade")
	ErrUnknownPayFrequency = errors.New("unknown pay frequency")
	ErrUnknownDeduction    = errors.New("unknown deduction")
	ErrNegativeAmount      = errors.New("amount must not be negative")

	ErrWrongStep      = errors.New("action not available in the current step")
	ErrNotInReview    = errors.New("confirm is only available in review")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrClosed         = errors.New("wizard is closed")

	ErrStructureExists   = errors.New("salary structure already exists for this profile")
	ErrStructureNotFound = errors.New("salary structure not found")
	ErrProfileNotFound   = errors.New("basic profile not found")
)

var gateMessages = map[error]string{
	ErrNoEmployee:     "Please select an employee first.",
	ErrNoComponents:   "Please select at least 1 component",
	ErrNoPayGrade:     "Please select Pay Grade",
	ErrNoPayFrequency: "Please select Pay Frequency",
}

// IsGateError reports whether err is a step precondition failure.
func IsGateError(err error) bool {
	for gateErr := range gateMessages {
		if errors.Is(err, gateErr) {
			return true
		}
	}
	return false
}

// UserMessage returns the notification text shown for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for gateErr, msg := range gateMessages {
		if errors.Is(err, gateErr) {
			return msg
		}
	}
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		if submitErr.Editing {
			return MessageUpdateFailed
		}
		return MessageCreateFailed
	}
	return err.Error()
}

// SubmitError is a rejected submission. The wizard stays in review.
type SubmitError struct {
	Editing bool
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Editing {
		return "update salary structure: " + e.Err.Error()
	}
	return "create salary structure: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// FieldError is a request field that failed a business check.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
