package salary

const (
	DefaultCurrency = "USD"

	basicCategory = "basic"

	MessageCreated      = "Salary Structure Created"
	MessageUpdated      = "Salary Structure Updated"
	MessageCreateFailed = "Failed to create salary structure"
	MessageUpdateFailed = "Failed to update salary structure"
)
