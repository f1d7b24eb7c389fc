package utils

// Payment and campaign constants
const (
	// UsdcCurrency is the currency code recorded on payments
	UsdcCurrency = "USDC"

	// BaseChainName is the chain the deposit contract lives on
	BaseChainName = "base"

	// MinorUnitDigits is the number of decimal digits the application ledger keeps
	// relative to one whole token (budgets and prices are tracked in 10^-3 units)
	MinorUnitDigits = 3
)

// Context keys
type ContextKey string

const (
	// EndpointKey carries the matched endpoint path through a request context
	EndpointKey ContextKey = "endpoint"
)
