package usecase

import "time"

// Storage buckets read by the balance service.
const (
	BucketManualIncome       = "manual_income"
	BucketManualExpense      = "manual_expense"
	BucketClientTransactions = "client_transactions"
	BucketOrderPromises      = "order_promises"
	BucketRateOverrides      = "rate_overrides"
)

const (
	// ConversionPrecision is the number of decimal places kept when dividing by a rate.
	ConversionPrecision = 12

	// DefaultRatesFetchTimeout bounds the one-shot live rate fetch.
	DefaultRatesFetchTimeout = 10 * time.Second

	// DefaultReportCacheTTL is how long cached reports live.
	DefaultReportCacheTTL = 5 * time.Minute

	// DefaultReportMemoSize is the number of reports memoized per process.
	DefaultReportMemoSize = 1024
)
