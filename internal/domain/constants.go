package domain

// Message senders
const (
	SenderUser      = "user"
	SenderCharacter = "character"
)

// Credit transaction types
const (
	TxTypePurchase     = "PURCHASE"
	TxTypeSubscription = "SUBSCRIPTION"
	TxTypeMonthlyGrant = "MONTHLY_GRANT"
	TxTypeUsage        = "USAGE"
)

// Subscription tiers
const (
	TierFree = "FREE"
	TierPlus = "PLUS"
	TierPro  = "PRO"
)

// Payment statuses
const (
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)
