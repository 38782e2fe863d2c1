package domain

const (
	RoleUser     = "USER"
	RoleAgent    = "AGENT"
	RoleLandlord = "LANDLORD"
	RoleAdmin    = "ADMIN"
)

const (
	PaymentPurposeViewing   = "VIEWING"
	PaymentPurposePromotion = "PROMOTION"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

const (
	WithdrawalStatusPending    = "PENDING"
	WithdrawalStatusProcessing = "PROCESSING"
	WithdrawalStatusSuccessful = "SUCCESSFUL"
	WithdrawalStatusFailed     = "FAILED"
)

const (
	PromotionStatusPending   = "PENDING"
	PromotionStatusActive    = "ACTIVE"
	PromotionStatusExpired   = "EXPIRED"
	PromotionStatusCancelled = "CANCELLED"
)

const (
	ViewingStatusRequested = "REQUESTED"
	ViewingStatusPaid      = "PAID"
	ViewingStatusCompleted = "COMPLETED"
)

// Setting keys (DB overrides over config defaults).
const (
	SettingPlatformFeePercent = "platform_fee_percent"
	SettingMinWithdrawalKobo  = "min_withdrawal_kobo"
)
