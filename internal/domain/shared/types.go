package shared

// Currency is a payment currency accepted at the register
type Currency string

const (
	CurrencyCUP Currency = "CUP"
	CurrencyMLC Currency = "MLC"
	CurrencyUSD Currency = "USD"
)

// Valid reports whether the currency is one the register accepts
func (c Currency) Valid() bool {
	switch c {
	case CurrencyCUP, CurrencyMLC, CurrencyUSD:
		return true
	}
	return false
}

// FailureReason defines rejection categories surfaced to the host
type FailureReason string

const (
	FailureReasonEmptyCart             FailureReason = "EMPTY_CART"
	FailureReasonInvalidQuantity       FailureReason = "INVALID_QUANTITY"
	FailureReasonInvalidAmount         FailureReason = "INVALID_AMOUNT"
	FailureReasonInvalidCurrency       FailureReason = "INVALID_CURRENCY"
	FailureReasonInvalidPrice          FailureReason = "INVALID_PRICE"
	FailureReasonInvalidName           FailureReason = "INVALID_NAME"
	FailureReasonInvalidRole           FailureReason = "INVALID_ROLE"
	FailureReasonInvalidCategory       FailureReason = "INVALID_CATEGORY"
	FailureReasonInvalidPricingMode    FailureReason = "INVALID_PRICING_MODE"
	FailureReasonProductNotFound       FailureReason = "PRODUCT_NOT_FOUND"
	FailureReasonWorkerNotFound        FailureReason = "WORKER_NOT_FOUND"
	FailureReasonDebtorNotFound        FailureReason = "DEBTOR_NOT_FOUND"
	FailureReasonDebtNotFound          FailureReason = "DEBT_NOT_FOUND"
	FailureReasonInsufficientStock     FailureReason = "INSUFFICIENT_STOCK"
	FailureReasonInsufficientPayment   FailureReason = "INSUFFICIENT_PAYMENT"
	FailureReasonInsufficientFunds     FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonDebtorRequired        FailureReason = "DEBTOR_REQUIRED"
	FailureReasonCreditPaymentTooLarge FailureReason = "CREDIT_PAYMENT_NOT_PARTIAL"
	FailureReasonNothingToDistribute   FailureReason = "NOTHING_TO_DISTRIBUTE"
	FailureReasonDebtClosed            FailureReason = "DEBT_CLOSED"
	FailureReasonOverpayment           FailureReason = "DEBT_OVERPAYMENT"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
