package shared

import "fmt"

// ErrorClass separates bad input from rule violations against current state
type ErrorClass string

const (
	ErrorClassValidation   ErrorClass = "VALIDATION"
	ErrorClassBusinessRule ErrorClass = "BUSINESS_RULE"
)

// RejectionError is returned when an operation is refused before any mutation
type RejectionError struct {
	Class  ErrorClass
	Reason FailureReason
	Detail string
}

func (e RejectionError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Detail
}

// Is implements the errors.Is interface for RejectionError.
// A target without a Reason matches any rejection of the same class (or any class when unset).
func (e RejectionError) Is(target error) bool {
	t, ok := target.(RejectionError)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return t.Class == "" || t.Class == e.Class
	}
	return e.Reason == t.Reason
}

// Reject returns a copy of base carrying a formatted detail message
func Reject(base RejectionError, format string, args ...any) RejectionError {
	base.Detail = fmt.Sprintf(format, args...)
	return base
}

var (
	ErrEmptyCart             = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonEmptyCart}
	ErrInvalidQuantity       = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidQuantity}
	ErrInvalidAmount         = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidAmount}
	ErrInvalidCurrency       = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidCurrency}
	ErrInvalidPrice          = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidPrice}
	ErrInvalidName           = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidName}
	ErrInvalidRole           = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidRole}
	ErrInvalidCategory       = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidCategory}
	ErrInvalidPricingMode    = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonInvalidPricingMode}
	ErrProductNotFound       = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonProductNotFound}
	ErrWorkerNotFound        = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonWorkerNotFound}
	ErrDebtorNotFound        = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonDebtorNotFound}
	ErrDebtNotFound          = RejectionError{Class: ErrorClassValidation, Reason: FailureReasonDebtNotFound}
	ErrInsufficientStock     = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonInsufficientStock}
	ErrInsufficientPayment   = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonInsufficientPayment}
	ErrInsufficientFunds     = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonInsufficientFunds}
	ErrDebtorRequired        = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonDebtorRequired}
	ErrCreditPaymentTooLarge = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonCreditPaymentTooLarge}
	ErrNothingToDistribute   = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonNothingToDistribute}
	ErrDebtClosed            = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonDebtClosed}
	ErrOverpayment           = RejectionError{Class: ErrorClassBusinessRule, Reason: FailureReasonOverpayment}
)
