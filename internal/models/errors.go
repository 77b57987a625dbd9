package models

import "errors"

// Plan creation and collection errors. All are pure precondition failures
// except ErrInsufficientFunds, which is returned after the defaulted plan
// state has been persisted.
var (
	ErrInvalidAmount          = errors.New("total amount must be positive")
	ErrInvalidInstallments    = errors.New("installments count must be between 1 and 12")
	ErrDatesMismatch          = errors.New("due dates count does not match installments count")
	ErrInvalidDueDate         = errors.New("due date must be in the future")
	ErrInsufficientCollateral = errors.New("total amount exceeds collateral capacity")
	ErrInsufficientAvailable  = errors.New("total amount exceeds available balance")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrInstallmentNotFound    = errors.New("installment not found")
	ErrAlreadyPaid            = errors.New("installment is not pending")
	ErrNotDueYet              = errors.New("installment is not due yet")
	ErrInsufficientFunds      = errors.New("insufficient funds in both buckets")
	ErrUnauthorized           = errors.New("caller is not the plan owner")
)

// ErrUserNotFound reports a missing user record.
var ErrUserNotFound = errors.New("user not found")
