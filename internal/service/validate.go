package service

import (
	"time"

	"github.com/redipay/bridge-service/internal/models"
)

// MaxInstallments bounds the number of installments in a single plan.
const MaxInstallments = 12

// validateCreation runs the order-sensitive precondition checks that need
// no collateral data. The first failing check wins.
func validateCreation(totalAmount int64, installmentsCount int, dueDates []time.Time, now time.Time) error {
	if totalAmount <= 0 {
		return models.ErrInvalidAmount
	}
	if installmentsCount < 1 || installmentsCount > MaxInstallments {
		return models.ErrInvalidInstallments
	}
	if len(dueDates) != installmentsCount {
		return models.ErrDatesMismatch
	}
	for _, date := range dueDates {
		if !date.After(now) {
			return models.ErrInvalidDueDate
		}
	}
	return nil
}

// checkCollateral verifies the owner can back the plan: total capacity
// first, then current liquidity.
func checkCollateral(totalAmount int64, balance models.CollateralBalance) error {
	if totalAmount > balance.Total {
		return models.ErrInsufficientCollateral
	}
	if totalAmount > balance.Available {
		return models.ErrInsufficientAvailable
	}
	return nil
}
