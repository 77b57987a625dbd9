package service

import "github.com/redipay/bridge-service/internal/models"

// PlanStore is the durable keyed storage the service runs on.
type PlanStore interface {
	SavePlan(plan *models.Plan) error
	GetPlan(planID string) (*models.Plan, error)
	GetUserPlans(owner string) ([]string, error)
	AppendUserPlan(owner, planID string) error
	NextPlanID() (string, error)
	AllOwners() ([]string, error)
	SaveUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
}

// CollateralService is the external ledger holding each owner's funds.
// It is the only authority on balances; the service never computes them.
type CollateralService interface {
	GetBalance(owner string) (models.CollateralBalance, error)
	LockProtected(owner string, amount int64) error
	UnlockProtected(owner string, amount int64) error
	DebitAvailable(owner string, amount int64) error
	DebitProtected(owner string, amount int64) error
}

// Notifier delivers plan lifecycle notifications. Delivery is
// fire-and-forget: implementations report failures through their own
// logging and never propagate them to the calling operation.
type Notifier interface {
	PlanCreated(owner, planID string, totalAmount int64)
	InstallmentPaid(owner, planID string, number int, source models.PaymentSource)
	PlanDefaulted(owner, planID string, number int)
}
