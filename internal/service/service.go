package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redipay/bridge-service/internal/config"
	"github.com/redipay/bridge-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service handles business logic
type Service struct {
	store      PlanStore
	collateral CollateralService
	notifier   Notifier
	log        *logrus.Logger
	config     *config.Config
	now        func() time.Time
}

// NewService initializes a new service
func NewService(store PlanStore, collateral CollateralService, notifier Notifier, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:      store,
		collateral: collateral,
		notifier:   notifier,
		log:        log,
		config:     cfg,
		now:        time.Now,
	}
}

// requireOwner verifies the authenticated caller is the given identity.
func (s *Service) requireOwner(ctx context.Context, owner string) error {
	actor, ok := ctx.Value("userID").(string)
	if !ok || actor == "" || actor != owner {
		return models.ErrUnauthorized
	}
	return nil
}

// CreatePlan validates a new installment plan against the owner's
// collateral, locks the full amount in the protected bucket and persists
// the plan. Returns the assigned plan id.
func (s *Service) CreatePlan(ctx context.Context, owner, counterparty string, totalAmount int64, installmentsCount int, dueDates []time.Time) (string, error) {
	if err := s.requireOwner(ctx, owner); err != nil {
		return "", err
	}

	now := s.now()
	if err := validateCreation(totalAmount, installmentsCount, dueDates, now); err != nil {
		return "", err
	}

	balance, err := s.collateral.GetBalance(owner)
	if err != nil {
		return "", fmt.Errorf("failed to query collateral balance: %w", err)
	}
	if err := checkCollateral(totalAmount, balance); err != nil {
		return "", err
	}

	planID, err := s.store.NextPlanID()
	if err != nil {
		return "", err
	}

	amounts := amortize(totalAmount, installmentsCount)
	installments := make([]models.Installment, installmentsCount)
	for i := range installments {
		installments[i] = models.Installment{
			Number:  i + 1,
			Amount:  amounts[i],
			DueDate: dueDates[i],
			Status:  models.InstallmentPending,
		}
	}

	plan := &models.Plan{
		PlanID:          planID,
		Owner:           owner,
		Counterparty:    counterparty,
		TotalAmount:     totalAmount,
		Installments:    installments,
		ProtectedAmount: totalAmount,
		Status:          models.PlanActive,
		CreatedAt:       now,
	}

	if err := s.collateral.LockProtected(owner, totalAmount); err != nil {
		return "", fmt.Errorf("failed to lock collateral: %w", err)
	}

	if err := s.store.SavePlan(plan); err != nil {
		// Funds are locked but the plan was never recorded. There is no
		// compensation path; operators must reconcile by hand.
		s.log.Errorf("Plan %s save failed after locking %d for %s: %v", planID, totalAmount, owner, err)
		return "", err
	}
	if err := s.store.AppendUserPlan(owner, planID); err != nil {
		return "", err
	}

	s.notifier.PlanCreated(owner, planID, totalAmount)
	s.log.Infof("Plan created: %s owner=%s total=%d installments=%d", planID, owner, totalAmount, installmentsCount)
	return planID, nil
}

// CollectInstallment attempts to collect one pending, due installment.
// Funding falls back from the available bucket to the protected bucket;
// if both are short, the installment is marked Failed, the plan is marked
// Defaulted, that state is persisted, and ErrInsufficientFunds is
// returned. This is the one error path that commits a mutation.
func (s *Service) CollectInstallment(ctx context.Context, planID string, installmentNumber int) (models.PaymentSource, error) {
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		return "", err
	}
	if err := s.requireOwner(ctx, plan.Owner); err != nil {
		return "", err
	}
	if installmentNumber < 1 || installmentNumber > len(plan.Installments) {
		return "", models.ErrInstallmentNotFound
	}

	installment := &plan.Installments[installmentNumber-1]
	if installment.Status != models.InstallmentPending {
		return "", models.ErrAlreadyPaid
	}

	now := s.now()
	if now.Before(installment.DueDate) {
		return "", models.ErrNotDueYet
	}

	balance, err := s.collateral.GetBalance(plan.Owner)
	if err != nil {
		return "", fmt.Errorf("failed to query collateral balance: %w", err)
	}

	amount := installment.Amount
	var source models.PaymentSource
	switch {
	case balance.Available >= amount:
		if err := s.collateral.DebitAvailable(plan.Owner, amount); err != nil {
			return "", fmt.Errorf("failed to debit available: %w", err)
		}
		source = models.SourceAvailable
	case balance.Protected >= amount:
		if err := s.collateral.DebitProtected(plan.Owner, amount); err != nil {
			return "", fmt.Errorf("failed to debit protected: %w", err)
		}
		source = models.SourceProtected
	default:
		// Both buckets are short: the installment fails and the plan
		// defaults, and that state is persisted before the error returns.
		installment.Status = models.InstallmentFailed
		plan.Status = models.PlanDefaulted
		if err := s.store.SavePlan(plan); err != nil {
			return "", err
		}
		s.notifier.PlanDefaulted(plan.Owner, planID, installmentNumber)
		s.log.Warnf("Plan defaulted: %s installment=%d amount=%d", planID, installmentNumber, amount)
		return "", models.ErrInsufficientFunds
	}

	installment.PaidAt = &now
	installment.PaymentSource = &source
	installment.Status = models.InstallmentPaid

	allPaid := true
	for i := range plan.Installments {
		if plan.Installments[i].Status != models.InstallmentPaid {
			allPaid = false
			break
		}
	}
	if allPaid {
		plan.Status = models.PlanCompleted
		// The full original reservation is released, regardless of how
		// many installments were funded from the protected bucket.
		if err := s.collateral.UnlockProtected(plan.Owner, plan.ProtectedAmount); err != nil {
			return "", fmt.Errorf("failed to unlock collateral: %w", err)
		}
		s.log.Infof("Plan completed: %s", planID)
	}

	if err := s.store.SavePlan(plan); err != nil {
		return "", err
	}

	s.notifier.InstallmentPaid(plan.Owner, planID, installmentNumber, source)
	s.log.Infof("Installment collected: %s number=%d amount=%d source=%s", planID, installmentNumber, amount, source)
	return source, nil
}

// GetPlan retrieves a plan by id.
func (s *Service) GetPlan(planID string) (*models.Plan, error) {
	return s.store.GetPlan(planID)
}

// GetUserPlans returns the plan ids owned by an identity. Owners with no
// plans get an empty list, never an error.
func (s *Service) GetUserPlans(owner string) ([]string, error) {
	return s.store.GetUserPlans(owner)
}

// GetNextDue returns the lowest-numbered pending installment whose due
// date has passed, or nil if none qualifies.
func (s *Service) GetNextDue(planID string) (*models.Installment, error) {
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range plan.Installments {
		installment := plan.Installments[i]
		if installment.Status == models.InstallmentPending && !installment.DueDate.After(now) {
			return &installment, nil
		}
	}
	return nil, nil
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	if _, err := s.store.FindUserByEmail(email); err == nil {
		return nil, fmt.Errorf("user already exists")
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now(),
	}

	if err := s.store.SaveUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.Email,
		ExpiresAt: jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
