package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redipay/bridge-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, Key("plan:plan_3"), PlanKey("plan_3"))
	assert.Equal(t, Key("userplans:alice@bank.test"), UserPlansKey("alice@bank.test"))
	assert.Equal(t, Key("user:alice@bank.test"), UserKey("alice@bank.test"))
	assert.Equal(t, Key("counter:plans"), CounterKey)
}

func TestMemoryNextPlanID(t *testing.T) {
	store := NewMemory()

	id, err := store.NextPlanID()
	require.NoError(t, err)
	assert.Equal(t, "plan_0", id)

	id, err = store.NextPlanID()
	require.NoError(t, err)
	assert.Equal(t, "plan_1", id)
}

func TestMemoryPlanRoundTrip(t *testing.T) {
	store := NewMemory()

	_, err := store.GetPlan("plan_0")
	assert.ErrorIs(t, err, models.ErrPlanNotFound)

	plan := &models.Plan{
		PlanID:      "plan_0",
		Owner:       "alice@bank.test",
		TotalAmount: 100,
		Installments: []models.Installment{
			{Number: 1, Amount: 100, DueDate: time.Now().Add(time.Hour), Status: models.InstallmentPending},
		},
		ProtectedAmount: 100,
		Status:          models.PlanActive,
	}
	require.NoError(t, store.SavePlan(plan))

	loaded, err := store.GetPlan("plan_0")
	require.NoError(t, err)
	assert.Equal(t, plan.Owner, loaded.Owner)

	// Mutating a loaded copy must not leak back into the store.
	loaded.Installments[0].Status = models.InstallmentPaid
	loaded.Status = models.PlanCompleted

	fresh, err := store.GetPlan("plan_0")
	require.NoError(t, err)
	assert.Equal(t, models.PlanActive, fresh.Status)
	assert.Equal(t, models.InstallmentPending, fresh.Installments[0].Status)
}

func TestMemoryUserPlans(t *testing.T) {
	store := NewMemory()

	ids, err := store.GetUserPlans("alice@bank.test")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.AppendUserPlan("alice@bank.test", "plan_0"))
	require.NoError(t, store.AppendUserPlan("alice@bank.test", "plan_1"))
	require.NoError(t, store.AppendUserPlan("bob@bank.test", "plan_2"))

	ids, err = store.GetUserPlans("alice@bank.test")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan_0", "plan_1"}, ids)

	owners, err := store.AllOwners()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice@bank.test", "bob@bank.test"}, owners)
}

func TestMemoryUsers(t *testing.T) {
	store := NewMemory()

	_, err := store.FindUserByEmail("alice@bank.test")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	require.NoError(t, store.SaveUser(&models.User{Email: "alice@bank.test", Username: "alice"}))

	user, err := store.FindUserByEmail("alice@bank.test")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestUserStorageKeepsPasswordHash(t *testing.T) {
	store := NewMemory()
	saved := &models.User{
		Email:        "alice@bank.test",
		Username:     "alice",
		PasswordHash: "$2a$10$somebcrypthash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.SaveUser(saved))

	// The hash must survive the storage encoding even though the API
	// model hides it from JSON responses.
	loaded, err := store.FindUserByEmail("alice@bank.test")
	require.NoError(t, err)
	assert.Equal(t, saved.PasswordHash, loaded.PasswordHash)
	assert.Equal(t, saved.Username, loaded.Username)
	assert.Equal(t, saved.CreatedAt, loaded.CreatedAt)

	response, err := json.Marshal(loaded)
	require.NoError(t, err)
	assert.NotContains(t, string(response), saved.PasswordHash)
}

func TestPlanStorageRoundTrip(t *testing.T) {
	store := NewMemory()
	paidAt := time.Now().UTC()
	source := models.SourceProtected
	plan := &models.Plan{
		PlanID:       "plan_5",
		Owner:        "alice@bank.test",
		Counterparty: "merchant@shop.test",
		TotalAmount:  100,
		Installments: []models.Installment{
			{Number: 1, Amount: 50, DueDate: paidAt.Add(-time.Hour), PaidAt: &paidAt, PaymentSource: &source, Status: models.InstallmentPaid},
			{Number: 2, Amount: 50, DueDate: paidAt.Add(time.Hour), Status: models.InstallmentPending},
		},
		ProtectedAmount: 100,
		Status:          models.PlanActive,
		CreatedAt:       paidAt.Add(-24 * time.Hour),
	}
	require.NoError(t, store.SavePlan(plan))

	loaded, err := store.GetPlan("plan_5")
	require.NoError(t, err)
	assert.Equal(t, plan, loaded)
}
