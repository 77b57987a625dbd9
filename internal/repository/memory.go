package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redipay/bridge-service/internal/models"
)

// Memory is an in-memory store with the same contract as Repository.
// Records are kept in the same encoded form as the JSONB kv table, so
// anything that does not survive the storage encoding fails here too.
// Used in tests and local development.
type Memory struct {
	mu   sync.RWMutex
	data map[Key]json.RawMessage
}

// NewMemory initializes an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[Key]json.RawMessage)}
}

// get and set expect the caller to hold the appropriate lock.
func (m *Memory) get(key Key, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) set(key Key, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	m.data[key] = raw
	return nil
}

func (m *Memory) SavePlan(plan *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(PlanKey(plan.PlanID), plan)
}

func (m *Memory) GetPlan(planID string) (*models.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plan := &models.Plan{}
	found, err := m.get(PlanKey(planID), plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrPlanNotFound
	}
	return plan, nil
}

func (m *Memory) GetUserPlans(owner string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []string{}
	if _, err := m.get(UserPlansKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Memory) AppendUserPlan(owner, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	if _, err := m.get(UserPlansKey(owner), &ids); err != nil {
		return err
	}
	ids = append(ids, planID)
	return m.set(UserPlansKey(owner), ids)
}

func (m *Memory) NextPlanID() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counter int64
	if _, err := m.get(CounterKey, &counter); err != nil {
		return "", err
	}
	if err := m.set(CounterKey, counter+1); err != nil {
		return "", err
	}
	return fmt.Sprintf("plan_%d", counter), nil
}

func (m *Memory) AllOwners() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owners := []string{}
	for key := range m.data {
		if strings.HasPrefix(string(key), userPlansPrefix) {
			owners = append(owners, strings.TrimPrefix(string(key), userPlansPrefix))
		}
	}
	return owners, nil
}

func (m *Memory) SaveUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(UserKey(user.Email), toStoredUser(user))
}

func (m *Memory) FindUserByEmail(email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedUser
	found, err := m.get(UserKey(email), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}
	return stored.model(), nil
}
