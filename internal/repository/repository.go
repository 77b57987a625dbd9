package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redipay/bridge-service/internal/models"
)

// Repository provides keyed durable storage over Postgres. Plans, per-owner
// plan id lists, users and the plan id counter all live in one JSONB table.
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the storage schema if it does not exist yet.
func (r *Repository) EnsureSchema() error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS bridge`,
		`CREATE TABLE IF NOT EXISTS bridge.kv (
			key   TEXT PRIMARY KEY,
			value JSONB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (r *Repository) get(key Key, dest interface{}) (bool, error) {
	var raw []byte
	err := r.db.QueryRow(`SELECT value FROM bridge.kv WHERE key = $1`, string(key)).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) set(key Key, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = r.db.Exec(`
		INSERT INTO bridge.kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		string(key), raw)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// SavePlan writes a complete plan record.
func (r *Repository) SavePlan(plan *models.Plan) error {
	return r.set(PlanKey(plan.PlanID), plan)
}

// GetPlan retrieves a plan by id.
func (r *Repository) GetPlan(planID string) (*models.Plan, error) {
	plan := &models.Plan{}
	found, err := r.get(PlanKey(planID), plan)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrPlanNotFound
	}
	return plan, nil
}

// GetUserPlans returns the plan ids owned by an identity, oldest first.
// Owners with no plans get an empty list.
func (r *Repository) GetUserPlans(owner string) ([]string, error) {
	ids := []string{}
	if _, err := r.get(UserPlansKey(owner), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AppendUserPlan adds a plan id to an owner's list.
func (r *Repository) AppendUserPlan(owner, planID string) error {
	ids, err := r.GetUserPlans(owner)
	if err != nil {
		return err
	}
	ids = append(ids, planID)
	return r.set(UserPlansKey(owner), ids)
}

// NextPlanID atomically increments the persisted counter and returns a
// fresh textual plan id. The first id issued is plan_0.
func (r *Repository) NextPlanID() (string, error) {
	var counter int64
	err := r.db.QueryRow(`
		INSERT INTO bridge.kv (key, value) VALUES ($1, '1'::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = to_jsonb((bridge.kv.value #>> '{}')::bigint + 1)
		RETURNING (value #>> '{}')::bigint - 1`,
		string(CounterKey)).Scan(&counter)
	if err != nil {
		return "", fmt.Errorf("failed to advance plan counter: %w", err)
	}
	return fmt.Sprintf("plan_%d", counter), nil
}

// AllOwners returns every identity that owns at least one plan.
func (r *Repository) AllOwners() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM bridge.kv WHERE key LIKE $1`, userPlansPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan owner key: %w", err)
		}
		owners = append(owners, strings.TrimPrefix(key, userPlansPrefix))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

// storedUser is the storage representation of a user. models.User keeps
// the password hash out of API responses with json:"-", so persisting the
// model directly would drop the hash; this struct carries it explicitly.
type storedUser struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func toStoredUser(user *models.User) storedUser {
	return storedUser{
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func (u storedUser) model() *models.User {
	return &models.User{
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

// SaveUser writes a registered user record.
func (r *Repository) SaveUser(user *models.User) error {
	return r.set(UserKey(user.Email), toStoredUser(user))
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	var stored storedUser
	found, err := r.get(UserKey(email), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUserNotFound
	}
	return stored.model(), nil
}
