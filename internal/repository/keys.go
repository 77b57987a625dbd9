package repository

// Key addresses one record in the keyed store. All keys are built through
// the constructors below so the key space stays closed; raw strings never
// reach the store.
type Key string

// PlanKey addresses a plan record by its id.
func PlanKey(planID string) Key {
	return Key("plan:" + planID)
}

// UserPlansKey addresses the list of plan ids owned by an identity.
func UserPlansKey(owner string) Key {
	return Key("userplans:" + owner)
}

// UserKey addresses a registered user record by email.
func UserKey(email string) Key {
	return Key("user:" + email)
}

// CounterKey addresses the singleton plan id counter.
const CounterKey Key = "counter:plans"

// userPlansPrefix is used to enumerate owners with at least one plan.
const userPlansPrefix = "userplans:"
