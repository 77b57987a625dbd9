package models

import "time"

// PlanStatus is the lifecycle state of a plan. Active plans move to
// Completed or Defaulted; both are terminal.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanDefaulted PlanStatus = "defaulted"
)

// InstallmentStatus is the lifecycle state of a single installment.
// Pending moves to Paid or Failed; both are terminal.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentFailed  InstallmentStatus = "failed"
)

// PaymentSource records which collateral bucket funded an installment.
type PaymentSource string

const (
	SourceAvailable PaymentSource = "available"
	SourceProtected PaymentSource = "protected"
)

// Installment is one scheduled payment within a plan. Amounts are in
// minor currency units.
type Installment struct {
	Number        int               `json:"number"`
	Amount        int64             `json:"amount"`
	DueDate       time.Time         `json:"due_date"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	PaymentSource *PaymentSource    `json:"payment_source,omitempty"`
	Status        InstallmentStatus `json:"status"`
}

// Plan is a collateralized installment schedule owed by an owner to a
// counterparty. The sum of installment amounts always equals TotalAmount,
// and ProtectedAmount holds the full collateral reserved at creation.
type Plan struct {
	PlanID          string        `json:"plan_id"`
	Owner           string        `json:"owner"`
	Counterparty    string        `json:"counterparty"`
	TotalAmount     int64         `json:"total_amount"`
	Installments    []Installment `json:"installments"`
	ProtectedAmount int64         `json:"protected_amount"`
	Status          PlanStatus    `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CollateralBalance is the read-only view of an owner's funds in the
// external collateral ledger. Available and Protected partition the
// currently free vs. reserved funds; Total is the overall pledged capacity.
type CollateralBalance struct {
	Available int64 `json:"available"`
	Protected int64 `json:"protected"`
	Total     int64 `json:"total"`
}
