package entities

import (
	"time"

	"github.com/google/uuid"
)

// LabOrderStatus is the workflow state of a lab order. Orders move forward
// through ORDERED, COLLECTED, IN_PROGRESS, COMPLETED; CANCELED is reachable
// from any non-terminal state. COMPLETED and CANCELED are terminal.
type LabOrderStatus string

const (
	LabOrderStatusOrdered    LabOrderStatus = "ORDERED"
	LabOrderStatusCollected  LabOrderStatus = "COLLECTED"
	LabOrderStatusInProgress LabOrderStatus = "IN_PROGRESS"
	LabOrderStatusCompleted  LabOrderStatus = "COMPLETED"
	LabOrderStatusCanceled   LabOrderStatus = "CANCELED"
)

var labOrderStatusRank = map[LabOrderStatus]int{
	LabOrderStatusOrdered:    0,
	LabOrderStatusCollected:  1,
	LabOrderStatusInProgress: 2,
	LabOrderStatusCompleted:  3,
}

// Valid reports whether s is a known lab order status.
func (s LabOrderStatus) Valid() bool {
	if s == LabOrderStatusCanceled {
		return true
	}
	_, ok := labOrderStatusRank[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s LabOrderStatus) Terminal() bool {
	return s == LabOrderStatusCompleted || s == LabOrderStatusCanceled
}

// CanTransitionTo reports whether the status machine permits moving from s
// to next.
func (s LabOrderStatus) CanTransitionTo(next LabOrderStatus) bool {
	if s.Terminal() || !s.Valid() || !next.Valid() {
		return false
	}
	if next == LabOrderStatusCanceled {
		return true
	}
	return labOrderStatusRank[next] == labOrderStatusRank[s]+1
}

// LabOrder is a request for a catalog lab test.
type LabOrder struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	PatientID   uuid.UUID      `json:"patient_id" db:"patient_id"`
	EncounterID *uuid.UUID     `json:"encounter_id,omitempty" db:"encounter_id"`
	ProviderID  *uuid.UUID     `json:"provider_id,omitempty" db:"provider_id"`
	LabTestID   uuid.UUID      `json:"lab_test_id" db:"lab_test_id"`
	OrderedAt   time.Time      `json:"ordered_at" db:"ordered_at"`
	Status      LabOrderStatus `json:"status" db:"status"`
	Priority    *string        `json:"priority,omitempty" db:"priority"`
	Version     int            `json:"version" db:"version"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// LabResult is a value reported against a lab order.
type LabResult struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	LabOrderID   uuid.UUID  `json:"lab_order_id" db:"lab_order_id"`
	ResultValue  string     `json:"result_value" db:"result_value"`
	Units        *string    `json:"units,omitempty" db:"units"`
	ReferenceLow *float64   `json:"reference_low,omitempty" db:"reference_low"`
	ReferenceHi  *float64   `json:"reference_high,omitempty" db:"reference_high"`
	IsAbnormal   bool       `json:"is_abnormal" db:"is_abnormal"`
	ResultedAt   time.Time  `json:"resulted_at" db:"resulted_at"`
	VerifiedBy   *uuid.UUID `json:"verified_by,omitempty" db:"verified_by"`
}
