package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type AcquisitionType string

const (
	AcquisitionTypePurchase AcquisitionType = "purchase"
)

type GrantStatus string

const (
	GrantStatusActive GrantStatus = "active"
)

// EnrollmentGrant gives a user active access to a program. Written by the
// payment engine as a side effect of a completed purchase; at most one grant
// exists per (user, program) pair regardless of how many payments touch it.
type EnrollmentGrant struct {
	ID              string // ULID, sortable by creation time
	UserID          string
	ProgramID       string
	PaymentID       string // the payment that produced this grant
	AcquisitionType AcquisitionType
	Status          GrantStatus
	GrantedAt       time.Time
}

// NewEnrollmentGrant builds an active purchase grant.
func NewEnrollmentGrant(userID, programID, paymentID string) *EnrollmentGrant {
	now := time.Now()
	return &EnrollmentGrant{
		ID:              ulid.Make().String(),
		UserID:          userID,
		ProgramID:       programID,
		PaymentID:       paymentID,
		AcquisitionType: AcquisitionTypePurchase,
		Status:          GrantStatusActive,
		GrantedAt:       now,
	}
}
