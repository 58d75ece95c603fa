// Package query defines the read-side request objects and their result
// shapes. Queries never mutate state and never call the gateway.
package query

import (
	"time"

	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain/model"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type GetPaymentByIDQuery struct {
	PaymentID string
}

type GetPaymentsByTransactionIDQuery struct {
	TransactionID string
}

// GetPaymentsQuery is the general filtered/sorted/paginated listing. All
// filter fields are optional; date bounds are inclusive on created_at.
// Default ordering is created_at descending.
type GetPaymentsQuery struct {
	Status        *model.PaymentStatus
	UserID        *string
	ProductID     *string
	Gateway       *string
	StartDate     *time.Time
	EndDate       *time.Time
	SortBy        string
	SortDirection SortDirection
	Skip          int
	Take          int
}

type GetUserPaymentsQuery struct {
	UserID string
}

type GetPaymentsByGatewayQuery struct {
	Gateway string
	Skip    int
	Take    int
}

type GetPaymentStatsQuery struct {
	StartDate time.Time
	EndDate   time.Time
}

// PaymentStats aggregates payments created within an inclusive date window.
// TotalRevenue sums completed payments only; AveragePaymentAmount is
// revenue/completed and zero when nothing completed.
type PaymentStats struct {
	TotalPayments        int
	CompletedPayments    int
	FailedPayments       int
	PendingPayments      int
	RefundedPayments     int
	TotalRevenue         decimal.Decimal
	AveragePaymentAmount decimal.Decimal
}
