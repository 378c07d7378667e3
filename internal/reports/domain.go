// Package reports joins booking-centric records for the sales reports.
package reports

import (
	"time"

	"github.com/realty-erp/realty-erp/internal/ledger"
)

// BookingView is one row of the applicant payment file report. Nested
// references are nil when the foreign key is null or does not resolve.
type BookingView struct {
	ID            int64                 `json:"id"`
	FileNumber    string                `json:"fileNumber"`
	Status        string                `json:"status"`
	CreatedAt     time.Time             `json:"createdAt"`
	Booking       *ledger.Booking       `json:"booking"`
	Project       *ledger.Project       `json:"project"`
	Client        *ledger.Client        `json:"client"`
	Property      *ledger.Property      `json:"property"`
	Broker        *ledger.Broker        `json:"broker"`
	SalesEmployee *ledger.SalesEmployee `json:"salesEmployee"`
	PaymentPlan   *ledger.PaymentPlan   `json:"paymentPlan"`
}

// UnitStatusFilter narrows the unit status report. Zero values match all.
type UnitStatusFilter struct {
	ProjectID int64
	Status    string
}

// UnitStatusView is a unit joined with its project.
type UnitStatusView struct {
	ledger.Property
	Project *ledger.Project `json:"project"`
}
