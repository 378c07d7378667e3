// Package ledger holds the relational entities of the realty ERP together with
// the store capabilities the core consumes. Two stores are provided: a
// PostgreSQL store backed by pgx and an in-memory store used for local runs
// and tests.
package ledger

import "time"

// InvoiceStatus enumerates invoice settlement states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// Valid reports whether the status is one of the known values.
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// PaymentStatus enumerates payment states. Only COMPLETED payments exist.
type PaymentStatus string

const PaymentStatusCompleted PaymentStatus = "COMPLETED"

// Invoice bills a client. Amount is in minor currency units.
type Invoice struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"clientId"`
	Amount      int64         `json:"amount"`
	Date        time.Time     `json:"date"`
	DueDate     time.Time     `json:"dueDate"`
	Status      InvoiceStatus `json:"status"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Payment settles an invoice. Payments are immutable once stored.
type Payment struct {
	ID         int64         `json:"id"`
	InvoiceID  int64         `json:"invoiceId"`
	Amount     int64         `json:"amount"`
	Date       time.Time     `json:"date"`
	Status     PaymentStatus `json:"status"`
	Method     string        `json:"method,omitempty"`
	Reference  string        `json:"reference"`
	Note       string        `json:"note,omitempty"`
	RecordedBy int64         `json:"recordedBy,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Project is the aggregate root for sales reporting.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	ClientIDs []int64   `json:"clientIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// Phase is a construction or sales phase of a project.
type Phase struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	Name      string `json:"name"`
	Status    string `json:"status"`
}

// Property is a sellable unit inside a project.
type Property struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"projectId"`
	PhaseID    *int64 `json:"phaseId"`
	UnitNumber string `json:"unitNumber"`
	Type       string `json:"type"`
	AreaSqft   int64  `json:"areaSqft"`
	Price      int64  `json:"price"`
	Status     string `json:"status"`
}

// Client is a buyer or applicant.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Broker is an external channel partner credited with a booking.
type Broker struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SalesEmployee is the in-house salesperson credited with a booking.
type SalesEmployee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentPlan describes the installment schedule chosen for a booking.
type PaymentPlan struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Installments int    `json:"installments"`
	Description  string `json:"description"`
}

// Booking links a sale to its project, client, unit, broker, salesperson and
// payment plan. Every reference is optional.
type Booking struct {
	ID              int64     `json:"id"`
	ProjectID       *int64    `json:"projectId"`
	ClientID        *int64    `json:"clientId"`
	PropertyID      *int64    `json:"propertyId"`
	BrokerID        *int64    `json:"brokerId"`
	SalesEmployeeID *int64    `json:"salesEmployeeId"`
	PaymentPlanID   *int64    `json:"paymentPlanId"`
	BookingDate     time.Time `json:"bookingDate"`
	Amount          int64     `json:"amount"`
}

// ApplicantPaymentFile is the read-side fact row pointing at a booking.
type ApplicantPaymentFile struct {
	ID         int64     `json:"id"`
	BookingID  *int64    `json:"bookingId"`
	FileNumber string    `json:"fileNumber"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Task is a unit of work tracked against a project.
type Task struct {
	ID         int64  `json:"id"`
	ProjectID  *int64 `json:"projectId"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	AssigneeID *int64 `json:"assigneeId"`
}

// User is an ERP operator account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Communication is a logged contact with a client.
type Communication struct {
	ID       int64     `json:"id"`
	ClientID int64     `json:"clientId"`
	Channel  string    `json:"channel"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	At       time.Time `json:"at"`
}

// UnitFilter narrows unit listings. Zero values mean "any".
type UnitFilter struct {
	ProjectID int64
	Status    string
}
