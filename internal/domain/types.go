package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventActive    EventStatus = "ACTIVE"
	EventUpcoming  EventStatus = "UPCOMING"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

type SectionStatus string

const (
	SectionActive   SectionStatus = "ACTIVE"
	SectionInactive SectionStatus = "INACTIVE"
	SectionClosed   SectionStatus = "CLOSED"
)

type TicketStatus string

const (
	TicketValid     TicketStatus = "VALID"
	TicketExpired   TicketStatus = "EXPIRED"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketUsed      TicketStatus = "USED"
)

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "PENDING"
	TransactionSuccess  TransactionStatus = "SUCCESS"
	TransactionFailed   TransactionStatus = "FAILED"
	TransactionRefunded TransactionStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentPayPal     PaymentMethod = "PAYPAL"
	PaymentCash       PaymentMethod = "CASH"
	PaymentApplePay   PaymentMethod = "APPLE_PAY"
	PaymentGooglePay  PaymentMethod = "GOOGLE_PAY"
)

type Category struct {
	ID   int64
	Name string
}

// Event is a dated, ticketed happening. Date holds a civil date at UTC
// midnight; Time is the local start time on that date.
type Event struct {
	ID          int64
	Name        string
	Date        time.Time
	Time        TimeOfDay
	Location    string
	Capacity    int
	Status      EventStatus
	Description string
	Image       string
	CategoryID  int64
}

type Section struct {
	ID        int64
	Name      string
	RowCount  int
	SeatCount int
	Status    SectionStatus
	EventID   int64
}

// TotalSeats returns the number of seats in the section grid.
func (s Section) TotalSeats() int {
	return s.RowCount * s.SeatCount
}

type User struct {
	ID        int64
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type Ticket struct {
	ID           int64
	Status       TicketStatus
	Price        decimal.Decimal
	SeatNumber   string
	PurchaseDate time.Time
	ExpiryDate   time.Time
	QRCode       string
	SectionID    int64
	UserID       int64
	EventID      int64
}

type Transaction struct {
	ID            int64
	Status        TransactionStatus
	Date          time.Time
	Amount        decimal.Decimal
	Currency      string
	PaymentMethod PaymentMethod
	RefundReason  string
	TicketID      int64
	UserID        int64
}

// EventFields carries caller-supplied values for an event create or update.
// Nil Date or Time means the value was not supplied.
type EventFields struct {
	Name        string
	Date        *time.Time
	Time        *TimeOfDay
	Location    string
	Capacity    int
	Status      EventStatus
	Description string
	Image       string
	CategoryID  int64
}

// SectionFields carries caller-supplied values for a section create or update.
type SectionFields struct {
	Name      string
	RowCount  int
	SeatCount int
	Status    SectionStatus
	EventID   int64
}
