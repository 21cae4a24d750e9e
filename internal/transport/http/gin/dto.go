package httpgin

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/shopspring/decimal"
)

// dateLayout is dd-MM-yyyy, the wire format for civil dates.
const dateLayout = "02-01-2006"

// Engine rules own field validation, so request DTOs carry no binding tags
// beyond JSON shape.

type CategoryRequest struct {
	Name string `json:"name"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type EventRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date" example:"24-12-2026"`
	Time        string `json:"time" example:"19:30"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status,omitempty" enums:"ACTIVE,UPCOMING,COMPLETED,CANCELLED"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	CategoryID  int64  `json:"category_id"`
}

type EventResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	CategoryID  int64  `json:"category_id"`
}

type CapacityRequest struct {
	Capacity int `json:"capacity"`
}

type SectionRequest struct {
	Name      string `json:"name"`
	RowCount  int    `json:"row_count"`
	SeatCount int    `json:"seat_count"`
	Status    string `json:"status,omitempty" enums:"ACTIVE,INACTIVE,CLOSED"`
	EventID   int64  `json:"event_id"`
}

type SectionResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	RowCount   int    `json:"row_count"`
	SeatCount  int    `json:"seat_count"`
	TotalSeats int    `json:"total_seats"`
	Status     string `json:"status"`
	EventID    int64  `json:"event_id"`
}

type TicketResponse struct {
	ID           int64           `json:"id"`
	Status       string          `json:"status"`
	Price        decimal.Decimal `json:"price" swaggertype:"string"`
	SeatNumber   string          `json:"seat_number"`
	PurchaseDate time.Time       `json:"purchase_date"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	QRCode       string          `json:"qr_code,omitempty"`
	SectionID    int64           `json:"section_id"`
	UserID       int64           `json:"user_id"`
	EventID      int64           `json:"event_id"`
}

type TransactionResponse struct {
	ID            int64           `json:"id"`
	Status        string          `json:"status"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	RefundReason  string          `json:"refund_reason,omitempty"`
	TicketID      int64           `json:"ticket_id"`
	UserID        int64           `json:"user_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// toFields converts the request. Empty date or time stay nil so the engine
// reports them as missing; malformed ones are rejected here.
func (r EventRequest) toFields() (domain.EventFields, error) {
	f := domain.EventFields{
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Status:      domain.EventStatus(strings.ToUpper(strings.TrimSpace(r.Status))),
		Description: r.Description,
		Image:       r.Image,
		CategoryID:  r.CategoryID,
	}

	if r.Date != "" {
		d, err := parseDate(r.Date)
		if err != nil {
			return f, err
		}
		f.Date = &d
	}

	if r.Time != "" {
		t, err := domain.ParseTimeOfDay(r.Time)
		if err != nil {
			return f, domain.NewValidationError("time", fmt.Sprintf("Invalid time '%s', use HH:mm", r.Time))
		}
		f.Time = &t
	}

	return f, nil
}

func (r SectionRequest) toFields() domain.SectionFields {
	return domain.SectionFields{
		Name:      r.Name,
		RowCount:  r.RowCount,
		SeatCount: r.SeatCount,
		Status:    domain.SectionStatus(strings.ToUpper(strings.TrimSpace(r.Status))),
		EventID:   r.EventID,
	}
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", fmt.Sprintf("Invalid date '%s', use dd-MM-yyyy", s))
	}
	return d, nil
}

func toCategory(c domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}

func toEvent(e domain.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Date:        e.Date.Format(dateLayout),
		Time:        e.Time.String(),
		Location:    e.Location,
		Capacity:    e.Capacity,
		Status:      string(e.Status),
		Description: e.Description,
		Image:       e.Image,
		CategoryID:  e.CategoryID,
	}
}

func toSection(s domain.Section) SectionResponse {
	return SectionResponse{
		ID:         s.ID,
		Name:       s.Name,
		RowCount:   s.RowCount,
		SeatCount:  s.SeatCount,
		TotalSeats: s.TotalSeats(),
		Status:     string(s.Status),
		EventID:    s.EventID,
	}
}

func toTicket(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:           t.ID,
		Status:       string(t.Status),
		Price:        t.Price,
		SeatNumber:   t.SeatNumber,
		PurchaseDate: t.PurchaseDate,
		ExpiryDate:   t.ExpiryDate,
		QRCode:       t.QRCode,
		SectionID:    t.SectionID,
		UserID:       t.UserID,
		EventID:      t.EventID,
	}
}

func toTransaction(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		Status:        string(tx.Status),
		Date:          tx.Date,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		PaymentMethod: string(tx.PaymentMethod),
		RefundReason:  tx.RefundReason,
		TicketID:      tx.TicketID,
		UserID:        tx.UserID,
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
