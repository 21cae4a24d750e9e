package postgres

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tixcore/internal/domain"
)

type TicketRepo struct {
	db DB
}

// ListByEvent lists the tickets issued for an event, oldest purchase first.
func (r *TicketRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Ticket, error) {
	const op = "postgres.TicketRepo.ListByEvent"

	rows, err := r.db.Query(ctx,
		`SELECT id, status, price, seat_number, purchase_date, expiry_date,
		        COALESCE(qr_code, ''), section_id, user_id, event_id
		 FROM tickets
		 WHERE event_id = $1
		 ORDER BY purchase_date, id`,
		eventID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Ticket
	for rows.Next() {
		var (
			t      domain.Ticket
			status string
		)

		if err := rows.Scan(
			&t.ID,
			&status,
			&t.Price,
			&t.SeatNumber,
			&t.PurchaseDate,
			&t.ExpiryDate,
			&t.QRCode,
			&t.SectionID,
			&t.UserID,
			&t.EventID,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		t.Status = domain.TicketStatus(status)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

type TransactionRepo struct {
	db DB
}

// ListByTicket lists the payment transactions recorded against a ticket.
func (r *TransactionRepo) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Transaction, error) {
	const op = "postgres.TransactionRepo.ListByTicket"

	rows, err := r.db.Query(ctx,
		`SELECT id, status, transaction_date, amount, currency, payment_method,
		        COALESCE(refund_reason, ''), ticket_id, user_id
		 FROM transactions
		 WHERE ticket_id = $1
		 ORDER BY transaction_date, id`,
		ticketID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			tx             domain.Transaction
			status, method string
		)

		if err := rows.Scan(
			&tx.ID,
			&status,
			&tx.Date,
			&tx.Amount,
			&tx.Currency,
			&method,
			&tx.RefundReason,
			&tx.TicketID,
			&tx.UserID,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		tx.Status = domain.TransactionStatus(status)
		tx.PaymentMethod = domain.PaymentMethod(method)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
