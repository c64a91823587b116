package domain

import "time"

// InvoiceStatus mirrors the billing subsystem's vocabulary. Invoices are
// read here, never written.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is the billing document this core reconciles payments against.
type Invoice struct {
	ID         string
	CustomerID string
	BookingID  *string

	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
	Currency      string
	Status        InvoiceStatus

	Items []InvoiceItem

	CreatedAt time.Time
}

// InvoiceItem is a stored line item. TotalCents is persisted, not
// recomputed silently; a mismatch with Quantity×UnitPriceCents is a
// data-integrity signal.
type InvoiceItem struct {
	ID             string
	Description    string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}

// EffectiveTotalCents is the invoice total used for reconciliation. The
// stored total of a PAID invoice can be stale relative to its line items
// after historical partial edits, so it is recomputed from items there.
func (inv *Invoice) EffectiveTotalCents() int64 {
	if inv.Status != InvoicePaid || len(inv.Items) == 0 {
		return inv.TotalCents
	}
	var subtotal int64
	for _, item := range inv.Items {
		subtotal += item.TotalCents
	}
	return subtotal + inv.TaxCents
}

// BookingStatus mirrors the scheduling subsystem's vocabulary.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a scheduled appointment, referenced for correlation and
// pricing but owned by the scheduling subsystem.
type Booking struct {
	ID          string
	CustomerID  string
	ServiceName string
	Date        time.Time
	StartTime   string
	EndTime     string
	Status      BookingStatus
}

// Customer is the minimal read model needed for linkage checks.
type Customer struct {
	ID    string
	Name  string
	Email string
}
