package services

import (
	"context"
	"sync"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
)

// In-memory fakes for the persistence and messaging ports. Behavior can
// be overridden per test via the *Fn fields.

type MemoryPaymentStore struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFn           func(ctx context.Context, payment *domain.Payment) error
	UpdateFromStatusFn func(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error
}

func NewMemoryPaymentStore() *MemoryPaymentStore {
	return &MemoryPaymentStore{payments: make(map[string]*domain.Payment)}
}

func (m *MemoryPaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *payment
	m.payments[payment.ID] = &copied
	return nil
}

func (m *MemoryPaymentStore) UpdateFromStatus(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error {
	if m.UpdateFromStatusFn != nil {
		return m.UpdateFromStatusFn(ctx, payment, from)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.payments[payment.ID]
	if !ok {
		return application.ErrNotFound
	}
	if current.Status != from {
		return application.ErrStaleUpdate
	}
	copied := *payment
	m.payments[payment.ID] = &copied
	return nil
}

func (m *MemoryPaymentStore) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (m *MemoryPaymentStore) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, payment := range m.payments {
		if payment.GatewayTransactionID != nil && *payment.GatewayTransactionID == transactionID {
			copied := *payment
			return &copied, nil
		}
	}
	return nil, application.ErrNotFound
}

func (m *MemoryPaymentStore) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.Payment
	for _, payment := range m.payments {
		if payment.CustomerID == customerID {
			copied := *payment
			results = append(results, &copied)
		}
	}
	return results, nil
}

type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]*domain.PaymentRequest

	UpdateFn func(ctx context.Context, request *domain.PaymentRequest) error
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{requests: make(map[string]*domain.PaymentRequest)}
}

func (m *MemoryRequestStore) Create(ctx context.Context, request *domain.PaymentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *MemoryRequestStore) Update(ctx context.Context, request *domain.PaymentRequest) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[request.ID]; !ok {
		return application.ErrNotFound
	}
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *MemoryRequestStore) FindByID(ctx context.Context, id string) (*domain.PaymentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	copied := *request
	return &copied, nil
}

func (m *MemoryRequestStore) All() []*domain.PaymentRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.PaymentRequest
	for _, request := range m.requests {
		copied := *request
		results = append(results, &copied)
	}
	return results
}

func (m *MemoryRequestStore) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.PaymentRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var results []*domain.PaymentRequest
	for _, request := range m.requests {
		if len(results) >= limit {
			break
		}
		if request.Status != domain.RequestPending && request.Status != domain.RequestSent {
			continue
		}
		if request.DueDate != nil && request.DueDate.Before(now) {
			copied := *request
			results = append(results, &copied)
		}
	}
	return results, nil
}

type MemoryBillingReader struct {
	mu       sync.RWMutex
	invoices map[string]*domain.Invoice
	bookings map[string]*domain.Booking
}

func NewMemoryBillingReader() *MemoryBillingReader {
	return &MemoryBillingReader{
		invoices: make(map[string]*domain.Invoice),
		bookings: make(map[string]*domain.Booking),
	}
}

func (m *MemoryBillingReader) AddInvoice(invoice *domain.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[invoice.ID] = invoice
}

func (m *MemoryBillingReader) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MemoryBillingReader) InvoiceByID(ctx context.Context, id string) (*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	invoice, ok := m.invoices[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	return invoice, nil
}

func (m *MemoryBillingReader) BookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	return booking, nil
}

type MemoryEventLedger struct {
	mu     sync.Mutex
	events map[string]*application.ProcessedEvent
}

func NewMemoryEventLedger() *MemoryEventLedger {
	return &MemoryEventLedger{events: make(map[string]*application.ProcessedEvent)}
}

func (m *MemoryEventLedger) Find(ctx context.Context, eventID string) (*application.ProcessedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return nil, nil
	}
	copied := *event
	return &copied, nil
}

func (m *MemoryEventLedger) Record(ctx context.Context, event *application.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.EventID]; ok {
		return application.ErrDuplicateEvent
	}
	copied := *event
	m.events[event.EventID] = &copied
	return nil
}

// RecordedScheduler captures recompute jobs for assertions.
type RecordedScheduler struct {
	mu   sync.Mutex
	Jobs []application.RecomputeJob
}

func (s *RecordedScheduler) Schedule(job application.RecomputeJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Jobs = append(s.Jobs, job)
}

func (s *RecordedScheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Jobs)
}

// MemoryBalanceCache is a map-backed BalanceCache.
type MemoryBalanceCache struct {
	mu      sync.RWMutex
	entries map[string]*application.BalanceSummary
}

func NewMemoryBalanceCache() *MemoryBalanceCache {
	return &MemoryBalanceCache{entries: make(map[string]*application.BalanceSummary)}
}

func (c *MemoryBalanceCache) Get(ctx context.Context, key string) (*application.BalanceSummary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	summary, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	copied := *summary
	return &copied, true, nil
}

func (c *MemoryBalanceCache) Set(ctx context.Context, key string, summary *application.BalanceSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *summary
	c.entries[key] = &copied
	return nil
}

func (c *MemoryBalanceCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
