package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
)

// memStore backs every repository interface with maps. Conditional updates run
// under one mutex, which gives them the same compare-and-set behaviour as the
// WHERE status = ... clauses in Postgres.
type memStore struct {
	mu        sync.Mutex
	providers map[uuid.UUID]entity.Provider
	bookings  map[uuid.UUID]entity.Booking
	payments  map[uuid.UUID]entity.Payment
}

func newMemRepo() (*repository.Repository, *memStore) {
	store := &memStore{
		providers: make(map[uuid.UUID]entity.Provider),
		bookings:  make(map[uuid.UUID]entity.Booking),
		payments:  make(map[uuid.UUID]entity.Payment),
	}
	repo := &repository.Repository{
		Provider: memProviders{store},
		Booking:  memBookings{store},
		Payment:  memPayments{store},
		Earnings: memEarnings{store},
	}
	return repo, store
}

func (m *memStore) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) payment(id uuid.UUID) entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

// putPayment stores a payment directly, bypassing the engine.
func (m *memStore) putPayment(p entity.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.ID] = p
}

func (m *memStore) putBooking(b entity.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
}

type memProviders struct{ *memStore }

func (m memProviders) Upsert(_ context.Context, p *entity.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.providers[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	m.providers[p.ID] = *p
	return nil
}

func (m memProviders) FindByID(_ context.Context, id uuid.UUID) (*entity.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.providers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type memBookings struct{ *memStore }

func (m memBookings) Create(_ context.Context, b *entity.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = *b
	return nil
}

func (m memBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m memBookings) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return m.FindByID(ctx, id)
}

func (m memBookings) FindByIDForShare(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return m.FindByID(ctx, id)
}

func (m memBookings) matching(filter repository.BookingFilter) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range m.bookings {
		if filter.ClientID != nil && b.ClientID != *filter.ClientID {
			continue
		}
		if filter.ProviderID != nil && b.ProviderID != *filter.ProviderID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m memBookings) List(_ context.Context, filter repository.BookingFilter, limit, offset int) ([]*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(filter)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m memBookings) Count(_ context.Context, filter repository.BookingFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(filter))), nil
}

func (m memBookings) TransitionStatus(_ context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus, at time.Time) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !containsStatus(from, b.Status) {
		return nil, nil
	}
	b.Status = to
	b.UpdatedAt = at
	if to == entity.BookingStatusCancelled {
		b.CancelledAt = &at
	}
	m.bookings[id] = b
	return &b, nil
}

func (m memBookings) UpdateQuote(_ context.Context, id uuid.UUID, price fee.Money, at time.Time) (*entity.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != entity.BookingStatusRequested {
		return nil, nil
	}
	b.QuotedPrice = price
	b.UpdatedAt = at
	m.bookings[id] = b
	return &b, nil
}

type memPayments struct{ *memStore }

func (m memPayments) Create(_ context.Context, p *entity.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.BookingID == p.BookingID && !existing.Status.Terminal() {
			return repository.ErrOpenPaymentExists
		}
	}
	m.payments[p.ID] = *p
	return nil
}

func (m memPayments) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memPayments) FindOpenByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.BookingID == bookingID && !p.Status.Terminal() {
			return &p, nil
		}
	}
	return nil, nil
}

func (m memPayments) FindLatestByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *entity.Payment
	for _, p := range m.payments {
		if p.BookingID != bookingID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			p := p
			latest = &p
		}
	}
	return latest, nil
}

func (m memPayments) update(id uuid.UUID, from []entity.PaymentStatus, apply func(p *entity.Payment)) *entity.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || !containsStatus(from, p.Status) {
		return nil
	}
	apply(&p)
	m.payments[id] = p
	return &p
}

func (m memPayments) MarkVerified(_ context.Context, id uuid.UUID, verifiedBy string, at, releaseAt time.Time) (*entity.Payment, error) {
	return m.update(id, []entity.PaymentStatus{entity.PaymentStatusPendingVerification}, func(p *entity.Payment) {
		p.Status = entity.PaymentStatusVerified
		p.VerifiedAt = &at
		p.VerifiedBy = &verifiedBy
		p.EscrowReleaseAt = &releaseAt
	}), nil
}

func (m memPayments) MarkReleased(_ context.Context, id uuid.UUID, trigger entity.ReleaseTrigger, releasedBy string, at time.Time) (*entity.Payment, error) {
	return m.update(id, []entity.PaymentStatus{entity.PaymentStatusVerified}, func(p *entity.Payment) {
		p.Status = entity.PaymentStatusReleased
		p.ReleasedAt = &at
		p.ReleaseTrigger = &trigger
		p.ReleasedBy = &releasedBy
	}), nil
}

func (m memPayments) MarkFailed(_ context.Context, id uuid.UUID, from []entity.PaymentStatus, reason string, at time.Time) (*entity.Payment, error) {
	return m.update(id, from, func(p *entity.Payment) {
		p.Status = entity.PaymentStatusFailed
		p.FailedAt = &at
		p.FailureReason = &reason
	}), nil
}

func (m memPayments) FailPendingByBookingID(_ context.Context, bookingID uuid.UUID, reason string, at time.Time) ([]*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failed []*entity.Payment
	for id, p := range m.payments {
		if p.BookingID != bookingID || p.Status != entity.PaymentStatusPendingVerification {
			continue
		}
		p.Status = entity.PaymentStatusFailed
		p.FailedAt = &at
		p.FailureReason = &reason
		m.payments[id] = p
		p := p
		failed = append(failed, &p)
	}
	return failed, nil
}

func (m memPayments) ListDueForRelease(_ context.Context, now time.Time, limit int) ([]*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*entity.Payment
	for _, p := range m.payments {
		if p.Status == entity.PaymentStatusVerified && p.ReleaseDue(now) {
			p := p
			due = append(due, &p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EscrowReleaseAt.Before(*due[j].EscrowReleaseAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type memEarnings struct{ *memStore }

func (m memEarnings) sum(providerID uuid.UUID, status entity.PaymentStatus, at func(p entity.Payment) *time.Time, from, to time.Time) repository.Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var agg repository.Aggregate
	for _, p := range m.payments {
		if p.Status != status || m.bookings[p.BookingID].ProviderID != providerID {
			continue
		}
		ts := at(p)
		if ts == nil || ts.Before(from) || ts.After(to) {
			continue
		}
		agg.Amount += p.PayoutAmount
		agg.Count++
	}
	return agg
}

func (m memEarnings) SumReleased(_ context.Context, providerID uuid.UUID, from, to time.Time) (repository.Aggregate, error) {
	return m.sum(providerID, entity.PaymentStatusReleased, func(p entity.Payment) *time.Time { return p.ReleasedAt }, from, to), nil
}

func (m memEarnings) SumVerified(_ context.Context, providerID uuid.UUID, from, to time.Time) (repository.Aggregate, error) {
	return m.sum(providerID, entity.PaymentStatusVerified, func(p entity.Payment) *time.Time { return p.VerifiedAt }, from, to), nil
}

func (m memEarnings) ListHistory(_ context.Context, providerID uuid.UUID, after *utils.Cursor, limit int) ([]*entity.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []*entity.Payment
	for _, p := range m.payments {
		if m.bookings[p.BookingID].ProviderID != providerID {
			continue
		}
		if after != nil && !keysetBefore(p, after) {
			continue
		}
		p := p
		rows = append(rows, &p)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return uuidLess(rows[j].ID, rows[i].ID)
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// keysetBefore mirrors (created_at, id) < (cursor.created_at, cursor.id).
func keysetBefore(p entity.Payment, c *utils.Cursor) bool {
	if p.CreatedAt.Equal(c.CreatedAt) {
		return uuidLess(p.ID, c.ID)
	}
	return p.CreatedAt.Before(c.CreatedAt)
}

func uuidLess(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func containsStatus[S comparable](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Key     string
	Payload any
}

func (r *recorder) Publish(_ context.Context, key string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Key: key, Payload: payload})
	return nil
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Key == key {
			n++
		}
	}
	return n
}

// fakeClock is a settable clock shared by the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
