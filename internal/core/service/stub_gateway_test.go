package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub gateway
// ---------------------------------------------------------------------------

// stubGateway mirrors the Mongo gateway's semantics: versioned snapshots, an
// all-or-nothing Commit with stale-version detection, and the uniqueness
// constraints on active leases and payment periods.
type stubGateway struct {
	properties map[string]*domain.Property
	bookings   map[string]*domain.Booking
	leases     map[string]*domain.Lease
	payments   map[string]*domain.Payment
	tickets    map[string]*domain.MaintenanceTicket

	versions map[string]int64 // "<entity>/<id>" → current version
	events   []*domain.TransitionEvent

	commitErr error // if set, Commit returns this error
	commits   int
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		properties: make(map[string]*domain.Property),
		bookings:   make(map[string]*domain.Booking),
		leases:     make(map[string]*domain.Lease),
		payments:   make(map[string]*domain.Payment),
		tickets:    make(map[string]*domain.MaintenanceTicket),
		versions:   make(map[string]int64),
	}
}

func verKey(entity domain.EntityType, id string) string {
	return string(entity) + "/" + id
}

// --- seeding helpers -------------------------------------------------------

func (g *stubGateway) seedProperty(p *domain.Property) {
	clone := *p
	g.properties[p.ID] = &clone
	g.versions[verKey(domain.EntityProperty, p.ID)] = 1
}

func (g *stubGateway) seedBooking(b *domain.Booking) {
	clone := *b
	g.bookings[b.ID] = &clone
	g.versions[verKey(domain.EntityBooking, b.ID)] = 1
}

func (g *stubGateway) seedLease(l *domain.Lease) {
	clone := *l
	g.leases[l.ID] = &clone
	g.versions[verKey(domain.EntityLease, l.ID)] = 1
}

func (g *stubGateway) seedPayment(p *domain.Payment) {
	clone := *p
	g.payments[p.ID] = &clone
	g.versions[verKey(domain.EntityPayment, p.ID)] = 1
}

func (g *stubGateway) seedTicket(t *domain.MaintenanceTicket) {
	clone := *t
	g.tickets[t.ID] = &clone
	g.versions[verKey(domain.EntityTicket, t.ID)] = 1
}

// --- loads -----------------------------------------------------------------

func (g *stubGateway) LoadProperty(_ context.Context, id string) (*domain.Property, int64, error) {
	p, ok := g.properties[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: property %s", domain.ErrNotFound, id)
	}
	clone := *p
	return &clone, g.versions[verKey(domain.EntityProperty, id)], nil
}

func (g *stubGateway) LoadBooking(_ context.Context, id string) (*domain.Booking, int64, error) {
	b, ok := g.bookings[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	clone := *b
	return &clone, g.versions[verKey(domain.EntityBooking, id)], nil
}

func (g *stubGateway) LoadLease(_ context.Context, id string) (*domain.Lease, int64, error) {
	l, ok := g.leases[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: lease %s", domain.ErrNotFound, id)
	}
	clone := *l
	return &clone, g.versions[verKey(domain.EntityLease, id)], nil
}

func (g *stubGateway) LoadPayment(_ context.Context, id string) (*domain.Payment, int64, error) {
	p, ok := g.payments[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: payment %s", domain.ErrNotFound, id)
	}
	clone := *p
	return &clone, g.versions[verKey(domain.EntityPayment, id)], nil
}

func (g *stubGateway) LoadTicket(_ context.Context, id string) (*domain.MaintenanceTicket, int64, error) {
	t, ok := g.tickets[id]
	if !ok {
		return nil, 0, fmt.Errorf("%w: ticket %s", domain.ErrNotFound, id)
	}
	clone := *t
	return &clone, g.versions[verKey(domain.EntityTicket, id)], nil
}

// --- lookups ---------------------------------------------------------------

func (g *stubGateway) ActiveLeaseByProperty(_ context.Context, propertyID string) (*domain.Lease, int64, error) {
	for _, l := range g.leases {
		if l.PropertyID == propertyID && l.Status == domain.LeaseActive {
			clone := *l
			return &clone, g.versions[verKey(domain.EntityLease, l.ID)], nil
		}
	}
	return nil, 0, fmt.Errorf("%w: no active lease on property %s", domain.ErrNotFound, propertyID)
}

func (g *stubGateway) PaymentByPeriod(_ context.Context, leaseID, period string) (*domain.Payment, error) {
	for _, p := range g.payments {
		if p.LeaseID == leaseID && p.Period == period {
			clone := *p
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: payment for lease %s period %s", domain.ErrNotFound, leaseID, period)
}

func (g *stubGateway) PaymentsByLease(_ context.Context, leaseID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range g.payments {
		if p.LeaseID == leaseID {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (g *stubGateway) LeasesByTenantAndProperty(_ context.Context, tenantID, propertyID string) ([]*domain.Lease, error) {
	var out []*domain.Lease
	for _, l := range g.leases {
		if l.TenantID == tenantID && l.PropertyID == propertyID {
			clone := *l
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (g *stubGateway) DueBookings(_ context.Context, now time.Time) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range g.bookings {
		if b.Status == domain.BookingPendingConfirmation && !b.RequestedAt.After(now) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (g *stubGateway) OverduePayments(_ context.Context, now time.Time) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range g.payments {
		if p.Status == domain.PaymentPending && now.After(p.DueDate) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (g *stubGateway) ExpiredLeases(_ context.Context, now time.Time) ([]*domain.Lease, error) {
	var out []*domain.Lease
	for _, l := range g.leases {
		if l.Status == domain.LeaseActive && now.After(l.EndDate) {
			clone := *l
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (g *stubGateway) ListProperties(_ context.Context, f ports.PropertyFilter) ([]*domain.Property, error) {
	var out []*domain.Property
	for _, p := range g.properties {
		if f.LandlordID != "" && p.LandlordID != f.LandlordID {
			continue
		}
		if f.Availability != "" && p.Availability != f.Availability {
			continue
		}
		if f.VerifiedOnly && !p.Verified {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (g *stubGateway) ListBookings(_ context.Context, f ports.BookingFilter) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range g.bookings {
		if f.TenantID != "" && b.TenantID != f.TenantID {
			continue
		}
		if f.LandlordID != "" && b.LandlordID != f.LandlordID {
			continue
		}
		if f.PropertyID != "" && b.PropertyID != f.PropertyID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (g *stubGateway) ListLeases(_ context.Context, f ports.LeaseFilter) ([]*domain.Lease, error) {
	var out []*domain.Lease
	for _, l := range g.leases {
		if f.TenantID != "" && l.TenantID != f.TenantID {
			continue
		}
		if f.LandlordID != "" && l.LandlordID != f.LandlordID {
			continue
		}
		if f.PropertyID != "" && l.PropertyID != f.PropertyID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	return out, nil
}

func (g *stubGateway) ListTickets(_ context.Context, f ports.TicketFilter) ([]*domain.MaintenanceTicket, error) {
	var out []*domain.MaintenanceTicket
	for _, t := range g.tickets {
		if f.TenantID != "" && t.TenantID != f.TenantID {
			continue
		}
		if f.LandlordID != "" && t.LandlordID != f.LandlordID {
			continue
		}
		if f.PropertyID != "" && t.PropertyID != f.PropertyID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (g *stubGateway) EventsByEntity(_ context.Context, entity domain.EntityType, id string) ([]*domain.TransitionEvent, error) {
	var out []*domain.TransitionEvent
	for _, e := range g.events {
		if e.EntityType == entity && e.EntityID == id {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

// --- commit ----------------------------------------------------------------

func (g *stubGateway) Commit(_ context.Context, tx *ports.Tx) error {
	if g.commitErr != nil {
		return g.commitErr
	}

	// Validate every write before applying any, like the real transaction.
	for _, w := range tx.Writes {
		current := g.versions[verKey(w.Entity, w.ID)]
		if w.Version != current {
			return fmt.Errorf("%w: stale version for %s %s", domain.ErrConflict, w.Entity, w.ID)
		}
		if w.Version == 0 {
			if err := g.checkUnique(w); err != nil {
				return err
			}
		}
	}

	for _, w := range tx.Writes {
		g.apply(w)
		g.versions[verKey(w.Entity, w.ID)] = w.Version + 1
	}
	g.events = append(g.events, tx.Events...)
	g.commits++
	return nil
}

// checkUnique enforces the partial indexes of the real store on inserts.
func (g *stubGateway) checkUnique(w ports.Write) error {
	switch w.Entity {
	case domain.EntityLease:
		l := w.State.(*domain.Lease)
		if l.Status == domain.LeaseActive {
			for _, other := range g.leases {
				if other.PropertyID == l.PropertyID && other.Status == domain.LeaseActive {
					return fmt.Errorf("%w: duplicate active lease on property %s", domain.ErrConflict, l.PropertyID)
				}
			}
		}
	case domain.EntityPayment:
		p := w.State.(*domain.Payment)
		for _, other := range g.payments {
			if other.LeaseID == p.LeaseID && other.Period == p.Period {
				return fmt.Errorf("%w: duplicate payment period %s", domain.ErrConflict, p.Period)
			}
		}
	}
	return nil
}

func (g *stubGateway) apply(w ports.Write) {
	switch w.Entity {
	case domain.EntityProperty:
		clone := *w.State.(*domain.Property)
		g.properties[w.ID] = &clone
	case domain.EntityBooking:
		clone := *w.State.(*domain.Booking)
		g.bookings[w.ID] = &clone
	case domain.EntityLease:
		clone := *w.State.(*domain.Lease)
		g.leases[w.ID] = &clone
	case domain.EntityPayment:
		clone := *w.State.(*domain.Payment)
		g.payments[w.ID] = &clone
	case domain.EntityTicket:
		clone := *w.State.(*domain.MaintenanceTicket)
		g.tickets[w.ID] = &clone
	}
}

// ---------------------------------------------------------------------------
// Stub dispatcher and dedup
// ---------------------------------------------------------------------------

type stubDispatcher struct {
	enqueued []*domain.TransitionEvent
}

func (d *stubDispatcher) Enqueue(events ...*domain.TransitionEvent) {
	d.enqueued = append(d.enqueued, events...)
}

type memDedup struct {
	keys map[string]bool
}

func newMemDedup() *memDedup {
	return &memDedup{keys: make(map[string]bool)}
}

func (d *memDedup) Seen(_ context.Context, key string) (bool, error) {
	return d.keys[key], nil
}

func (d *memDedup) Mark(_ context.Context, key string) error {
	d.keys[key] = true
	return nil
}

// ---------------------------------------------------------------------------
// Shared fixtures
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

var (
	tenant   = domain.Actor{ID: "tenant_1", Role: domain.RoleTenant}
	landlord = domain.Actor{ID: "landlord_1", Role: domain.RoleLandlord}
	admin    = domain.Actor{ID: "admin_1", Role: domain.RoleAdmin}
)

func vacantProperty(id string) *domain.Property {
	now := time.Now().UTC()
	return &domain.Property{
		ID:           id,
		LandlordID:   landlord.ID,
		Title:        "2BR apartment",
		Address:      "Calle Sol 12",
		City:         "Valencia",
		MonthlyRent:  900,
		Verified:     true,
		Availability: domain.PropertyVacant,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func pendingBooking(id, propertyID string) *domain.Booking {
	now := time.Now().UTC()
	return &domain.Booking{
		ID:          id,
		PropertyID:  propertyID,
		TenantID:    tenant.ID,
		LandlordID:  landlord.ID,
		RequestedAt: now.Add(24 * time.Hour),
		Status:      domain.BookingPendingConfirmation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func finalizedLease(id, propertyID string) *domain.Lease {
	now := time.Now().UTC()
	return &domain.Lease{
		ID:            id,
		PropertyID:    propertyID,
		TenantID:      tenant.ID,
		LandlordID:    landlord.ID,
		StartDate:     now,
		EndDate:       now.AddDate(1, 0, 0),
		MonthlyRent:   900,
		Deposit:       900,
		PaymentDueDay: 5,
		Status:        domain.LeasePendingTenantSignature,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func activeLease(id, propertyID string) *domain.Lease {
	l := finalizedLease(id, propertyID)
	now := time.Now().UTC()
	l.Status = domain.LeaseActive
	l.TenantSignedAt = &now
	l.LandlordSignedAt = &now
	return l
}
