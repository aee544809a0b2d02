package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

// ActiveLeaseByProperty returns the single active lease on a property.
func (g *Gateway) ActiveLeaseByProperty(ctx context.Context, propertyID string) (*domain.Lease, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"property_id": propertyID, "status": string(domain.LeaseActive)}
	var doc leaseDoc
	if err := g.db.Collection(collectionLeases).FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, 0, fmt.Errorf("%w: no active lease on property %s", domain.ErrNotFound, propertyID)
		}
		return nil, 0, fmt.Errorf("active lease lookup: %w", err)
	}
	return &doc.Lease, doc.Version, nil
}

// PaymentByPeriod resolves the natural key (lease, period).
func (g *Gateway) PaymentByPeriod(ctx context.Context, leaseID, period string) (*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"lease_id": leaseID, "period": period}
	var doc paymentDoc
	if err := g.db.Collection(collectionPayments).FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: payment for lease %s period %s", domain.ErrNotFound, leaseID, period)
		}
		return nil, fmt.Errorf("payment lookup: %w", err)
	}
	return &doc.Payment, nil
}

// PaymentsByLease returns every payment of a lease, oldest period first.
func (g *Gateway) PaymentsByLease(ctx context.Context, leaseID string) ([]*domain.Payment, error) {
	return g.findPayments(ctx, bson.M{"lease_id": leaseID}, options.Find().SetSort(bson.D{{Key: "period", Value: 1}}))
}

// LeasesByTenantAndProperty returns every lease binding the tenant to the
// property, any status.
func (g *Gateway) LeasesByTenantAndProperty(ctx context.Context, tenantID, propertyID string) ([]*domain.Lease, error) {
	return g.findLeases(ctx, bson.M{"tenant_id": tenantID, "property_id": propertyID})
}

// DueBookings returns pending bookings whose requested time has passed.
func (g *Gateway) DueBookings(ctx context.Context, now time.Time) ([]*domain.Booking, error) {
	return g.findBookings(ctx, bson.M{
		"status":       string(domain.BookingPendingConfirmation),
		"requested_at": bson.M{"$lte": now.UTC()},
	})
}

// OverduePayments returns pending payments past their due date.
func (g *Gateway) OverduePayments(ctx context.Context, now time.Time) ([]*domain.Payment, error) {
	return g.findPayments(ctx, bson.M{
		"status":   string(domain.PaymentPending),
		"due_date": bson.M{"$lt": now.UTC()},
	}, nil)
}

// ExpiredLeases returns active leases past their end date.
func (g *Gateway) ExpiredLeases(ctx context.Context, now time.Time) ([]*domain.Lease, error) {
	return g.findLeases(ctx, bson.M{
		"status":   string(domain.LeaseActive),
		"end_date": bson.M{"$lt": now.UTC()},
	})
}

// ListProperties returns properties matching the filter.
func (g *Gateway) ListProperties(ctx context.Context, filter ports.PropertyFilter) ([]*domain.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.LandlordID != "" {
		q["landlord_id"] = filter.LandlordID
	}
	if filter.Availability != "" {
		q["availability"] = string(filter.Availability)
	}
	if filter.VerifiedOnly {
		q["verified"] = true
	}

	cur, err := g.db.Collection(collectionProperties).Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Property
	for cur.Next(ctx) {
		var doc propertyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		p := doc.Property
		out = append(out, &p)
	}
	return out, cur.Err()
}

// ListBookings returns bookings matching the filter.
func (g *Gateway) ListBookings(ctx context.Context, filter ports.BookingFilter) ([]*domain.Booking, error) {
	q := bson.M{}
	if filter.TenantID != "" {
		q["tenant_id"] = filter.TenantID
	}
	if filter.LandlordID != "" {
		q["landlord_id"] = filter.LandlordID
	}
	if filter.PropertyID != "" {
		q["property_id"] = filter.PropertyID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	return g.findBookings(ctx, q)
}

// ListLeases returns leases matching the filter.
func (g *Gateway) ListLeases(ctx context.Context, filter ports.LeaseFilter) ([]*domain.Lease, error) {
	q := bson.M{}
	if filter.TenantID != "" {
		q["tenant_id"] = filter.TenantID
	}
	if filter.LandlordID != "" {
		q["landlord_id"] = filter.LandlordID
	}
	if filter.PropertyID != "" {
		q["property_id"] = filter.PropertyID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	return g.findLeases(ctx, q)
}

// ListTickets returns tickets matching the filter.
func (g *Gateway) ListTickets(ctx context.Context, filter ports.TicketFilter) ([]*domain.MaintenanceTicket, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := bson.M{}
	if filter.TenantID != "" {
		q["tenant_id"] = filter.TenantID
	}
	if filter.LandlordID != "" {
		q["landlord_id"] = filter.LandlordID
	}
	if filter.PropertyID != "" {
		q["property_id"] = filter.PropertyID
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}

	cur, err := g.db.Collection(collectionTickets).Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.MaintenanceTicket
	for cur.Next(ctx) {
		var doc ticketDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list tickets: %w", err)
		}
		t := doc.Ticket
		out = append(out, &t)
	}
	return out, cur.Err()
}

// EventsByEntity reads the audit trail for one entity, oldest first.
func (g *Gateway) EventsByEntity(ctx context.Context, entity domain.EntityType, id string) ([]*domain.TransitionEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"entity_type": string(entity), "entity_id": id}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})

	cur, err := g.db.Collection(collectionEvents).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("events lookup: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.TransitionEvent
	for cur.Next(ctx) {
		var e domain.TransitionEvent
		if err := cur.Decode(&e); err != nil {
			return nil, fmt.Errorf("events lookup: %w", err)
		}
		ev := e
		out = append(out, &ev)
	}
	return out, cur.Err()
}

func (g *Gateway) findBookings(ctx context.Context, q bson.M) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := g.db.Collection(collectionBookings).Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Booking
	for cur.Next(ctx) {
		var doc bookingDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list bookings: %w", err)
		}
		b := doc.Booking
		out = append(out, &b)
	}
	return out, cur.Err()
}

func (g *Gateway) findLeases(ctx context.Context, q bson.M) ([]*domain.Lease, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := g.db.Collection(collectionLeases).Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list leases: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Lease
	for cur.Next(ctx) {
		var doc leaseDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list leases: %w", err)
		}
		l := doc.Lease
		out = append(out, &l)
	}
	return out, cur.Err()
}

func (g *Gateway) findPayments(ctx context.Context, q bson.M, opts *options.FindOptions) ([]*domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	col := g.db.Collection(collectionPayments)
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = col.Find(ctx, q, opts)
	} else {
		cur, err = col.Find(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Payment
	for cur.Next(ctx) {
		var doc paymentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list payments: %w", err)
		}
		p := doc.Payment
		out = append(out, &p)
	}
	return out, cur.Err()
}
