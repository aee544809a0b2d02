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

const (
	collectionProperties = "properties"
	collectionBookings   = "bookings"
	collectionLeases     = "leases"
	collectionPayments   = "payments"
	collectionTickets    = "maintenance_tickets"
	collectionEvents     = "transition_events"
)

const defaultTimeout = 5 * time.Second

// Gateway implements ports.Gateway on MongoDB. Snapshots carry a version
// field incremented on every write; Commit applies all writes of a
// transaction inside a mongo session so a stale version anywhere aborts the
// whole batch.
type Gateway struct {
	db *mongo.Database
}

// NewGateway creates a Gateway over the given database.
func NewGateway(db *mongo.Database) *Gateway {
	return &Gateway{db: db}
}

func (g *Gateway) collectionFor(entity domain.EntityType) (*mongo.Collection, error) {
	switch entity {
	case domain.EntityProperty:
		return g.db.Collection(collectionProperties), nil
	case domain.EntityBooking:
		return g.db.Collection(collectionBookings), nil
	case domain.EntityLease:
		return g.db.Collection(collectionLeases), nil
	case domain.EntityPayment:
		return g.db.Collection(collectionPayments), nil
	case domain.EntityTicket:
		return g.db.Collection(collectionTickets), nil
	}
	return nil, fmt.Errorf("%w: unknown entity type %q", domain.ErrValidation, entity)
}

// --- Snapshot documents -----------------------------------------------------

type propertyDoc struct {
	Property domain.Property `bson:",inline"`
	Version  int64           `bson:"version"`
}

type bookingDoc struct {
	Booking domain.Booking `bson:",inline"`
	Version int64          `bson:"version"`
}

type leaseDoc struct {
	Lease   domain.Lease `bson:",inline"`
	Version int64        `bson:"version"`
}

type paymentDoc struct {
	Payment domain.Payment `bson:",inline"`
	Version int64          `bson:"version"`
}

type ticketDoc struct {
	Ticket  domain.MaintenanceTicket `bson:",inline"`
	Version int64                    `bson:"version"`
}

// --- Loads ------------------------------------------------------------------

func (g *Gateway) LoadProperty(ctx context.Context, id string) (*domain.Property, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc propertyDoc
	if err := g.db.Collection(collectionProperties).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, 0, mapFindErr(err, domain.EntityProperty, id)
	}
	return &doc.Property, doc.Version, nil
}

func (g *Gateway) LoadBooking(ctx context.Context, id string) (*domain.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bookingDoc
	if err := g.db.Collection(collectionBookings).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, 0, mapFindErr(err, domain.EntityBooking, id)
	}
	return &doc.Booking, doc.Version, nil
}

func (g *Gateway) LoadLease(ctx context.Context, id string) (*domain.Lease, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc leaseDoc
	if err := g.db.Collection(collectionLeases).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, 0, mapFindErr(err, domain.EntityLease, id)
	}
	return &doc.Lease, doc.Version, nil
}

func (g *Gateway) LoadPayment(ctx context.Context, id string) (*domain.Payment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc paymentDoc
	if err := g.db.Collection(collectionPayments).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, 0, mapFindErr(err, domain.EntityPayment, id)
	}
	return &doc.Payment, doc.Version, nil
}

func (g *Gateway) LoadTicket(ctx context.Context, id string) (*domain.MaintenanceTicket, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc ticketDoc
	if err := g.db.Collection(collectionTickets).FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, 0, mapFindErr(err, domain.EntityTicket, id)
	}
	return &doc.Ticket, doc.Version, nil
}

func mapFindErr(err error, entity domain.EntityType, id string) error {
	if err == mongo.ErrNoDocuments {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

// --- Commit -----------------------------------------------------------------

// Commit applies every write of tx under its expected version and appends the
// events, all inside one mongo transaction. Any stale version or uniqueness
// violation aborts the batch with domain.ErrConflict.
func (g *Gateway) Commit(ctx context.Context, tx *ports.Tx) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sess, err := g.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("commit: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for i := range tx.Writes {
			if err := g.applyWrite(sc, &tx.Writes[i]); err != nil {
				return nil, err
			}
		}
		if len(tx.Events) > 0 {
			docs := make([]interface{}, len(tx.Events))
			for i, e := range tx.Events {
				docs[i] = e
			}
			if _, err := g.db.Collection(collectionEvents).InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("append events: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

func (g *Gateway) applyWrite(ctx context.Context, w *ports.Write) error {
	col, err := g.collectionFor(w.Entity)
	if err != nil {
		return err
	}

	raw, err := bson.Marshal(w.State)
	if err != nil {
		return fmt.Errorf("marshal %s %s: %w", w.Entity, w.ID, err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("marshal %s %s: %w", w.Entity, w.ID, err)
	}
	doc["_id"] = w.ID
	doc["version"] = w.Version + 1

	if w.Version == 0 {
		if _, err := col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s %s violates a uniqueness constraint", domain.ErrConflict, w.Entity, w.ID)
			}
			return fmt.Errorf("insert %s %s: %w", w.Entity, w.ID, err)
		}
		return nil
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": w.ID, "version": w.Version}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s %s violates a uniqueness constraint", domain.ErrConflict, w.Entity, w.ID)
		}
		return fmt.Errorf("update %s %s: %w", w.Entity, w.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s %s version %d is stale", domain.ErrConflict, w.Entity, w.ID, w.Version)
	}
	return nil
}

// EnsureIndexes creates the indexes backing the engine's invariants: one
// active lease per property (partial unique), one payment per (lease,
// period), and the scheduler's due-date scans.
func (g *Gateway) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := g.db.Collection(collectionLeases).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "property_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": string(domain.LeaseActive)}),
	})
	if err != nil {
		return fmt.Errorf("lease index: %w", err)
	}

	_, err = g.db.Collection(collectionPayments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "lease_id", Value: 1}, {Key: "period", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("payment index: %w", err)
	}

	secondary := map[string][]mongo.IndexModel{
		collectionProperties: {
			{Keys: bson.D{{Key: "landlord_id", Value: 1}}},
		},
		collectionBookings: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "requested_at", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "landlord_id", Value: 1}}},
		},
		collectionLeases: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "end_date", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "property_id", Value: 1}}},
		},
		collectionPayments: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		},
		collectionTickets: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
			{Keys: bson.D{{Key: "landlord_id", Value: 1}}},
		},
		collectionEvents: {
			{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		},
	}
	for name, models := range secondary {
		if _, err := g.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s indexes: %w", name, err)
		}
	}
	return nil
}
