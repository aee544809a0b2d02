package domain

import (
	"fmt"
	"time"
)

// Availability is the listing state of a property.
type Availability string

const (
	PropertyPendingApproval  Availability = "pending_approval"
	PropertyVacant           Availability = "vacant"
	PropertyRented           Availability = "rented"
	PropertyUnderMaintenance Availability = "under_maintenance"
	PropertyDelisted         Availability = "delisted"
)

// Property transitions. Rented is entered and left only by the coordinator as
// part of a lease activation or release, never by a direct property call.
const (
	TransitionPropertyList             = "list"
	TransitionPropertyVerify           = "verify"
	TransitionPropertyDelist           = "delist"
	TransitionPropertyRelist           = "relist"
	TransitionPropertyBeginMaintenance = "begin_maintenance"
	TransitionPropertyEndMaintenance   = "end_maintenance"
	TransitionPropertyLock             = "lock"
	TransitionPropertyRelease          = "release"
)

// Property is a rentable unit owned by a landlord.
//
// Invariant: at most one lease in state active references a property, and
// Availability == rented exactly when such a lease exists.
type Property struct {
	ID           string       `json:"id" bson:"_id,omitempty"`
	LandlordID   string       `json:"landlord_id" bson:"landlord_id"`
	Title        string       `json:"title" bson:"title"`
	Address      string       `json:"address" bson:"address"`
	City         string       `json:"city" bson:"city"`
	MonthlyRent  float64      `json:"monthly_rent" bson:"monthly_rent"`
	Verified     bool         `json:"verified" bson:"verified"`
	Availability Availability `json:"availability" bson:"availability"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

// Verify approves a freshly listed property and opens it for bookings.
func (p *Property) Verify(now time.Time) error {
	if p.Availability != PropertyPendingApproval {
		return fmt.Errorf("%w: verify property from %s", ErrInvalidTransition, p.Availability)
	}
	p.Verified = true
	p.Availability = PropertyVacant
	p.UpdatedAt = now.UTC()
	return nil
}

// Delist removes the property from circulation. Not legal while rented.
func (p *Property) Delist(now time.Time) error {
	if p.Availability != PropertyVacant && p.Availability != PropertyUnderMaintenance {
		return fmt.Errorf("%w: delist property from %s", ErrInvalidTransition, p.Availability)
	}
	p.Availability = PropertyDelisted
	p.UpdatedAt = now.UTC()
	return nil
}

// Relist returns a delisted property to vacant.
func (p *Property) Relist(now time.Time) error {
	if p.Availability != PropertyDelisted {
		return fmt.Errorf("%w: relist property from %s", ErrInvalidTransition, p.Availability)
	}
	p.Availability = PropertyVacant
	p.UpdatedAt = now.UTC()
	return nil
}

// BeginMaintenance takes a vacant property offline for repairs.
func (p *Property) BeginMaintenance(now time.Time) error {
	if p.Availability != PropertyVacant {
		return fmt.Errorf("%w: begin maintenance from %s", ErrInvalidTransition, p.Availability)
	}
	p.Availability = PropertyUnderMaintenance
	p.UpdatedAt = now.UTC()
	return nil
}

// EndMaintenance returns the property to vacant.
func (p *Property) EndMaintenance(now time.Time) error {
	if p.Availability != PropertyUnderMaintenance {
		return fmt.Errorf("%w: end maintenance from %s", ErrInvalidTransition, p.Availability)
	}
	p.Availability = PropertyVacant
	p.UpdatedAt = now.UTC()
	return nil
}

// Lock marks the property rented when its lease activates. Coordinator only.
func (p *Property) Lock(now time.Time) error {
	if p.Availability != PropertyVacant {
		return fmt.Errorf("%w: property %s is %s, not vacant", ErrConflict, p.ID, p.Availability)
	}
	p.Availability = PropertyRented
	p.UpdatedAt = now.UTC()
	return nil
}

// Release reverts a rented property to vacant when its lease ends.
func (p *Property) Release(now time.Time) error {
	if p.Availability != PropertyRented {
		return fmt.Errorf("%w: release property from %s", ErrInvalidTransition, p.Availability)
	}
	p.Availability = PropertyVacant
	p.UpdatedAt = now.UTC()
	return nil
}
