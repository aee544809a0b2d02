package service

import (
	"fmt"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// capability is one (role, entity type, transition) cell of the matrix.
type capability struct {
	role       domain.Role
	entity     domain.EntityType
	transition string
}

// Ownership carries the entity references the ownership predicate checks the
// actor against. Zero fields are simply never matched.
type Ownership struct {
	TenantID   string
	LandlordID string
}

// Guard is the authorization matrix consulted before any transition function
// runs. Admin bypasses the ownership predicate but never the capability
// lookup or the state-machine legality check that follows it.
type Guard struct {
	allowed map[capability]struct{}
}

// NewGuard builds the guard with the full capability matrix.
func NewGuard() *Guard {
	g := &Guard{allowed: make(map[capability]struct{})}

	grant := func(entity domain.EntityType, transition string, roles ...domain.Role) {
		for _, r := range roles {
			g.allowed[capability{role: r, entity: entity, transition: transition}] = struct{}{}
		}
	}

	// Property lifecycle. Lock/release are coordinator-internal and have no
	// externally grantable capability.
	grant(domain.EntityProperty, domain.TransitionPropertyList, domain.RoleLandlord)
	grant(domain.EntityProperty, domain.TransitionPropertyVerify, domain.RoleAdmin)
	grant(domain.EntityProperty, domain.TransitionPropertyDelist, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityProperty, domain.TransitionPropertyRelist, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityProperty, domain.TransitionPropertyBeginMaintenance, domain.RoleLandlord)
	grant(domain.EntityProperty, domain.TransitionPropertyEndMaintenance, domain.RoleLandlord)

	grant(domain.EntityBooking, domain.TransitionBookingRequest, domain.RoleTenant)
	grant(domain.EntityBooking, domain.TransitionBookingConfirm, domain.RoleLandlord)
	grant(domain.EntityBooking, domain.TransitionBookingCancel, domain.RoleTenant, domain.RoleLandlord)
	grant(domain.EntityBooking, domain.TransitionBookingComplete, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityBooking, domain.TransitionBookingExpire, domain.RoleAdmin)

	grant(domain.EntityLease, domain.TransitionLeaseDraft, domain.RoleAdmin)
	grant(domain.EntityLease, domain.TransitionLeaseFinalize, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityLease, domain.TransitionLeaseSign, domain.RoleTenant, domain.RoleLandlord)
	grant(domain.EntityLease, domain.TransitionLeaseTerminate, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityLease, domain.TransitionLeaseExpire, domain.RoleAdmin)

	grant(domain.EntityPayment, domain.TransitionPaymentPay, domain.RoleTenant)
	grant(domain.EntityPayment, domain.TransitionPaymentConfirm, domain.RoleAdmin)
	grant(domain.EntityPayment, domain.TransitionPaymentFail, domain.RoleAdmin)
	grant(domain.EntityPayment, domain.TransitionPaymentRefund, domain.RoleAdmin)
	grant(domain.EntityPayment, domain.TransitionPaymentMarkOverdue, domain.RoleAdmin)

	grant(domain.EntityTicket, domain.TransitionTicketOpen, domain.RoleTenant)
	grant(domain.EntityTicket, domain.TransitionTicketAssign, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityTicket, domain.TransitionTicketStart, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityTicket, domain.TransitionTicketComplete, domain.RoleLandlord, domain.RoleAdmin)
	grant(domain.EntityTicket, domain.TransitionTicketCancel, domain.RoleTenant)
	grant(domain.EntityTicket, domain.TransitionTicketClose, domain.RoleLandlord, domain.RoleAdmin)

	return g
}

// Authorize checks the capability matrix and, for non-admin actors, the
// ownership predicate. A denial is domain.ErrUnauthorized.
func (g *Guard) Authorize(actor domain.Actor, entity domain.EntityType, transition string, own Ownership) error {
	if _, ok := g.allowed[capability{role: actor.Role, entity: entity, transition: transition}]; !ok {
		return fmt.Errorf("%w: role %s may not %s a %s", domain.ErrUnauthorized, actor.Role, transition, entity)
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}

	switch actor.Role {
	case domain.RoleTenant:
		if own.TenantID != actor.ID {
			return fmt.Errorf("%w: actor is not the tenant on this %s", domain.ErrUnauthorized, entity)
		}
	case domain.RoleLandlord:
		if own.LandlordID != actor.ID {
			return fmt.Errorf("%w: actor is not the landlord on this %s", domain.ErrUnauthorized, entity)
		}
	}
	return nil
}

// CanRead reports whether the actor may view an entity with the given
// ownership. Reads are scoped, not matrixed: admins see everything, others
// see their own.
func (g *Guard) CanRead(actor domain.Actor, own Ownership) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleTenant:
		return own.TenantID == actor.ID
	case domain.RoleLandlord:
		return own.LandlordID == actor.ID
	}
	return false
}
