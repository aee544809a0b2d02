package service

import (
	"context"
	"errors"
	"testing"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
	"github.com/zsea1234/ZhiWU-sub000/internal/core/ports"
)

func newBookingFixture() (*stubGateway, *stubDispatcher, *BookingService) {
	gw := newStubGateway()
	disp := &stubDispatcher{}
	coord := NewCoordinator(gw, discardLogger)
	svc := NewBookingService(gw, NewGuard(), coord, disp, discardLogger)
	return gw, disp, svc
}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

func TestBookingService_Request_Success(t *testing.T) {
	gw, disp, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))

	booking, err := svc.Request(context.Background(), tenant, ports.CreateBookingInput{
		PropertyID:  "prop_1",
		RequestedAt: pendingBooking("x", "prop_1").RequestedAt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != domain.BookingPendingConfirmation {
		t.Errorf("expected status %q, got %q", domain.BookingPendingConfirmation, booking.Status)
	}
	if booking.LandlordID != landlord.ID {
		t.Errorf("landlord must be derived from the property, got %q", booking.LandlordID)
	}
	if len(disp.enqueued) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(disp.enqueued))
	}
	if disp.enqueued[0].Transition != domain.TransitionBookingRequest {
		t.Errorf("expected request event, got %q", disp.enqueued[0].Transition)
	}
}

func TestBookingService_Request_UnverifiedProperty(t *testing.T) {
	gw, _, svc := newBookingFixture()
	prop := vacantProperty("prop_1")
	prop.Verified = false
	prop.Availability = domain.PropertyPendingApproval
	gw.seedProperty(prop)

	_, err := svc.Request(context.Background(), tenant, ports.CreateBookingInput{
		PropertyID:  "prop_1",
		RequestedAt: pendingBooking("x", "prop_1").RequestedAt,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBookingService_Request_RentedProperty(t *testing.T) {
	gw, _, svc := newBookingFixture()
	prop := vacantProperty("prop_1")
	prop.Availability = domain.PropertyRented
	gw.seedProperty(prop)

	_, err := svc.Request(context.Background(), tenant, ports.CreateBookingInput{
		PropertyID:  "prop_1",
		RequestedAt: pendingBooking("x", "prop_1").RequestedAt,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBookingService_Request_LandlordDenied(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))

	_, err := svc.Request(context.Background(), landlord, ports.CreateBookingInput{
		PropertyID:  "prop_1",
		RequestedAt: pendingBooking("x", "prop_1").RequestedAt,
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

func TestBookingService_Confirm_CreatesDraftLease(t *testing.T) {
	gw, disp, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	res, err := svc.Confirm(context.Background(), landlord, "book_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != string(domain.BookingConfirmed) {
		t.Errorf("expected state %q, got %q", domain.BookingConfirmed, res.State)
	}

	leases, _ := gw.LeasesByTenantAndProperty(context.Background(), tenant.ID, "prop_1")
	if len(leases) != 1 {
		t.Fatalf("expected 1 draft lease, got %d", len(leases))
	}
	if leases[0].Status != domain.LeaseDraft {
		t.Errorf("expected draft lease, got %q", leases[0].Status)
	}
	if leases[0].BookingID != "book_1" {
		t.Errorf("lease must reference the booking, got %q", leases[0].BookingID)
	}
	if leases[0].MonthlyRent != 900 {
		t.Errorf("lease rent must default from the listing, got %v", leases[0].MonthlyRent)
	}
	if len(disp.enqueued) != 2 {
		t.Errorf("expected booking and lease events, got %d", len(disp.enqueued))
	}
}

func TestBookingService_Confirm_ByTenantDenied(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	_, err := svc.Confirm(context.Background(), tenant, "book_1")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBookingService_Confirm_ByOtherLandlordDenied(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	other := domain.Actor{ID: "landlord_2", Role: domain.RoleLandlord}
	_, err := svc.Confirm(context.Background(), other, "book_1")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBookingService_Confirm_Twice(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedProperty(vacantProperty("prop_1"))
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	if _, err := svc.Confirm(context.Background(), landlord, "book_1"); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	_, err := svc.Confirm(context.Background(), landlord, "book_1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second confirm, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Cancel / Complete / Expire
// ---------------------------------------------------------------------------

func TestBookingService_Cancel_ByTenant(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	res, err := svc.Cancel(context.Background(), tenant, "book_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != string(domain.BookingCancelledByTenant) {
		t.Errorf("expected %q, got %q", domain.BookingCancelledByTenant, res.State)
	}
}

func TestBookingService_Cancel_ByOtherTenantDenied(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	other := domain.Actor{ID: "tenant_2", Role: domain.RoleTenant}
	_, err := svc.Cancel(context.Background(), other, "book_1")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBookingService_Cancel_TenantAfterConfirmation(t *testing.T) {
	gw, _, svc := newBookingFixture()
	b := pendingBooking("book_1", "prop_1")
	b.Status = domain.BookingConfirmed
	gw.seedBooking(b)

	_, err := svc.Cancel(context.Background(), tenant, "book_1")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBookingService_Cancel_LandlordAfterConfirmation(t *testing.T) {
	gw, _, svc := newBookingFixture()
	b := pendingBooking("book_1", "prop_1")
	b.Status = domain.BookingConfirmed
	gw.seedBooking(b)

	res, err := svc.Cancel(context.Background(), landlord, "book_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != string(domain.BookingCancelledByLandlord) {
		t.Errorf("expected %q, got %q", domain.BookingCancelledByLandlord, res.State)
	}
}

func TestBookingService_Complete_FromConfirmed(t *testing.T) {
	gw, _, svc := newBookingFixture()
	b := pendingBooking("book_1", "prop_1")
	b.Status = domain.BookingConfirmed
	gw.seedBooking(b)

	res, err := svc.Complete(context.Background(), landlord, "book_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != string(domain.BookingCompleted) {
		t.Errorf("expected %q, got %q", domain.BookingCompleted, res.State)
	}
}

func TestBookingService_Expire_RequiresAdmin(t *testing.T) {
	gw, _, svc := newBookingFixture()
	gw.seedBooking(pendingBooking("book_1", "prop_1"))

	if _, err := svc.Expire(context.Background(), tenant, "book_1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tenant, got %v", err)
	}

	res, err := svc.Expire(context.Background(), domain.SystemActor, "book_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.State != string(domain.BookingExpired) {
		t.Errorf("expected %q, got %q", domain.BookingExpired, res.State)
	}
}

func TestBookingService_Get_NotFound(t *testing.T) {
	_, _, svc := newBookingFixture()
	_, err := svc.Get(context.Background(), admin, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
