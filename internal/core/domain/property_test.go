package domain

import (
	"errors"
	"testing"
	"time"
)

func listedProperty() *Property {
	return &Property{
		ID:           "prop_1",
		LandlordID:   "landlord_1",
		Title:        "2BR apartment",
		Availability: PropertyPendingApproval,
	}
}

func TestProperty_VerifyOpensForBooking(t *testing.T) {
	now := time.Now().UTC()
	p := listedProperty()

	if err := p.Verify(now); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !p.Verified || p.Availability != PropertyVacant {
		t.Errorf("expected verified vacant, got verified=%v %q", p.Verified, p.Availability)
	}

	if err := p.Verify(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double verify must fail, got %v", err)
	}
}

func TestProperty_DelistRules(t *testing.T) {
	now := time.Now().UTC()

	p := listedProperty()
	p.Availability = PropertyRented
	if err := p.Delist(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("a rented property cannot be delisted, got %v", err)
	}

	p.Availability = PropertyUnderMaintenance
	if err := p.Delist(now); err != nil {
		t.Fatalf("delist from maintenance failed: %v", err)
	}
	if err := p.Relist(now); err != nil {
		t.Fatalf("relist failed: %v", err)
	}
	if p.Availability != PropertyVacant {
		t.Errorf("expected %q, got %q", PropertyVacant, p.Availability)
	}
}

func TestProperty_LockOnlyWhenVacant(t *testing.T) {
	now := time.Now().UTC()
	p := listedProperty()
	p.Availability = PropertyVacant

	if err := p.Lock(now); err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if p.Availability != PropertyRented {
		t.Errorf("expected %q, got %q", PropertyRented, p.Availability)
	}

	// A second lock races against the first and must surface as a conflict.
	if err := p.Lock(now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := p.Release(now); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if p.Availability != PropertyVacant {
		t.Errorf("expected %q, got %q", PropertyVacant, p.Availability)
	}
	if err := p.Release(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double release must fail, got %v", err)
	}
}
