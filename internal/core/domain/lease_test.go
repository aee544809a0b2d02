package domain

import (
	"errors"
	"testing"
	"time"
)

func draftLease() *Lease {
	now := time.Now().UTC()
	return &Lease{
		ID:            "lease_1",
		PropertyID:    "prop_1",
		TenantID:      "tenant_1",
		LandlordID:    "landlord_1",
		StartDate:     now,
		EndDate:       now.AddDate(1, 0, 0),
		MonthlyRent:   900,
		PaymentDueDay: 5,
		Status:        LeaseDraft,
	}
}

func TestLease_SignatureOrder(t *testing.T) {
	now := time.Now().UTC()
	l := draftLease()

	if err := l.SignLandlord(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("landlord may not sign a draft, got %v", err)
	}

	if err := l.Finalize(now); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if err := l.SignLandlord(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("landlord may not sign before the tenant, got %v", err)
	}

	if err := l.SignTenant(now); err != nil {
		t.Fatalf("tenant sign failed: %v", err)
	}
	if l.TenantSignedAt == nil {
		t.Error("tenant signature timestamp must be recorded")
	}

	if err := l.SignLandlord(now); err != nil {
		t.Fatalf("landlord sign failed: %v", err)
	}
	if l.Status != LeaseActive {
		t.Errorf("expected %q, got %q", LeaseActive, l.Status)
	}
	if l.LandlordSignedAt == nil {
		t.Error("landlord signature timestamp must be recorded")
	}
}

func TestLease_Finalize_Validation(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name   string
		mutate func(*Lease)
	}{
		{"zero rent", func(l *Lease) { l.MonthlyRent = 0 }},
		{"start after end", func(l *Lease) { l.StartDate = l.EndDate.AddDate(0, 1, 0) }},
		{"due day too high", func(l *Lease) { l.PaymentDueDay = 29 }},
		{"due day zero", func(l *Lease) { l.PaymentDueDay = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := draftLease()
			tc.mutate(l)
			if err := l.Finalize(now); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestLease_Terminate(t *testing.T) {
	now := time.Now().UTC()
	l := draftLease()
	l.Status = LeaseActive
	l.PaymentDue = true

	if err := l.Terminate("", now, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("reason is mandatory, got %v", err)
	}
	if err := l.Terminate("sold the unit", time.Time{}, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("date is mandatory, got %v", err)
	}

	if err := l.Terminate("sold the unit", now, now); err != nil {
		t.Fatalf("terminate failed: %v", err)
	}
	if l.Status != LeaseTerminatedEarly {
		t.Errorf("expected %q, got %q", LeaseTerminatedEarly, l.Status)
	}
	if l.PaymentDue {
		t.Error("escalation flag must drop when the lease ends")
	}
	if l.TerminatedAt == nil || l.TerminationReason == "" {
		t.Error("termination details must be recorded")
	}
}

func TestLease_TerminalStates(t *testing.T) {
	if !LeaseExpired.Terminal() || !LeaseTerminatedEarly.Terminal() {
		t.Error("expired and terminated are terminal")
	}
	if LeaseActive.Terminal() {
		t.Error("active is not terminal")
	}
}

func TestPeriodFor(t *testing.T) {
	ts := time.Date(2026, time.March, 31, 23, 30, 0, 0, time.UTC)
	if got := PeriodFor(ts); got != "2026-03" {
		t.Errorf("expected 2026-03, got %q", got)
	}
}

func TestLease_DueDateFor(t *testing.T) {
	l := draftLease()
	due, err := l.DueDateFor("2026-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Errorf("expected %v, got %v", want, due)
	}

	if _, err := l.DueDateFor("not-a-period"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
