package domain

import (
	"fmt"
	"time"
)

// PaymentStatus represents the lifecycle state of a rent payment.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// Payment transitions.
const (
	TransitionPaymentGenerate    = "generate"
	TransitionPaymentPay         = "pay"
	TransitionPaymentConfirm     = "confirm"
	TransitionPaymentFail        = "fail"
	TransitionPaymentRefund      = "refund"
	TransitionPaymentMarkOverdue = "mark_overdue"
)

// paymentTransitions defines the allowed state machine transitions.
// Failed payments may retry back into processing.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing},
	PaymentProcessing: {PaymentSuccessful, PaymentFailed},
	PaymentFailed:     {PaymentProcessing},
	PaymentSuccessful: {PaymentRefunded},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment is one billing-cycle obligation of a lease, keyed by the natural
// key (lease id, period) so regeneration for a period is a no-op. Overdue is
// not a payment state: multiple payments can be overdue at once and the
// consequence is the boolean escalation flag on the lease.
type Payment struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	LeaseID   string        `json:"lease_id" bson:"lease_id"`
	Period    string        `json:"period" bson:"period"`
	Amount    float64       `json:"amount" bson:"amount"`
	DueDate   time.Time     `json:"due_date" bson:"due_date"`
	Status    PaymentStatus `json:"status" bson:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

func (p *Payment) apply(next PaymentStatus, transition string, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: payment %s from %s", ErrInvalidTransition, transition, p.Status)
	}
	p.Status = next
	p.UpdatedAt = now.UTC()
	return nil
}

// StartProcessing begins (or retries) collection of the payment.
func (p *Payment) StartProcessing(now time.Time) error {
	return p.apply(PaymentProcessing, TransitionPaymentPay, now)
}

// MarkSuccessful records gateway confirmation.
func (p *Payment) MarkSuccessful(now time.Time) error {
	if err := p.apply(PaymentSuccessful, TransitionPaymentConfirm, now); err != nil {
		return err
	}
	ts := now.UTC()
	p.PaidAt = &ts
	return nil
}

// MarkFailed records a gateway failure; the payment may retry.
func (p *Payment) MarkFailed(now time.Time) error {
	return p.apply(PaymentFailed, TransitionPaymentFail, now)
}

// Refund reverses a successful payment.
func (p *Payment) Refund(now time.Time) error {
	return p.apply(PaymentRefunded, TransitionPaymentRefund, now)
}

// Overdue reports whether the payment is past due and still unpaid.
func (p *Payment) Overdue(now time.Time) bool {
	return p.Status == PaymentPending && now.After(p.DueDate)
}
