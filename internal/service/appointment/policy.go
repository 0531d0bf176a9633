package appointment

import (
	"time"

	"github.com/ayursutra/booking-api/internal/model"
)

// CancelPolicy decides whether an appointment may be cancelled and how much of
// the payment comes back. Pure functions of appointment state and a clock
// reading; the service persists the outcome.
type CancelPolicy struct {
	// Location is the clinic time zone used to compose scheduledDate with the
	// start clock time. The same zone is applied to both sides of the gap.
	Location *time.Location
	// NoticeHours is the minimum gap required to cancel at all (and the floor
	// of the half-refund tier).
	NoticeHours int
	// FullRefundHours is the gap at or above which the refund is the full amount.
	FullRefundHours int
}

func DefaultCancelPolicy(loc *time.Location) CancelPolicy {
	return CancelPolicy{Location: loc, NoticeHours: 24, FullRefundHours: 48}
}

// CanCancel is true iff the appointment is still in a cancellable status and
// starts at least NoticeHours from now.
func (p CancelPolicy) CanCancel(apt *model.Appointment, now time.Time) bool {
	switch apt.Status {
	case model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed:
	default:
		return false
	}
	return p.hoursUntil(apt, now) >= float64(p.NoticeHours)
}

// RefundAmount is a step function on the hours remaining until the session:
// the full payment at >= FullRefundHours, half at >= NoticeHours, else zero.
// Boundaries belong to the higher tier.
func (p CancelPolicy) RefundAmount(apt *model.Appointment, now time.Time) float64 {
	if !p.CanCancel(apt, now) {
		return 0
	}
	hours := p.hoursUntil(apt, now)
	switch {
	case hours >= float64(p.FullRefundHours):
		return apt.PaymentAmount
	case hours >= float64(p.NoticeHours):
		return apt.PaymentAmount * 0.5
	default:
		return 0
	}
}

func (p CancelPolicy) hoursUntil(apt *model.Appointment, now time.Time) float64 {
	return apt.StartsAt(p.Location).Sub(now).Hours()
}
