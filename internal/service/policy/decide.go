package policy

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-StayBookingService/internal/domain"
)

// Decide применяет политику отмены к бронированию на момент now.
// Функция чистая: одинаковые входные данные всегда дают одинаковое решение.
// requestedMode == nil означает режим политики по умолчанию.
// actor входит в снимок решения, но в этой версии на расчет не влияет.
func Decide(
	now time.Time,
	actor domain.Actor,
	booking *domain.Booking,
	policy *domain.CancellationPolicy,
	requestedMode *domain.CancellationMode,
) (*domain.Decision, error) {
	// 1. Время до заезда
	hours := booking.CheckIn.Sub(now).Hours()
	if hours < 0 {
		return nil, fmt.Errorf("%w: check-in %s passed %.1fh ago",
			domain.ErrCancellationWindowClosed, booking.CheckIn.Format(domain.DateFormat), -hours)
	}

	total := booking.TotalAmount
	if total < 0 {
		total = 0
	}

	// 2. Ступень
	tier := selectTier(hours, policy)

	// 3. Штраф
	var penalty int64
	switch tier {
	case domain.TierFree:
		penalty = 0
	case domain.TierPartial:
		penalty = computePenalty(total, nightsOf(booking), policy)
	default:
		penalty = total
		if policy.ChargeFirstNightOnLateCancel {
			penalty = min(total, nightlyShare(total, nightsOf(booking)))
		}
	}

	// 4. Возврат всегда дополняет штраф до суммы бронирования
	penalty = clamp(penalty, 0, total)
	refundable := total - penalty

	// 5. Режим
	mode := policy.DefaultMode
	if requestedMode != nil {
		mode = *requestedMode
	}
	if !mode.Valid() {
		mode = domain.ModeSoft
	}

	return &domain.Decision{
		Tier:              tier,
		Mode:              mode,
		TotalAmount:       total,
		PenaltyAmount:     penalty,
		RefundableAmount:  refundable,
		Currency:          booking.Currency,
		ReleasesInventory: true,
		PolicyVersion:     policy.Version,
		HoursToCheckIn:    hours,
	}, nil
}

func selectTier(hours float64, p *domain.CancellationPolicy) domain.RefundTier {
	free := max(p.FreeCancelBeforeHours, 0)
	partial := max(p.PartialRefundBeforeHours, 0)

	switch {
	case hours >= float64(free):
		return domain.TierFree
	case hours >= float64(partial):
		return domain.TierPartial
	default:
		return domain.TierNoRefund
	}
}

// computePenalty штраф для ступени PARTIAL
func computePenalty(total int64, nights int, p *domain.CancellationPolicy) int64 {
	switch p.PenaltyModel {
	case domain.PenaltyFixedFee:
		return min(p.PenaltyValue, total)
	case domain.PenaltyPercentOfTotal:
		return min(percentOf(total, p.PenaltyValue), total)
	case domain.PenaltyPercentOfNights:
		// ночь приближенно стоит floor(total/nights)
		bucket := nightlyShare(total, nights) * int64(nights)
		return min(percentOf(bucket, p.PenaltyValue), total)
	default:
		return 0
	}
}

func nightsOf(b *domain.Booking) int {
	if b.Nights > 0 {
		return b.Nights
	}
	if n := b.Range().Nights(); n > 0 {
		return n
	}
	return 1
}

func nightlyShare(total int64, nights int) int64 {
	if nights <= 0 {
		return total
	}
	return total / int64(nights)
}

// percentOf round(amount × percent / 100), половина округляется вверх
func percentOf(amount, percent int64) int64 {
	if amount <= 0 || percent <= 0 {
		return 0
	}
	return (amount*percent + 50) / 100
}

func clamp(v, lo, hi int64) int64 {
	return max(lo, min(v, hi))
}
