package domain

import "time"

const (
	DefaultBorrowingPeriodDays = 7
	DefaultFineRatePerDay      = 2.0
)

// FinePolicy turns the time a book was out into an overdue fine.
type FinePolicy struct {
	BorrowingPeriodDays int
	FineRatePerDay      float64
}

func DefaultFinePolicy() FinePolicy {
	return FinePolicy{
		BorrowingPeriodDays: DefaultBorrowingPeriodDays,
		FineRatePerDay:      DefaultFineRatePerDay,
	}
}

// ElapsedDays counts whole days between borrowedAt and now, truncated
// toward zero. Both instants are compared in UTC.
func ElapsedDays(borrowedAt, now time.Time) int {
	return int(now.UTC().Sub(borrowedAt.UTC()) / (24 * time.Hour))
}

// Assess returns the overdue days and the fine for a book borrowed at
// borrowedAt and returned at now.
func (p FinePolicy) Assess(borrowedAt, now time.Time) (overdueDays int, fine float64) {
	overdueDays = ElapsedDays(borrowedAt, now) - p.BorrowingPeriodDays
	if overdueDays <= 0 {
		return 0, 0
	}
	return overdueDays, float64(overdueDays) * p.FineRatePerDay
}
