package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsedDaysTruncates(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ElapsedDays(now.Add(-23*time.Hour), now))
	assert.Equal(t, 1, ElapsedDays(now.Add(-25*time.Hour), now))
	assert.Equal(t, 7, ElapsedDays(now.AddDate(0, 0, -7), now))
	assert.Equal(t, 7, ElapsedDays(now.AddDate(0, 0, -8).Add(time.Minute), now))
}

func TestElapsedDaysComparesInUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	borrowed := now.AddDate(0, 0, -3).In(loc)

	assert.Equal(t, 3, ElapsedDays(borrowed, now))
}

func TestAssess(t *testing.T) {
	policy := DefaultFinePolicy()
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		borrowedAt  time.Time
		overdueDays int
		fine        float64
	}{
		{"same day", now.Add(-time.Hour), 0, 0},
		{"exactly the borrowing period", now.AddDate(0, 0, -7), 0, 0},
		{"one day late", now.AddDate(0, 0, -8), 1, 2.0},
		{"seventeen days out", now.AddDate(0, 0, -17), 10, 20.0},
		{"borrow date in the future", now.Add(48 * time.Hour), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, fine := policy.Assess(tt.borrowedAt, now)
			assert.Equal(t, tt.overdueDays, days)
			assert.Equal(t, tt.fine, fine)
		})
	}
}

func TestAssessUsesConfiguredRate(t *testing.T) {
	policy := FinePolicy{BorrowingPeriodDays: 14, FineRatePerDay: 0.5}
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	days, fine := policy.Assess(now.AddDate(0, 0, -20), now)
	assert.Equal(t, 6, days)
	assert.Equal(t, 3.0, fine)
}
