package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatterAmountGroupsAndSuffixes(t *testing.T) {
	f := NewFormatter("en", "NGN")

	assert.Equal(t, "1,234,567.5 NGN", f.Amount(1234567.5))
	assert.Equal(t, "0 NGN", f.Amount(0))
}

func TestFormatterAmountWithoutSuffix(t *testing.T) {
	f := NewFormatter("en", "")

	assert.Equal(t, "950", f.Amount(950))
}

func TestFormatterInvalidLocaleFallsBack(t *testing.T) {
	f := NewFormatter("not-a-locale", "NGN")

	// Falls back to English grouping instead of failing.
	assert.Equal(t, "10,000 NGN", f.Amount(10000))
}

func TestFormatterQuantityGrouping(t *testing.T) {
	f := NewFormatter("en", "")

	assert.Equal(t, "12,500", f.Quantity(12500))
	assert.Equal(t, "7", f.Quantity(7))
}

func TestFormatterDates(t *testing.T) {
	f := NewFormatter("en", "")
	ts := time.Date(2026, time.March, 9, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, "09 Mar 2026", f.Date(ts))
	assert.Equal(t, "09 Mar 2026 14:30", f.DateTime(ts))
	assert.Equal(t, "", f.Date(time.Time{}))
}

func TestFormatterISODate(t *testing.T) {
	f := NewFormatter("en", "")

	assert.Equal(t, "09 Mar 2026", f.ISODate("2026-03-09"))
	// Unparseable input is passed through untouched.
	assert.Equal(t, "not-a-date", f.ISODate("not-a-date"))
}
