package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novapharm/novapharm/internal/sales"
	_ "github.com/novapharm/novapharm/testing"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func saleOn(t time.Time, amount float64) sales.Sale {
	return sales.Sale{SaleDate: t, TotalAmount: amount, FinalAmount: amount, PaymentStatus: sales.PaymentStatusCompleted}
}

func TestDailySeriesKeepsSevenMostRecentDates(t *testing.T) {
	var list []sales.Sale
	for i := 0; i < 9; i++ {
		list = append(list, saleOn(day(2026, 3, 1+i), 10))
	}

	series := DailySeries(list)
	require.Len(t, series, 7)
	assert.Equal(t, day(2026, 3, 3), series[0].Date)
	assert.Equal(t, day(2026, 3, 9), series[6].Date)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i].Date.After(series[i-1].Date), "series must ascend")
	}
}

func TestDailySeriesGroupsSameDay(t *testing.T) {
	morning := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 5, 19, 0, 0, 0, time.UTC)
	list := []sales.Sale{
		saleOn(morning, 40),
		saleOn(evening, 60),
		saleOn(day(2026, 3, 4), 15),
	}

	series := DailySeries(list)
	require.Len(t, series, 2)
	assert.Equal(t, day(2026, 3, 4), series[0].Date)
	assert.InDelta(t, 15, series[0].Total, 1e-9)
	assert.Equal(t, 1, series[0].Count)
	assert.Equal(t, day(2026, 3, 5), series[1].Date)
	assert.InDelta(t, 100, series[1].Total, 1e-9)
	assert.Equal(t, 2, series[1].Count)
}

func TestDailySeriesSumsGrossBeforeDiscount(t *testing.T) {
	list := []sales.Sale{{
		SaleDate:      day(2026, 3, 5),
		TotalAmount:   100,
		Discount:      10,
		FinalAmount:   90,
		PaymentStatus: sales.PaymentStatusCompleted,
	}}

	series := DailySeries(list)
	require.Len(t, series, 1)
	assert.InDelta(t, 100, series[0].Total, 1e-9, "daily total is the gross amount before discount")
	assert.Equal(t, 1, series[0].Count)
}

func TestDailySeriesEmpty(t *testing.T) {
	assert.Empty(t, DailySeries(nil))
}

func TestStatusBreakdown(t *testing.T) {
	list := []sales.Sale{
		{FinalAmount: 100, PaymentStatus: sales.PaymentStatusCompleted},
		{FinalAmount: 50, PaymentStatus: sales.PaymentStatusPending},
		{FinalAmount: 25, PaymentStatus: sales.PaymentStatusCompleted},
		{FinalAmount: 10, PaymentStatus: sales.PaymentStatusCancelled},
	}

	slices := StatusBreakdown(list)
	require.Len(t, slices, 3)
	assert.Equal(t, sales.PaymentStatusCompleted, slices[0].Status)
	assert.InDelta(t, 125, slices[0].Total, 1e-9)
	assert.Equal(t, 2, slices[0].Count)
	assert.Equal(t, sales.PaymentStatusPending, slices[1].Status)
	assert.Equal(t, sales.PaymentStatusCancelled, slices[2].Status)
}

func TestTopProductsOrderAndLimit(t *testing.T) {
	list := []sales.Sale{{
		Items: []sales.SaleItem{
			{ProductName: "A", Quantity: 10, TotalPrice: 100},
			{ProductName: "B", Quantity: 30, TotalPrice: 90},
			{ProductName: "C", Quantity: 20, TotalPrice: 80},
		},
	}}

	top := TopProducts(list, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Name)
	assert.Equal(t, 30, top[0].Quantity)
	assert.Equal(t, "C", top[1].Name)
	assert.Equal(t, 20, top[1].Quantity)
}

func TestTopProductsStableTies(t *testing.T) {
	list := []sales.Sale{{
		Items: []sales.SaleItem{
			{ProductName: "first", Quantity: 5},
			{ProductName: "second", Quantity: 5},
			{ProductName: "third", Quantity: 5},
		},
	}}

	top := TopProducts(list, 5)
	require.Len(t, top, 3)
	assert.Equal(t, "first", top[0].Name)
	assert.Equal(t, "second", top[1].Name)
	assert.Equal(t, "third", top[2].Name)
}

func TestTopProductsUnknownFallback(t *testing.T) {
	list := []sales.Sale{{
		Items: []sales.SaleItem{
			{ProductName: "", Quantity: 2, TotalPrice: 8},
			{ProductName: "Aspirin", Quantity: 1, TotalPrice: 4},
			{ProductName: "", Quantity: 3, TotalPrice: 12},
		},
	}}

	top := TopProducts(list, 5)
	require.Len(t, top, 2)
	assert.Equal(t, UnknownProductLabel, top[0].Name)
	assert.Equal(t, 5, top[0].Quantity)
	assert.InDelta(t, 20, top[0].Total, 1e-9)
}

func TestTopProductsAggregatesAcrossSales(t *testing.T) {
	list := []sales.Sale{
		{Items: []sales.SaleItem{{ProductName: "A", Quantity: 2}}},
		{Items: []sales.SaleItem{{ProductName: "A", Quantity: 3}, {ProductName: "B", Quantity: 4}}},
	}

	top := TopProducts(list, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Name)
	assert.Equal(t, 5, top[0].Quantity)
}
