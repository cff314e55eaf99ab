package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(bs []Bucket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Label
	}
	return out
}

func TestEmptyBuckets_Labels(t *testing.T) {
	cur, _ := Windows(PeriodDay, wed)
	day := labels(EmptyBuckets(PeriodDay, cur))
	require.Len(t, day, 24)
	assert.Equal(t, "00:00", day[0])
	assert.Equal(t, "23:00", day[23])

	cur, _ = Windows(PeriodWeek, wed)
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, labels(EmptyBuckets(PeriodWeek, cur)))

	cur, _ = Windows(PeriodMonth, date(2024, 2, 10))
	feb := labels(EmptyBuckets(PeriodMonth, cur))
	require.Len(t, feb, 29)
	assert.Equal(t, "29", feb[28])

	cur, _ = Windows(PeriodQuarter, wed)
	assert.Equal(t, []string{"Apr", "May", "Jun"}, labels(EmptyBuckets(PeriodQuarter, cur)))

	cur, _ = Windows(PeriodYear, wed)
	year := labels(EmptyBuckets(PeriodYear, cur))
	assert.Len(t, year, 12)
	assert.Equal(t, "Dec", year[11])
}

func TestBucketize(t *testing.T) {
	cur, _ := Windows(PeriodWeek, wed)
	sales := []Sale{
		{CreatedAt: time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(10)},   // Sun
		{CreatedAt: time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(20)},  // Wed
		{CreatedAt: time.Date(2024, 5, 15, 11, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(5)},   // Wed
		{CreatedAt: time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(1000)}, // next week
	}

	got := Bucketize(PeriodWeek, cur, sales)

	assert.True(t, got[0].Revenue.Equal(decimal.NewFromInt(10)))
	assert.True(t, got[3].Revenue.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 2, got[3].Orders)
	assert.True(t, got[6].Revenue.IsZero())
}

func TestBucketize_Quarter(t *testing.T) {
	cur, _ := Windows(PeriodQuarter, wed)
	got := Bucketize(PeriodQuarter, cur, []Sale{
		{CreatedAt: date(2024, 6, 30), Amount: decimal.NewFromInt(7)},
	})
	assert.True(t, got[2].Revenue.Equal(decimal.NewFromInt(7)))
}
