package analytics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Bucket struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

var weekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// EmptyBuckets lays out the labelled, zero-valued series for window w.
func EmptyBuckets(p Period, w Window) []Bucket {
	var labels []string
	switch p {
	case PeriodDay:
		for h := 0; h < 24; h++ {
			labels = append(labels, fmt.Sprintf("%02d:00", h))
		}
	case PeriodMonth:
		days := int(w.End.Sub(w.Start).Hours() / 24)
		for d := 1; d <= days; d++ {
			labels = append(labels, strconv.Itoa(d))
		}
	case PeriodQuarter:
		for m := 0; m < 3; m++ {
			labels = append(labels, w.Start.AddDate(0, m, 0).Month().String()[:3])
		}
	case PeriodYear:
		for m := time.January; m <= time.December; m++ {
			labels = append(labels, m.String()[:3])
		}
	default:
		labels = append(labels, weekdayLabels...)
	}

	out := make([]Bucket, len(labels))
	for i, l := range labels {
		out[i] = Bucket{Label: l, Revenue: decimal.Zero}
	}
	return out
}

// bucketIndex maps t inside w to its slot in EmptyBuckets(p, w).
func bucketIndex(p Period, w Window, t time.Time) int {
	t = t.UTC()
	switch p {
	case PeriodDay:
		return t.Hour()
	case PeriodMonth:
		return t.Day() - 1
	case PeriodQuarter:
		return int(t.Month()) - int(w.Start.Month())
	case PeriodYear:
		return int(t.Month()) - 1
	default:
		return int(t.Weekday())
	}
}

// Bucketize sums sales inside w into the period's series. Sales outside w are ignored.
func Bucketize(p Period, w Window, sales []Sale) []Bucket {
	out := EmptyBuckets(p, w)
	for _, s := range sales {
		if !w.Contains(s.CreatedAt) {
			continue
		}
		i := bucketIndex(p, w, s.CreatedAt)
		if i < 0 || i >= len(out) {
			continue
		}
		out[i].Revenue = out[i].Revenue.Add(s.Amount)
		out[i].Orders++
	}
	return out
}
