// Package analytics computes seller revenue reports, order statistics and
// the materialized per-seller sales snapshot.
package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// ParsePeriod accepts the period tokens case-insensitively; empty means week.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q (want day, week, month, quarter or year)", ErrInvalidPeriod, s)
}

// Window is the half-open range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Windows returns the calendar period containing now and the one right
// before it. Everything is UTC; weeks start on Sunday.
func Windows(p Period, now time.Time) (cur, prev Window) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch p {
	case PeriodDay:
		cur = Window{day, day.AddDate(0, 0, 1)}
		prev = Window{day.AddDate(0, 0, -1), day}
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		cur = Window{start, start.AddDate(0, 1, 0)}
		prev = Window{start.AddDate(0, -1, 0), start}
	case PeriodQuarter:
		first := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), first, 1, 0, 0, 0, 0, time.UTC)
		cur = Window{start, start.AddDate(0, 3, 0)}
		prev = Window{start.AddDate(0, -3, 0), start}
	case PeriodYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		cur = Window{start, start.AddDate(1, 0, 0)}
		prev = Window{start.AddDate(-1, 0, 0), start}
	default:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		cur = Window{start, start.AddDate(0, 0, 7)}
		prev = Window{start.AddDate(0, 0, -7), start}
	}
	return cur, prev
}
