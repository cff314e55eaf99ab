package analytics

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceDatabase Source = "database"
	SourceDemo     Source = "demo"
)

type DemoReason string

const (
	ReasonNoOrders         DemoReason = "no_orders"
	ReasonStoreUnavailable DemoReason = "store_unavailable"
)

// Summary is the body shared by every report kind.
type Summary struct {
	SellerID        string          `json:"seller_id"`
	Period          Period          `json:"period"`
	Current         Window          `json:"current"`
	Previous        Window          `json:"previous"`
	CurrentRevenue  decimal.Decimal `json:"current_revenue"`
	PreviousRevenue decimal.Decimal `json:"previous_revenue"`
	Growth          float64         `json:"growth"`
	Orders          int             `json:"orders"`
	Series          []Bucket        `json:"series"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// Report is either a MeasuredReport or a DemoReport. Callers switch on the
// concrete type; the set is closed.
type Report interface {
	Source() Source
	Data() Summary
	report()
}

// MeasuredReport is computed from stored orders.
type MeasuredReport struct {
	Summary
}

func (MeasuredReport) Source() Source  { return SourceDatabase }
func (r MeasuredReport) Data() Summary { return r.Summary }
func (MeasuredReport) report()         {}

func (r MeasuredReport) MarshalJSON() ([]byte, error) {
	type body Summary
	return json.Marshal(struct {
		Source Source `json:"source"`
		body
	}{SourceDatabase, body(r.Summary)})
}

// DemoReport holds a synthetic series. It never reflects real sales.
type DemoReport struct {
	Summary
	Reason DemoReason
}

func (DemoReport) Source() Source  { return SourceDemo }
func (r DemoReport) Data() Summary { return r.Summary }
func (DemoReport) report()         {}

func (r DemoReport) MarshalJSON() ([]byte, error) {
	type body Summary
	return json.Marshal(struct {
		Source Source     `json:"source"`
		Reason DemoReason `json:"demo_reason"`
		body
	}{SourceDemo, r.Reason, body(r.Summary)})
}
