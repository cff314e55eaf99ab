package analytics

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

// demoSeed is stable per seller, period and window so a demo chart does not
// change between page loads.
func demoSeed(sellerID string, p Period, w Window) uint64 {
	return xxhash.Sum64String(sellerID + "|" + string(p) + "|" + w.Start.Format("2006-01-02"))
}

// DemoSeries fills the period's buckets with a rising trend plus bounded
// noise (±20%), and returns a matching previous-window total.
func DemoSeries(sellerID string, p Period, w Window) (series []Bucket, prev decimal.Decimal) {
	seed := demoSeed(sellerID, p, w)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	series = EmptyBuckets(p, w)
	base := 200 + rng.Float64()*800
	total := decimal.Zero
	for i := range series {
		trend := 1 + 0.04*float64(i)
		noise := 0.8 + 0.4*rng.Float64()
		v := decimal.NewFromFloat(base * trend * noise).Round(2)
		series[i].Revenue = v
		series[i].Orders = 1 + rng.IntN(6)
		total = total.Add(v)
	}
	prev = total.Mul(decimal.NewFromFloat(0.75 + 0.35*rng.Float64())).Round(2)
	return series, prev
}
