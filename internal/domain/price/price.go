package price

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnauthorized is returned by clients when the pricing service rejects a
// call that requires a valid session.
var ErrUnauthorized = errors.New("pricing service: unauthorized")

// Price is a single observed price for a product.
type Price struct {
	Amount   decimal.Decimal
	Currency string
	// Store details are best-effort; the service omits them for anonymous
	// submissions.
	StoreName     string
	StoreBrand    string
	StoreLocation string
	Date          time.Time
	// PricePer is the unit price (per kg/l) when the observation carries one.
	PricePer *decimal.Decimal
	Promo    bool
	Source   string
}

// Statistics aggregates a set of price observations. It is derived data,
// recomputed from a price set every time and never persisted on its own.
// Count == 0 is the empty sentinel: average/min/max are zero values and must
// not be interpreted.
type Statistics struct {
	Average    decimal.Decimal
	Min        decimal.Decimal
	Max        decimal.Decimal
	Currency   string
	Count      int
	LatestDate time.Time
}

// ComputeStatistics derives Statistics from prices. An empty input yields the
// zero-count sentinel. The currency is taken from the first observation.
func ComputeStatistics(prices []Price) Statistics {
	if len(prices) == 0 {
		return Statistics{}
	}

	sum := decimal.Zero
	stats := Statistics{
		Min:      prices[0].Amount,
		Max:      prices[0].Amount,
		Currency: prices[0].Currency,
		Count:    len(prices),
	}
	for _, p := range prices {
		sum = sum.Add(p.Amount)
		if p.Amount.LessThan(stats.Min) {
			stats.Min = p.Amount
		}
		if p.Amount.GreaterThan(stats.Max) {
			stats.Max = p.Amount
		}
		if p.Date.After(stats.LatestDate) {
			stats.LatestDate = p.Date
		}
	}
	stats.Average = sum.DivRound(decimal.NewFromInt(int64(len(prices))), 4)
	return stats
}

// PricesQuery selects price observations for a product. Results are always
// date-descending; Size bounds the page and a non-zero DateFrom sets the
// lower date bound.
type PricesQuery struct {
	Barcode  string
	Size     int
	DateFrom time.Time
	Location string
}

// Submission is a new price observation to report to the pricing service.
type Submission struct {
	Barcode    string
	Amount     decimal.Decimal
	Currency   string
	LocationID int64
	Date       time.Time
	ProofURL   string
}

// Client defines the pricing-service operations the domain needs.
type Client interface {
	GetPrices(ctx context.Context, q PricesQuery) ([]Price, error)
	CreatePrice(ctx context.Context, s Submission) error
}
