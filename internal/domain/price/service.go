package price

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Window bounds for the recent-price fetch.
const (
	recentWindowDays = 30
	recentWindowSize = 30
)

// Sentinel errors for price submission.
var (
	ErrPricingDisabled = errors.New("pricing is disabled")
	ErrNotAuthorized   = errors.New("price submission requires an authenticated session")
	ErrInvalidPrice    = errors.New("price submission requires a barcode and a positive amount")
)

// AuthState exposes the one bit of session state the price service needs.
type AuthState interface {
	Authenticated() bool
}

// Enrichment is the pricing context attached to a resolved product. All
// fields may be empty: pricing is optional enrichment, never a hard
// dependency of product resolution.
type Enrichment struct {
	Current *Price
	Recent  []Price
	Stats   *Statistics
}

// Service fetches pricing context and reports new observations.
type Service struct {
	client  Client
	auth    AuthState
	enabled bool
	now     func() time.Time
}

// NewService creates a price Service. With enabled false every enrichment is
// empty and submissions fail with ErrPricingDisabled.
func NewService(client Client, auth AuthState, enabled bool) *Service {
	return &Service{
		client:  client,
		auth:    auth,
		enabled: enabled,
		now:     time.Now,
	}
}

// Enrich fetches the single most recent price and a bounded window of recent
// prices for barcode. The two fetches run concurrently and both complete
// before Enrich returns. Fetch failures degrade that part of the result to
// empty; they are logged, never returned. Statistics are computed only when
// the recent window is non-empty.
func (s *Service) Enrich(ctx context.Context, barcode, location string) (*Enrichment, error) {
	if !s.enabled {
		return &Enrichment{}, nil
	}

	var out Enrichment
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prices, err := s.client.GetPrices(gctx, PricesQuery{
			Barcode: barcode,
			Size:    1,
		})
		if err != nil {
			zctx.From(gctx).Warn("Current price fetch failed",
				zap.String("barcode", barcode), zap.Error(err))
			return nil
		}
		if len(prices) > 0 {
			out.Current = &prices[0]
		}
		return nil
	})

	g.Go(func() error {
		prices, err := s.client.GetPrices(gctx, PricesQuery{
			Barcode:  barcode,
			Size:     recentWindowSize,
			DateFrom: s.now().AddDate(0, 0, -recentWindowDays),
			Location: location,
		})
		if err != nil {
			zctx.From(gctx).Warn("Recent price fetch failed",
				zap.String("barcode", barcode), zap.Error(err))
			return nil
		}
		out.Recent = prices
		return nil
	})

	// Both fetch goroutines swallow their own errors, so Wait is a pure join.
	_ = g.Wait()

	if len(out.Recent) > 0 {
		stats := ComputeStatistics(out.Recent)
		out.Stats = &stats
	}
	return &out, nil
}

// Submit reports a new price observation. Unlike enrichment, submission is a
// write and fails loudly: pricing disabled, missing session, or invalid
// input are all returned as errors.
func (s *Service) Submit(ctx context.Context, sub Submission) error {
	if !s.enabled {
		return ErrPricingDisabled
	}
	if !s.auth.Authenticated() {
		return ErrNotAuthorized
	}
	if sub.Barcode == "" || !sub.Amount.IsPositive() {
		return ErrInvalidPrice
	}
	if sub.Date.IsZero() {
		sub.Date = s.now()
	}
	if err := s.client.CreatePrice(ctx, sub); err != nil {
		return errors.Wrap(err, "create price")
	}
	return nil
}
