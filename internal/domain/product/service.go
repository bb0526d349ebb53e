package product

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/foodscan/internal/domain/price"
)

// Resolver obtains base product metadata for a barcode.
type Resolver interface {
	Resolve(ctx context.Context, barcode string, languages []string) (*Product, error)
}

// Enricher attaches pricing context to a product.
type Enricher interface {
	Enrich(ctx context.Context, barcode, location string) (*price.Enrichment, error)
}

// Service orchestrates product resolution: input validation, cache consult,
// metadata resolution, optional pricing enrichment, cache write-back.
type Service struct {
	resolver  Resolver
	prices    Enricher
	cache     Cache
	languages []string
}

// NewService creates the resolution orchestrator. cache may be nil; languages
// define the fallback order and default to [DefaultLanguage] when empty.
func NewService(resolver Resolver, prices Enricher, cache Cache, languages []string) *Service {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}
	return &Service{
		resolver:  resolver,
		prices:    prices,
		cache:     cache,
		languages: languages,
	}
}

// GetProduct resolves a product record for the query. The result is either a
// populated record or (nil, nil): invalid barcodes, absent products, and
// all-sources-failed present identically as no result. Errors are reserved
// for programmer mistakes (service not wired).
func (s *Service) GetProduct(ctx context.Context, q Query) (*Product, error) {
	if s.resolver == nil {
		return nil, ErrNotConfigured
	}

	lg := zctx.From(ctx)
	if !ValidBarcode(q.Barcode) {
		lg.Debug("Rejected invalid barcode", zap.String("barcode", q.Barcode))
		return nil, nil
	}

	if cached := s.fromCache(ctx, q); cached != nil {
		return cached, nil
	}

	p, err := s.resolver.Resolve(ctx, q.Barcode, s.languages)
	if err != nil || p == nil {
		return nil, err
	}

	if q.IncludePricing {
		s.enrich(ctx, p, q.Location)
	}

	s.writeBack(ctx, p)
	return p, nil
}

// fromCache returns a usable cached record or nil. A fresh hit that lacks
// requested pricing gets pricing enriched on the spot; the cache entry is
// not rewritten in that path.
func (s *Service) fromCache(ctx context.Context, q Query) *Product {
	if s.cache == nil {
		return nil
	}
	cached, ok, err := s.cache.Get(ctx, q.Barcode)
	if err != nil {
		zctx.From(ctx).Warn("Cache lookup failed",
			zap.String("barcode", q.Barcode), zap.Error(err))
		return nil
	}
	if !ok || cached == nil {
		return nil
	}
	if q.IncludePricing && !cached.HasPricing() {
		s.enrich(ctx, cached, q.Location)
	}
	return cached
}

// enrich merges pricing context onto p. Enrichment failure leaves p without
// pricing; it never fails the resolution.
func (s *Service) enrich(ctx context.Context, p *Product, location string) {
	if s.prices == nil {
		return
	}
	e, err := s.prices.Enrich(ctx, p.Barcode, location)
	if err != nil {
		zctx.From(ctx).Warn("Price enrichment failed",
			zap.String("barcode", p.Barcode), zap.Error(err))
		return
	}
	p.CurrentPrice = e.Current
	p.RecentPrices = e.Recent
	p.PriceStats = e.Stats
}

// writeBack hands the record to the cache without waiting for it. The write
// uses a detached context so it survives the caller returning.
func (s *Service) writeBack(ctx context.Context, p *Product) {
	if s.cache == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.cache.Set(bg, p); err != nil {
			zctx.From(bg).Warn("Cache write-back failed",
				zap.String("barcode", p.Barcode), zap.Error(err))
		}
	}()
}
