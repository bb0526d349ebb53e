package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/foodscan/internal/domain/price"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by catalogs when the remote service explicitly
	// reports the barcode as absent.
	ErrNotFound = errors.New("product not found")
	// ErrNotConfigured indicates GetProduct was called before the service was
	// wired with a resolver. Programmer error, not a runtime condition.
	ErrNotConfigured = errors.New("product service not configured")
)

// Kind classifies the catalog a product belongs to.
type Kind string

const (
	KindFood    Kind = "food"
	KindBeauty  Kind = "beauty"
	KindGeneral Kind = "general"
)

// DefaultLanguage is used when the caller supplies no language preferences.
const DefaultLanguage = "en"

// Product is a resolved consumer-product record. Localized fields carry the
// text for Language, the language that produced the record.
type Product struct {
	Barcode     string
	Kind        Kind
	Name        string
	Brand       string
	Ingredients string
	Allergens   []string

	// NutritionGrade is the a-e letter grade; empty when ungraded.
	NutritionGrade string
	// NovaGroup is the food-processing classification group, nil when the
	// catalog has none for this product.
	NovaGroup *int

	ImageURL      string
	ImageSmallURL string

	Language  string
	FetchedAt time.Time

	// Pricing enrichment, absent unless requested and available.
	CurrentPrice *price.Price
	RecentPrices []price.Price
	PriceStats   *price.Statistics
}

// HasPricing reports whether any pricing enrichment is attached.
func (p *Product) HasPricing() bool {
	return p.CurrentPrice != nil || len(p.RecentPrices) > 0 || p.PriceStats != nil
}

// Query is a product resolution request.
type Query struct {
	Barcode        string
	IncludePricing bool
	Location       string
}

// Catalog fetches product metadata from the catalog service in a single
// language. A fetch returns ErrNotFound when the service reports absence.
type Catalog interface {
	Fetch(ctx context.Context, barcode, language string) (*Product, error)
}

// Cache is the external product cache collaborator. Get reports a fresh hit
// with ok true; Set failures never fail a resolution.
type Cache interface {
	Get(ctx context.Context, barcode string) (p *Product, ok bool, err error)
	Set(ctx context.Context, p *Product) error
}
