package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// FallbackResolver fetches product metadata by trying an ordered list of
// languages against the catalog until one yields data.
type FallbackResolver struct {
	catalog Catalog
}

// NewFallbackResolver creates a resolver over the given catalog.
func NewFallbackResolver(catalog Catalog) *FallbackResolver {
	return &FallbackResolver{catalog: catalog}
}

// Resolve tries languages in order and returns the first successful record,
// tagged with the language that produced it. Per-language failures (network,
// not-found, malformed response) are logged and skipped. When every language
// fails the result is (nil, nil): absence and couldn't-be-determined are
// deliberately indistinguishable to the caller.
func (r *FallbackResolver) Resolve(ctx context.Context, barcode string, languages []string) (*Product, error) {
	if len(languages) == 0 {
		languages = []string{DefaultLanguage}
	}

	lg := zctx.From(ctx)
	for _, lang := range languages {
		p, err := r.catalog.Fetch(ctx, barcode, lang)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				lg.Debug("Product absent in language",
					zap.String("barcode", barcode), zap.String("language", lang))
			} else {
				lg.Warn("Catalog fetch failed",
					zap.String("barcode", barcode), zap.String("language", lang), zap.Error(err))
			}
			continue
		}
		if p == nil {
			continue
		}
		p.Language = lang
		return p, nil
	}
	return nil, nil
}
