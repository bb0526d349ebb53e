package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/foodscan/internal/domain/product"
)

// CatalogClient fetches localized product metadata from the catalog service.
// It implements product.Catalog.
type CatalogClient struct {
	http *http.Client
	base *url.URL
	now  func() time.Time
}

// NewCatalog creates a catalog client for the service at baseURL.
func NewCatalog(httpClient *http.Client, baseURL string) (*CatalogClient, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	return &CatalogClient{
		http: httpClient,
		base: base,
		now:  time.Now,
	}, nil
}

// catalogEnvelope is the service's response wrapper: a numeric status flag
// plus the product object. Status 0 signals a known-absent barcode.
type catalogEnvelope struct {
	Status  int             `json:"status"`
	Product *catalogProduct `json:"product"`
}

type catalogProduct struct {
	ProductName     string   `json:"product_name"`
	Brands          string   `json:"brands"`
	IngredientsText string   `json:"ingredients_text"`
	AllergensTags   []string `json:"allergens_tags"`
	NutritionGrades string   `json:"nutrition_grades"`
	NovaGroup       *int     `json:"nova_group"`
	ImageURL        string   `json:"image_url"`
	ImageSmallURL   string   `json:"image_small_url"`
	ProductType     string   `json:"product_type"`
}

// Fetch retrieves the product record for barcode localized to language.
// Explicit absence returns product.ErrNotFound; transport failures, non-2xx
// statuses and malformed bodies return descriptive errors.
func (c *CatalogClient) Fetch(ctx context.Context, barcode, language string) (*product.Product, error) {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/product/" + url.PathEscape(barcode)
	u.RawQuery = url.Values{"lc": []string{language}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch product")
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, product.ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog responded %d", res.StatusCode)
	}

	var env catalogEnvelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if env.Status == 0 || env.Product == nil {
		return nil, product.ErrNotFound
	}

	return c.mapProduct(barcode, env.Product), nil
}

func (c *CatalogClient) mapProduct(barcode string, cp *catalogProduct) *product.Product {
	return &product.Product{
		Barcode:        barcode,
		Kind:           mapKind(cp.ProductType),
		Name:           cp.ProductName,
		Brand:          cp.Brands,
		Ingredients:    cp.IngredientsText,
		Allergens:      cp.AllergensTags,
		NutritionGrade: cp.NutritionGrades,
		NovaGroup:      cp.NovaGroup,
		ImageURL:       cp.ImageURL,
		ImageSmallURL:  cp.ImageSmallURL,
		FetchedAt:      c.now(),
	}
}

func mapKind(productType string) product.Kind {
	switch productType {
	case "food":
		return product.KindFood
	case "beauty":
		return product.KindBeauty
	default:
		return product.KindGeneral
	}
}
