package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/foodscan/internal/domain/price"
)

const dateLayout = "2006-01-02"

// PricesClient talks to the pricing service through the authenticated
// Executor. It implements price.Client.
type PricesClient struct {
	exec *Executor
}

// NewPrices creates a pricing-service client over exec.
func NewPrices(exec *Executor) *PricesClient {
	return &PricesClient{exec: exec}
}

// pricesPage is the paginated /prices response.
type pricesPage struct {
	Results []priceItem `json:"results"`
}

type priceItem struct {
	Price             decimal.Decimal  `json:"price"`
	Currency          string           `json:"currency"`
	Date              string           `json:"date"`
	PricePer          *decimal.Decimal `json:"price_per"`
	PriceIsDiscounted bool             `json:"price_is_discounted"`
	Source            string           `json:"source"`
	Location          *priceLocation   `json:"location"`
}

type priceLocation struct {
	Name  string `json:"osm_name"`
	Brand string `json:"osm_brand"`
	City  string `json:"osm_address_city"`
}

// GetPrices fetches price observations matching q, newest first.
func (c *PricesClient) GetPrices(ctx context.Context, q price.PricesQuery) ([]price.Price, error) {
	query := url.Values{
		"product_code": []string{q.Barcode},
		"order_by":     []string{"-date"},
	}
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if !q.DateFrom.IsZero() {
		query.Set("date__gte", q.DateFrom.Format(dateLayout))
	}
	if q.Location != "" {
		query.Set("location_osm_name", q.Location)
	}

	res, err := c.exec.Do(ctx, http.MethodGet, "/prices", query, nil)
	if err != nil {
		return nil, err
	}
	defer drain(res)

	if res.StatusCode == http.StatusUnauthorized {
		return nil, price.ErrUnauthorized
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing service responded %d", res.StatusCode)
	}

	var page pricesPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "decode prices")
	}

	prices := make([]price.Price, 0, len(page.Results))
	for _, item := range page.Results {
		prices = append(prices, mapPrice(item))
	}
	return prices, nil
}

func mapPrice(item priceItem) price.Price {
	p := price.Price{
		Amount:   item.Price,
		Currency: item.Currency,
		PricePer: item.PricePer,
		Promo:    item.PriceIsDiscounted,
		Source:   item.Source,
	}
	if d, err := time.Parse(dateLayout, item.Date); err == nil {
		p.Date = d
	}
	if item.Location != nil {
		p.StoreName = item.Location.Name
		p.StoreBrand = item.Location.Brand
		p.StoreLocation = item.Location.City
	}
	return p
}

// createPriceBody is the POST /prices payload.
type createPriceBody struct {
	ProductCode string          `json:"product_code"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	LocationID  int64           `json:"location_id,omitempty"`
	Date        string          `json:"date"`
	ProofURL    string          `json:"proof_url,omitempty"`
}

// CreatePrice reports a new price observation. Requires a valid session.
func (c *PricesClient) CreatePrice(ctx context.Context, s price.Submission) error {
	body := createPriceBody{
		ProductCode: s.Barcode,
		Price:       s.Amount,
		Currency:    s.Currency,
		LocationID:  s.LocationID,
		Date:        s.Date.Format(dateLayout),
		ProofURL:    s.ProofURL,
	}

	res, err := c.exec.Do(ctx, http.MethodPost, "/prices", nil, body)
	if err != nil {
		return err
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusUnauthorized:
		return price.ErrUnauthorized
	default:
		return fmt.Errorf("pricing service responded %d", res.StatusCode)
	}
}

// Location is a store location known to the pricing service.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"osm_name"`
	City string `json:"osm_address_city"`
}

// Locations lists store locations. Auth optional.
func (c *PricesClient) Locations(ctx context.Context) ([]Location, error) {
	res, err := c.exec.Do(ctx, http.MethodGet, "/locations", nil, nil)
	if err != nil {
		return nil, err
	}
	defer drain(res)

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing service responded %d", res.StatusCode)
	}

	var page struct {
		Results []Location `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, errors.Wrap(err, "decode locations")
	}
	return page.Results, nil
}

// Status pings the pricing service. A nil error means it is reachable and
// reports itself healthy.
func (c *PricesClient) Status(ctx context.Context) error {
	res, err := c.exec.Do(ctx, http.MethodGet, "/status", nil, nil)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("pricing service responded %d", res.StatusCode)
	}
	return nil
}
