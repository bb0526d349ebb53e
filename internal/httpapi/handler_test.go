package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodscan/internal/domain/auth"
	"github.com/xenking/foodscan/internal/domain/price"
	"github.com/xenking/foodscan/internal/domain/product"
)

type mockGetter struct {
	lastQuery product.Query
	product   *product.Product
	err       error
}

func (m *mockGetter) GetProduct(_ context.Context, q product.Query) (*product.Product, error) {
	m.lastQuery = q
	return m.product, m.err
}

type mockSession struct {
	status auth.Status
}

func (m *mockSession) Status() auth.Status { return m.status }

func newServer(t *testing.T, getter ProductGetter, session SessionStatus) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(getter, session).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	return res.StatusCode
}

func TestGetProduct(t *testing.T) {
	nova := 4
	current := price.Price{Amount: decimal.RequireFromString("2.49"), Currency: "EUR"}
	stats := price.ComputeStatistics([]price.Price{current})
	getter := &mockGetter{product: &product.Product{
		Barcode:        "3017620422003",
		Kind:           product.KindFood,
		Name:           "Nutella",
		Brand:          "Ferrero",
		NutritionGrade: "e",
		NovaGroup:      &nova,
		Language:       "en",
		FetchedAt:      time.Now(),
		CurrentPrice:   &current,
		RecentPrices:   []price.Price{current},
		PriceStats:     &stats,
	}}
	srv := newServer(t, getter, &mockSession{})

	var body map[string]any
	code := getJSON(t, srv.URL+"/product/3017620422003?pricing=true&location=Lyon", &body)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3017620422003", body["barcode"])
	assert.Equal(t, "Nutella", body["name"])
	assert.Equal(t, "food", body["kind"])
	assert.Equal(t, float64(4), body["novaGroup"])
	require.Contains(t, body, "currentPrice")
	require.Contains(t, body, "priceStats")
	statsBody := body["priceStats"].(map[string]any)
	assert.Equal(t, float64(1), statsBody["count"])

	assert.Equal(t, product.Query{
		Barcode:        "3017620422003",
		IncludePricing: true,
		Location:       "Lyon",
	}, getter.lastQuery)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := newServer(t, &mockGetter{}, &mockSession{})

	var body map[string]any
	code := getJSON(t, srv.URL+"/product/00000000", &body)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, float64(404), body["code"])
}

func TestGetProduct_ResolutionError(t *testing.T) {
	srv := newServer(t, &mockGetter{err: errors.New("wiring broken")}, &mockSession{})

	var body map[string]any
	code := getJSON(t, srv.URL+"/product/3017620422003", &body)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestGetAuthStatus(t *testing.T) {
	srv := newServer(t, &mockGetter{}, &mockSession{status: auth.Status{
		Authenticated:  true,
		Method:         auth.MethodLoginPassword,
		HasCredentials: true,
	}})

	var body map[string]any
	code := getJSON(t, srv.URL+"/auth/status", &body)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "login_password", body["method"])
	assert.Equal(t, false, body["expired"])
	assert.Equal(t, true, body["hasCredentials"])
}
