package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodscan/internal/domain/product"
)

const nutellaEnvelope = `{
	"status": 1,
	"product": {
		"product_name": "Nutella",
		"brands": "Ferrero",
		"ingredients_text": "Sugar, palm oil, hazelnuts 13%",
		"allergens_tags": ["en:milk", "en:nuts"],
		"nutrition_grades": "e",
		"nova_group": 4,
		"image_url": "https://img.example/full.jpg",
		"image_small_url": "https://img.example/small.jpg",
		"product_type": "food"
	}
}`

func newCatalog(t *testing.T, handler http.HandlerFunc) *CatalogClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewCatalog(NewHTTPClient(5*time.Second), srv.URL)
	require.NoError(t, err)
	return c
}

func TestCatalogFetch(t *testing.T) {
	var gotPath, gotLang string
	c := newCatalog(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLang = r.URL.Query().Get("lc")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nutellaEnvelope))
	})

	p, err := c.Fetch(context.Background(), "3017620422003", "fr")
	require.NoError(t, err)

	assert.Equal(t, "/product/3017620422003", gotPath)
	assert.Equal(t, "fr", gotLang)

	assert.Equal(t, "3017620422003", p.Barcode)
	assert.Equal(t, product.KindFood, p.Kind)
	assert.Equal(t, "Nutella", p.Name)
	assert.Equal(t, "Ferrero", p.Brand)
	assert.Equal(t, []string{"en:milk", "en:nuts"}, p.Allergens)
	assert.Equal(t, "e", p.NutritionGrade)
	require.NotNil(t, p.NovaGroup)
	assert.Equal(t, 4, *p.NovaGroup)
	assert.Equal(t, "https://img.example/full.jpg", p.ImageURL)
	assert.False(t, p.FetchedAt.IsZero())
}

func TestCatalogFetch_StatusZeroIsNotFound(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	})

	_, err := c.Fetch(context.Background(), "00000000", "en")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCatalogFetch_HTTP404IsNotFound(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Fetch(context.Background(), "00000000", "en")
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestCatalogFetch_ServerError(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), "3017620422003", "en")
	require.Error(t, err)
	assert.NotErrorIs(t, err, product.ErrNotFound)
}

func TestCatalogFetch_MalformedBody(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway timeout</html>`))
	})

	_, err := c.Fetch(context.Background(), "3017620422003", "en")
	require.Error(t, err)
}

func TestCatalogFetch_UnknownProductType(t *testing.T) {
	c := newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Soap","product_type":"beauty"}}`))
	})

	p, err := c.Fetch(context.Background(), "20724696", "en")
	require.NoError(t, err)
	assert.Equal(t, product.KindBeauty, p.Kind)

	c = newCatalog(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Pen"}}`))
	})
	p, err = c.Fetch(context.Background(), "20724696", "en")
	require.NoError(t, err)
	assert.Equal(t, product.KindGeneral, p.Kind)
}
