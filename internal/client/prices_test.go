package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodscan/internal/domain/auth"
	"github.com/xenking/foodscan/internal/domain/price"
)

func newPricesClient(t *testing.T, handler http.Handler) *PricesClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	httpClient := NewHTTPClient(5 * time.Second)
	manager := auth.NewSessionManager(NewSession(httpClient, srv.URL+"/session"))
	exec, err := NewExecutor(httpClient, srv.URL, manager)
	require.NoError(t, err)
	return NewPrices(exec)
}

func TestGetPrices(t *testing.T) {
	var gotQuery map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"results": [
				{
					"price": 2.49,
					"currency": "EUR",
					"date": "2026-08-20",
					"price_is_discounted": true,
					"source": "mobile",
					"location": {"osm_name": "Carrefour City", "osm_brand": "Carrefour", "osm_address_city": "Lyon"}
				},
				{"price": 2.99, "currency": "EUR", "date": "2026-08-01"}
			]
		}`))
	})

	c := newPricesClient(t, handler)
	prices, err := c.GetPrices(context.Background(), price.PricesQuery{
		Barcode:  "3017620422003",
		Size:     30,
		DateFrom: time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC),
		Location: "Lyon",
	})
	require.NoError(t, err)

	assert.Equal(t, "3017620422003", gotQuery["product_code"])
	assert.Equal(t, "30", gotQuery["size"])
	assert.Equal(t, "2026-07-27", gotQuery["date__gte"])
	assert.Equal(t, "Lyon", gotQuery["location_osm_name"])
	assert.Equal(t, "-date", gotQuery["order_by"])

	require.Len(t, prices, 2)
	first := prices[0]
	assert.True(t, decimal.RequireFromString("2.49").Equal(first.Amount))
	assert.Equal(t, "EUR", first.Currency)
	assert.True(t, first.Promo)
	assert.Equal(t, "mobile", first.Source)
	assert.Equal(t, "Carrefour City", first.StoreName)
	assert.Equal(t, "Carrefour", first.StoreBrand)
	assert.Equal(t, "Lyon", first.StoreLocation)
	assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), first.Date)
}

func TestGetPrices_Unauthorized(t *testing.T) {
	c := newPricesClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.GetPrices(context.Background(), price.PricesQuery{Barcode: "3017620422003", Size: 1})
	require.ErrorIs(t, err, price.ErrUnauthorized)
}

func TestCreatePrice(t *testing.T) {
	var got createPriceBody
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/prices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	c := newPricesClient(t, handler)
	err := c.CreatePrice(context.Background(), price.Submission{
		Barcode:    "3017620422003",
		Amount:     decimal.RequireFromString("2.49"),
		Currency:   "EUR",
		LocationID: 42,
		Date:       time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
		ProofURL:   "https://proof.example/1.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, "3017620422003", got.ProductCode)
	assert.True(t, decimal.RequireFromString("2.49").Equal(got.Price))
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, int64(42), got.LocationID)
	assert.Equal(t, "2026-08-26", got.Date)
	assert.Equal(t, "https://proof.example/1.jpg", got.ProofURL)
}

func TestCreatePrice_Unauthorized(t *testing.T) {
	c := newPricesClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := c.CreatePrice(context.Background(), price.Submission{
		Barcode: "3017620422003",
		Amount:  decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, price.ErrUnauthorized)
}

func TestLocations(t *testing.T) {
	c := newPricesClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/locations", r.URL.Path)
		_, _ = w.Write([]byte(`{"results":[{"id":42,"osm_name":"Carrefour City","osm_address_city":"Lyon"}]}`))
	}))

	locations, err := c.Locations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, int64(42), locations[0].ID)
	assert.Equal(t, "Carrefour City", locations[0].Name)
}

func TestStatus(t *testing.T) {
	c := newPricesClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	require.NoError(t, c.Status(context.Background()))

	c = newPricesClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	require.Error(t, c.Status(context.Background()))
}

func TestLogin_FormEncoding(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "sess-1"})
	}))
	defer srv.Close()

	c := NewSession(NewHTTPClient(5*time.Second), srv.URL+"/session")
	res, err := c.Login(context.Background(), "scanner", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "scanner", gotForm["user_id"])
	assert.Equal(t, "hunter2", gotForm["password"])
	assert.Equal(t, "process", gotForm["action"])
	assert.Contains(t, res.SetCookie, "session=sess-1")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestLogin_SessionCookieAmongSeveralCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "abc123", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "sess-9", HttpOnly: true})
	}))
	defer srv.Close()

	httpClient := NewHTTPClient(5 * time.Second)
	manager := auth.NewSessionManager(NewSession(httpClient, srv.URL+"/session"))

	ok, err := manager.Configure(context.Background(), auth.Credentials{
		Method:         auth.MethodLoginPassword,
		Username:       "scanner",
		Password:       "hunter2",
		SessionTimeout: time.Hour,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sess-9", manager.Session().Cookie)
}
