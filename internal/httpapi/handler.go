// Package httpapi exposes the resolver as a small HTTP facade for the serve
// mode: product lookup plus an authentication status endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/foodscan/internal/domain/auth"
	"github.com/xenking/foodscan/internal/domain/price"
	"github.com/xenking/foodscan/internal/domain/product"
)

// ProductGetter resolves product records; implemented by product.Service.
type ProductGetter interface {
	GetProduct(ctx context.Context, q product.Query) (*product.Product, error)
}

// SessionStatus reports the authentication state; implemented by
// auth.SessionManager.
type SessionStatus interface {
	Status() auth.Status
}

// Handler serves the facade endpoints.
type Handler struct {
	products ProductGetter
	session  SessionStatus
}

// NewHandler creates the facade handler.
func NewHandler(products ProductGetter, session SessionStatus) *Handler {
	return &Handler{
		products: products,
		session:  session,
	}
}

// Register attaches the facade routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /product/{barcode}", h.getProduct)
	mux.HandleFunc("GET /auth/status", h.getAuthStatus)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	q := product.Query{
		Barcode:        r.PathValue("barcode"),
		IncludePricing: r.URL.Query().Get("pricing") == "true",
		Location:       r.URL.Query().Get("location"),
	}

	p, err := h.products.GetProduct(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, NewProductView(p))
}

func (h *Handler) getAuthStatus(w http.ResponseWriter, r *http.Request) {
	st := h.session.Status()
	writeJSON(w, http.StatusOK, authStatusView{
		Authenticated:  st.Authenticated,
		Method:         st.Method.String(),
		Expired:        st.Expired,
		HasCredentials: st.HasCredentials,
	})
}

// --- Views ---

type errorView struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type authStatusView struct {
	Authenticated  bool   `json:"authenticated"`
	Method         string `json:"method"`
	Expired        bool   `json:"expired"`
	HasCredentials bool   `json:"hasCredentials"`
}

// ProductView is the JSON representation of a resolved product.
type ProductView struct {
	Barcode        string       `json:"barcode"`
	Kind           string       `json:"kind"`
	Name           string       `json:"name"`
	Brand          string       `json:"brand,omitempty"`
	Ingredients    string       `json:"ingredients,omitempty"`
	Allergens      []string     `json:"allergens,omitempty"`
	NutritionGrade string       `json:"nutritionGrade,omitempty"`
	NovaGroup      *int         `json:"novaGroup,omitempty"`
	ImageURL       string       `json:"imageUrl,omitempty"`
	ImageSmallURL  string       `json:"imageSmallUrl,omitempty"`
	Language       string       `json:"language"`
	FetchedAt      time.Time    `json:"fetchedAt"`
	CurrentPrice   *priceView   `json:"currentPrice,omitempty"`
	RecentPrices   []priceView  `json:"recentPrices,omitempty"`
	PriceStats     *statsView   `json:"priceStats,omitempty"`
}

type priceView struct {
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	StoreName     string           `json:"storeName,omitempty"`
	StoreBrand    string           `json:"storeBrand,omitempty"`
	StoreLocation string           `json:"storeLocation,omitempty"`
	Date          string           `json:"date,omitempty"`
	PricePer      *decimal.Decimal `json:"pricePer,omitempty"`
	Promo         bool             `json:"promo,omitempty"`
	Source        string           `json:"source,omitempty"`
}

type statsView struct {
	Average    decimal.Decimal `json:"average"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	Currency   string          `json:"currency"`
	Count      int             `json:"count"`
	LatestDate string          `json:"latestDate,omitempty"`
}

// NewProductView converts a domain product into its JSON view.
func NewProductView(p *product.Product) ProductView {
	v := ProductView{
		Barcode:        p.Barcode,
		Kind:           string(p.Kind),
		Name:           p.Name,
		Brand:          p.Brand,
		Ingredients:    p.Ingredients,
		Allergens:      p.Allergens,
		NutritionGrade: p.NutritionGrade,
		NovaGroup:      p.NovaGroup,
		ImageURL:       p.ImageURL,
		ImageSmallURL:  p.ImageSmallURL,
		Language:       p.Language,
		FetchedAt:      p.FetchedAt,
	}
	if p.CurrentPrice != nil {
		pv := toPriceView(*p.CurrentPrice)
		v.CurrentPrice = &pv
	}
	for _, rp := range p.RecentPrices {
		v.RecentPrices = append(v.RecentPrices, toPriceView(rp))
	}
	if p.PriceStats != nil {
		v.PriceStats = &statsView{
			Average:  p.PriceStats.Average,
			Min:      p.PriceStats.Min,
			Max:      p.PriceStats.Max,
			Currency: p.PriceStats.Currency,
			Count:    p.PriceStats.Count,
		}
		if !p.PriceStats.LatestDate.IsZero() {
			v.PriceStats.LatestDate = p.PriceStats.LatestDate.Format("2006-01-02")
		}
	}
	return v
}

func toPriceView(p price.Price) priceView {
	v := priceView{
		Amount:        p.Amount,
		Currency:      p.Currency,
		StoreName:     p.StoreName,
		StoreBrand:    p.StoreBrand,
		StoreLocation: p.StoreLocation,
		PricePer:      p.PricePer,
		Promo:         p.Promo,
		Source:        p.Source,
	}
	if !p.Date.IsZero() {
		v.Date = p.Date.Format("2006-01-02")
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorView{Code: code, Message: message})
}
