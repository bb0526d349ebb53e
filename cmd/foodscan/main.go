// Command foodscan resolves product barcodes against the catalog and the
// pricing service.
//
// Usage:
//
//	foodscan lookup [-pricing] [-location NAME] <barcode>
//	foodscan submit-price -amount 1.99 -currency EUR [-location-id ID] [-date YYYY-MM-DD] [-proof URL] <barcode>
//	foodscan status
//	foodscan locations
//	foodscan serve
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appkg "github.com/xenking/foodscan/internal/app"
	"github.com/xenking/foodscan/internal/domain/price"
	"github.com/xenking/foodscan/internal/domain/product"
	"github.com/xenking/foodscan/internal/httpapi"
)

const usage = "usage: foodscan <lookup|submit-price|status|locations|serve> [flags]"

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		args := os.Args[1:]
		if len(args) == 0 {
			return errors.New(usage)
		}

		a, err := appkg.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		switch args[0] {
		case "lookup":
			return runLookup(ctx, a, args[1:])
		case "submit-price":
			return runSubmitPrice(ctx, a, args[1:])
		case "status":
			return runStatus(ctx, a)
		case "locations":
			return runLocations(ctx, a)
		case "serve":
			return a.Serve(ctx, lg, m)
		default:
			return errors.Errorf("unknown command %q\n%s", args[0], usage)
		}
	})
}

func runLookup(ctx context.Context, a *appkg.App, args []string) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	pricing := fs.Bool("pricing", false, "include price enrichment")
	location := fs.String("location", "", "store location filter for recent prices")
	if err := fs.Parse(args); err != nil {
		return err
	}
	barcode := fs.Arg(0)
	if barcode == "" {
		return errors.New("usage: foodscan lookup [-pricing] [-location NAME] <barcode>")
	}

	p, err := a.Products.GetProduct(ctx, product.Query{
		Barcode:        barcode,
		IncludePricing: *pricing,
		Location:       *location,
	})
	if err != nil {
		return errors.Wrap(err, "lookup")
	}
	if p == nil {
		// Returned as an error so the run wrapper performs its shutdown
		// (credential wipe, telemetry flush) before the process exits.
		return errors.Errorf("no product found for barcode %s", barcode)
	}
	return printJSON(httpapi.NewProductView(p))
}

func runSubmitPrice(ctx context.Context, a *appkg.App, args []string) error {
	fs := flag.NewFlagSet("submit-price", flag.ContinueOnError)
	amount := fs.String("amount", "", "observed price, e.g. 1.99")
	currency := fs.String("currency", "EUR", "ISO 4217 currency code")
	locationID := fs.Int64("location-id", 0, "pricing service location ID")
	date := fs.String("date", "", "observation date (YYYY-MM-DD, default today)")
	proof := fs.String("proof", "", "proof image URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	barcode := fs.Arg(0)
	if barcode == "" || *amount == "" {
		return errors.New("usage: foodscan submit-price -amount 1.99 [-currency EUR] [-location-id ID] [-date YYYY-MM-DD] [-proof URL] <barcode>")
	}
	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return errors.Wrap(err, "parse amount")
	}
	var when time.Time
	if *date != "" {
		if when, err = time.Parse("2006-01-02", *date); err != nil {
			return errors.Wrap(err, "parse date")
		}
	}

	if err := a.Prices.Submit(ctx, price.Submission{
		Barcode:    barcode,
		Amount:     value,
		Currency:   *currency,
		LocationID: *locationID,
		Date:       when,
		ProofURL:   *proof,
	}); err != nil {
		return errors.Wrap(err, "submit price")
	}
	fmt.Printf("submitted %s %s for %s\n", value.String(), *currency, barcode)
	return nil
}

func runStatus(ctx context.Context, a *appkg.App) error {
	status := a.Session.Status()
	reachable := true
	if err := a.PricesAPI.Status(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pricing service unreachable: %v\n", err)
		reachable = false
	}
	return printJSON(struct {
		Authenticated  bool   `json:"authenticated"`
		Method         string `json:"method"`
		Expired        bool   `json:"expired"`
		HasCredentials bool   `json:"hasCredentials"`
		Reachable      bool   `json:"reachable"`
	}{
		Authenticated:  status.Authenticated,
		Method:         status.Method.String(),
		Expired:        status.Expired,
		HasCredentials: status.HasCredentials,
		Reachable:      reachable,
	})
}

func runLocations(ctx context.Context, a *appkg.App) error {
	locations, err := a.PricesAPI.Locations(ctx)
	if err != nil {
		return errors.Wrap(err, "list locations")
	}
	return printJSON(locations)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
