package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/cart-totals/internal/obs"
	"github.com/noah-isme/cart-totals/internal/pricing"
)

type cartFile struct {
	Items []struct {
		Price       float64 `json:"price"`
		Quantity    float64 `json:"quantity"`
		IsTaxExempt bool    `json:"isTaxExempt"`
	} `json:"items"`
	DiscountPercent float64 `json:"discountPercent"`
	TaxRate         float64 `json:"taxRate"`
}

type lineJSON struct {
	Index     int     `json:"index"`
	Gross     float64 `json:"gross"`
	Discount  float64 `json:"discount"`
	Net       float64 `json:"net"`
	Tax       float64 `json:"tax"`
	TaxExempt bool    `json:"taxExempt"`
}

func main() {
	logger := obs.NewLoggerTo(os.Stderr, "console", os.Getenv("OBS_LOG_LEVEL"))
	if err := run(os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("carttotals failed")
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("carttotals", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("file", "", "path to a JSON cart; stdin when empty")
	discount := fs.Float64("discount", -1, "discount percent overriding the cart file")
	tax := fs.Float64("tax", -1, "tax rate percent overriding the cart file")
	lines := fs.Bool("lines", false, "print the per-line breakdown")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("open cart: %w", err)
		}
		defer f.Close()
		in = f
	}
	var cart cartFile
	if err := json.NewDecoder(in).Decode(&cart); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode cart: %w", err)
	}

	// flags left at their sentinel keep the file values
	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if setFlags["discount"] {
		cart.DiscountPercent = *discount
	}
	if setFlags["tax"] {
		cart.TaxRate = *tax
	}

	items := make([]pricing.CartItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, pricing.CartItem{Price: it.Price, Quantity: it.Quantity, IsTaxExempt: it.IsTaxExempt})
	}
	b, err := pricing.CalculateBreakdown(items, cart.DiscountPercent, cart.TaxRate)
	if err != nil {
		return err
	}
	logger.Debug().Int("items", len(items)).Float64("total", b.Total).Msg("cart priced")

	if *asJSON {
		out := map[string]any{
			"subtotal": b.Subtotal,
			"discount": b.Discount,
			"tax":      b.Tax,
			"total":    b.Total,
		}
		if *lines {
			rows := make([]lineJSON, 0, len(b.Lines))
			for _, l := range b.Lines {
				rows = append(rows, lineJSON{Index: l.Index, Gross: l.Gross, Discount: l.Discount, Net: l.Discounted, Tax: l.Tax, TaxExempt: l.TaxExempt})
			}
			out["lines"] = rows
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printTable(stdout, b, *lines)
}

func printTable(w io.Writer, b pricing.Breakdown, withLines bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if withLines {
		fmt.Fprintln(tw, "line\tgross\tdiscount\tnet\ttax\t")
		for _, l := range b.Lines {
			tax := amount(l.Tax)
			if l.TaxExempt {
				tax = "exempt"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", l.Index+1, amount(l.Gross), amount(l.Discount), amount(l.Discounted), tax)
		}
		fmt.Fprintln(tw, "\t\t\t\t\t")
	}
	fmt.Fprintf(tw, "subtotal\t%s\t\n", amount(b.Subtotal))
	fmt.Fprintf(tw, "discount\t%s\t\n", amount(b.Discount))
	fmt.Fprintf(tw, "tax\t%s\t\n", amount(b.Tax))
	fmt.Fprintf(tw, "total\t%s\t\n", amount(b.Total))
	return tw.Flush()
}

func amount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
