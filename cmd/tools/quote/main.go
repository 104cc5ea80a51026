// Command quote prices a cart file (or the built-in demo cart) in one or all
// calculation modes and prints the summaries.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/noah-isme/promo-engine/internal/obs"
	"github.com/noah-isme/promo-engine/internal/pricing"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/quote"
	"github.com/noah-isme/promo-engine/internal/rulebook"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "quote:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cartPath = fs.String("cart", "", "JSON quote request (user, items, optional rules); demo cart when empty")
		source   = fs.String("rules", os.Getenv("RULEBOOK_SOURCE"), "rulebook file or URL used when the cart carries no rules")
		mode     = fs.String("mode", "all", "independent, sequential, lock or all")
		asJSON   = fs.Bool("json", false, "print summaries as JSON")
		verbose  = fs.Bool("v", false, "log rule evaluation and allocations")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := obs.NewLoggerTo(stderr, "console", level)

	req := demoRequest()
	if *cartPath != "" {
		loaded, err := readRequest(*cartPath)
		if err != nil {
			return err
		}
		req = loaded
	}

	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	book, err := rulebook.NewLoader(nil, logger).Load(loadCtx, *source)
	if err != nil {
		return err
	}
	if len(req.Rules) > 0 && *source != "" && *cartPath == "" {
		req.Rules = nil
	}

	svc := quote.NewService(quote.ServiceConfig{Rules: book, Logger: logger})
	summaries, err := price(ctx, svc, req, *mode)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	return printSummaries(stdout, summaries)
}

func price(ctx context.Context, svc *quote.Service, req quote.Request, mode string) ([]promotion.Summary, error) {
	if strings.EqualFold(strings.TrimSpace(mode), "all") {
		cmp, err := svc.Compare(ctx, req)
		if err != nil {
			return nil, err
		}
		return cmp.Summaries, nil
	}
	req.Mode = mode
	q, err := svc.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return []promotion.Summary{q.Summary}, nil
}

func readRequest(path string) (quote.Request, error) {
	var req quote.Request
	f, err := os.Open(path)
	if err != nil {
		return req, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}

func printSummaries(w io.Writer, summaries []promotion.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "== %s ==\n", s.Mode)
		fmt.Fprintf(tw, "original\t%s\n", pricing.Format(s.Original))
		fmt.Fprintf(tw, "discount\t-%s\n", pricing.Format(s.Discount))
		fmt.Fprintf(tw, "final\t%s\n", pricing.Format(s.Final))
		for _, d := range s.Details {
			fmt.Fprintf(tw, "  - %s\n", d)
		}
		for _, o := range s.Outcomes {
			if o.Outcome != promotion.OutcomeApplied {
				fmt.Fprintf(tw, "  x %s\t%s\t%s\n", o.Rule, o.Outcome, o.Description)
			}
		}
		for _, item := range s.Items {
			fmt.Fprintf(tw, "  %s\t%s -> %s\tx%d\n", item.Name, pricing.Format(item.OriginalPrice), pricing.Format(item.Price), item.Qty)
		}
	}
	return tw.Flush()
}
