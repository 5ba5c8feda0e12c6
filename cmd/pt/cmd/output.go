package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printProductsTable(w io.Writer, products []domain.Product) error {
	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tPRICE\tLOWEST\tDISCOUNT\tSTOCK\tSUBSCRIBERS\n")
	for i := range products {
		p := &products[i]
		tw.writef("%s\t%s\t%s\t%s\t%.0f%%\t%s\t%d\n",
			p.ID,
			truncate(p.Title, 40),
			pricing.FormatPrice(p.Currency, p.CurrentPrice),
			pricing.FormatPrice(p.Currency, p.LowestPrice),
			p.DiscountRate,
			stockLabel(p.IsOutOfStock),
			len(p.Users),
		)
	}
	return tw.finish()
}

func printProductDetail(w io.Writer, p *domain.Product) error {
	tw := newTabWriter(w)
	tw.writef("ID:\t%s\n", p.ID)
	tw.writef("Title:\t%s\n", p.Title)
	tw.writef("URL:\t%s\n", p.URL)
	tw.writef("Price:\t%s\n", pricing.FormatPrice(p.Currency, p.CurrentPrice))
	tw.writef("Original:\t%s\n", pricing.FormatPrice(p.Currency, p.OriginalPrice))
	tw.writef("Discount:\t%.0f%%\n", p.DiscountRate)
	tw.writef("Stock:\t%s\n", stockLabel(p.IsOutOfStock))
	tw.writef("Lowest:\t%s\n", pricing.FormatPrice(p.Currency, p.LowestPrice))
	tw.writef("Highest:\t%s\n", pricing.FormatPrice(p.Currency, p.HighestPrice))
	tw.writef("Average:\t%s\n", pricing.FormatPrice(p.Currency, p.AveragePrice))
	tw.writef("Observations:\t%d\n", len(p.PriceHistory))
	tw.writef("Subscribers:\t%d\n", len(p.Users))
	return tw.finish()
}

func printCycleSummary(w io.Writer, s *domain.CycleSummary) error {
	tw := newTabWriter(w)
	tw.writef("Products:\t%d\n", s.Total)
	tw.writef("Succeeded:\t%d\n", s.Succeeded)
	tw.writef("Failed:\t%d\n", s.Failed)
	tw.writef("Notified:\t%d\n", s.Notified)
	tw.writef("Duration:\t%s\n", s.CompletedAt.Sub(s.StartedAt))
	if s.Failed > 0 {
		tw.writef("\nURL\tSTAGE\tERROR\n")
		for i := range s.Outcomes {
			o := &s.Outcomes[i]
			if o.Status != domain.OutcomeFailed {
				continue
			}
			tw.writef("%s\t%s\t%s\n", truncate(o.URL, 50), o.Stage, truncate(o.Error, 60))
		}
	}
	return tw.finish()
}

func printJobRunsTable(w io.Writer, runs []domain.JobRun) error {
	tw := newTabWriter(w)
	tw.writef("JOB\tSTATUS\tSTARTED\tCOMPLETED\tROWS\tERROR\n")
	for i := range runs {
		r := &runs[i]
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(timeLayout)
		}
		rows := "-"
		if r.RowsAffected != nil {
			rows = fmt.Sprintf("%d", *r.RowsAffected)
		}
		tw.writef("%s\t%s\t%s\t%s\t%s\t%s\n",
			r.JobName,
			r.Status,
			r.StartedAt.Format(timeLayout),
			completed,
			rows,
			truncate(r.ErrorText, 40),
		)
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stockLabel(outOfStock bool) string {
	if outOfStock {
		return "out of stock"
	}
	return "in stock"
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
