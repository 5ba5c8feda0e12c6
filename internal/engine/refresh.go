package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/product-price-tracker/internal/metrics"
	"github.com/donaldgifford/product-price-tracker/internal/notify"
	"github.com/donaldgifford/product-price-tracker/internal/scrape"
	"github.com/donaldgifford/product-price-tracker/pkg/pricing"
	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// RunRefresh executes one refresh cycle over every stored product.
//
// Products are refreshed independently, at most concurrency at a time, and
// one product's failure never affects another. The only hard failure is
// being unable to list products, reported as ErrStoreRead.
func (eng *Engine) RunRefresh(ctx context.Context) (*domain.CycleSummary, error) {
	start := eng.nowFunc()
	ctx, span := eng.tracer.Start(ctx, "engine.RunRefresh")
	defer span.End()

	runID := eng.startJobRun(ctx)

	products, err := eng.store.ListProducts(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrStoreRead, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing products")
		metrics.RefreshCyclesTotal.WithLabelValues("error").Inc()
		eng.finishJobRun(ctx, runID, err, 0)
		return nil, err
	}
	metrics.TrackedProducts.Set(float64(len(products)))
	span.SetAttributes(attribute.Int("refresh.products", len(products)))

	cycleCtx, cancel := context.WithTimeout(ctx, eng.timeout)
	defer cancel()

	// Each goroutine writes only its own slot.
	outcomes := make([]domain.RefreshOutcome, len(products))

	var g errgroup.Group
	g.SetLimit(eng.concurrency)
	for i := range products {
		g.Go(func() error {
			outcomes[i] = eng.refreshProduct(cycleCtx, &products[i])
			return nil
		})
	}
	_ = g.Wait()

	summary := &domain.CycleSummary{
		StartedAt:   start,
		CompletedAt: eng.nowFunc(),
		Outcomes:    outcomes,
	}
	summary.Tally()

	metrics.RefreshDuration.Observe(summary.CompletedAt.Sub(start).Seconds())
	metrics.RefreshCyclesTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.Int("refresh.succeeded", summary.Succeeded),
		attribute.Int("refresh.failed", summary.Failed),
		attribute.Int("refresh.notified", summary.Notified),
	)

	eng.log.Info("refresh cycle complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"notified", summary.Notified,
		"duration", summary.CompletedAt.Sub(start),
	)
	eng.finishJobRun(ctx, runID, nil, summary.Succeeded)

	return summary, nil
}

// refreshProduct runs fetch, merge, persist, decide, and notify for one
// product. Errors are captured in the outcome, never returned.
func (eng *Engine) refreshProduct(ctx context.Context, prev *domain.Product) domain.RefreshOutcome {
	ctx, span := eng.tracer.Start(ctx, "engine.refreshProduct",
		trace.WithAttributes(attribute.String("product.url", prev.URL)),
	)
	defer span.End()

	out := domain.RefreshOutcome{URL: prev.URL}

	if err := ctx.Err(); err != nil {
		return eng.fail(span, out, domain.StageFetch, fmt.Errorf("refresh budget exhausted: %w", err))
	}

	snap, err := eng.fetcher.Fetch(ctx, prev.URL)
	if err == nil && snap == nil {
		err = scrape.ErrEmptySnapshot
	}
	if err != nil {
		return eng.fail(span, out, domain.StageFetch, fmt.Errorf("fetching snapshot: %w", err))
	}

	next := MergeSnapshot(prev, snap, eng.nowFunc())
	updated, err := eng.store.UpsertProduct(ctx, next)
	if err != nil {
		return eng.fail(span, out, domain.StagePersist, fmt.Errorf("persisting product: %w", err))
	}
	out.Product = updated

	// Decide against the pre-update state.
	category := pricing.Decide(snap, prev, eng.decideOpts...)
	out.Notification = category

	recipients := updated.SubscriberEmails()
	if category != domain.NoNotification && len(recipients) > 0 {
		if err := eng.notifier.Dispatch(ctx, category, notify.InfoFromProduct(updated), recipients); err != nil {
			return eng.fail(span, out, domain.StageNotify, err)
		}
		out.Notified = true
	}

	out.Status = domain.OutcomeSuccess
	metrics.RefreshProductsTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	span.SetAttributes(attribute.String("refresh.notification", string(category)))
	return out
}

func (eng *Engine) fail(
	span trace.Span,
	out domain.RefreshOutcome,
	stage domain.Stage,
	err error,
) domain.RefreshOutcome {
	out.Status = domain.OutcomeFailed
	out.Stage = stage
	out.Error = err.Error()

	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage))
	metrics.RefreshProductsTotal.WithLabelValues(string(domain.OutcomeFailed)).Inc()
	metrics.RefreshFailuresTotal.WithLabelValues(string(stage)).Inc()

	eng.log.Warn("product refresh failed",
		"url", out.URL,
		"stage", string(stage),
		"error", err,
	)
	return out
}

// startJobRun records the cycle start. Bookkeeping failures are logged and
// never block the refresh itself.
func (eng *Engine) startJobRun(ctx context.Context) string {
	id, err := eng.store.InsertJobRun(ctx, RefreshJobName)
	if err != nil {
		eng.log.Warn("recording job run start", "error", err)
		return ""
	}
	return id
}

func (eng *Engine) finishJobRun(ctx context.Context, id string, runErr error, rows int) {
	if id == "" {
		return
	}

	status, errText := domain.JobSucceeded, ""
	if runErr != nil {
		status, errText = domain.JobFailed, runErr.Error()
	}

	// The cycle context may be near its deadline; bookkeeping gets its own.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := eng.store.CompleteJobRun(ctx, id, status, errText, rows); err != nil {
		eng.log.Warn("recording job run completion", "id", id, "error", err)
	}
}
