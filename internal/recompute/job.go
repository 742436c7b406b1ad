// Package recompute implements the batch repair job that re-derives every
// persisted quote's totals from its stored inputs and writes back only the
// records whose cached values have drifted.
package recompute

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-quotes/internal/quote"
)

// ErrPartialFailure signals that at least one quote could not be repaired.
// The rest of the run still completed; the command uses this to exit non-zero.
var ErrPartialFailure = errors.New("recompute: one or more quotes failed")

// DefaultEpsilon is the drift threshold below which stored totals are treated
// as already correct.
var DefaultEpsilon = decimal.RequireFromString("0.001")

// Report aggregates the outcome of one recomputation run.
type Report struct {
	Scanned   int
	Updated   int
	Unchanged int
	Failed    int
	AvgDelta  decimal.Decimal
	MaxDelta  decimal.Decimal
}

// Job walks all persisted quotes, recomputes canonical totals, and persists
// corrections. Failures on individual quotes are logged and skipped so one bad
// record cannot halt the repair of all others.
type Job struct {
	Store      quote.Store
	Logger     zerolog.Logger
	Epsilon    decimal.Decimal
	BusinessID uuid.UUID
	DryRun     bool
}

// Run executes the job. Quotes are processed sequentially; cancellation is
// honored between quotes, never mid-quote, so every processed record is left
// in a consistent state. Running twice in a row yields zero further updates.
func (j Job) Run(ctx context.Context) (Report, error) {
	epsilon := j.Epsilon
	if epsilon.IsNegative() {
		epsilon = DefaultEpsilon
	}

	quotes, err := j.Store.ListQuotes(ctx, j.BusinessID)
	if err != nil {
		return Report{}, err
	}

	var report Report
	deltaSum := decimal.Zero
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		totals, err := quote.ComputeTotals(q.Items, q.Discount)
		if err != nil {
			report.Failed++
			j.Logger.Error().Err(err).Str("quote_id", q.ID.String()).Msg("compute totals")
			continue
		}

		delta := decimal.Max(totals.Subtotal.Sub(q.Subtotal).Abs(), totals.Total.Sub(q.Total).Abs())
		if delta.LessThanOrEqual(epsilon) {
			report.Unchanged++
			continue
		}

		if !j.DryRun {
			if err := j.Store.UpdateQuoteTotals(ctx, q.ID, totals.Subtotal, totals.Total); err != nil {
				report.Failed++
				j.Logger.Error().Err(err).Str("quote_id", q.ID.String()).Msg("persist totals")
				continue
			}
		}

		report.Updated++
		deltaSum = deltaSum.Add(delta)
		if delta.GreaterThan(report.MaxDelta) {
			report.MaxDelta = delta
		}
		j.Logger.Info().
			Str("quote_id", q.ID.String()).
			Str("subtotal", totals.Subtotal.String()).
			Str("total", totals.Total.String()).
			Str("delta", delta.String()).
			Bool("dry_run", j.DryRun).
			Msg("quote totals corrected")
	}

	if report.Updated > 0 {
		report.AvgDelta = deltaSum.Div(decimal.NewFromInt(int64(report.Updated))).Round(4)
	}
	if report.Failed > 0 {
		return report, ErrPartialFailure
	}
	return report, nil
}
