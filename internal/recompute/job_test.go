package recompute_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quotes/internal/quote"
	"github.com/noah-isme/backend-quotes/internal/recompute"
)

type stubStore struct {
	quotes  []quote.StoredQuote
	failIDs map[uuid.UUID]bool
	updates int
}

func (s *stubStore) ListQuotes(_ context.Context, _ uuid.UUID) ([]quote.StoredQuote, error) {
	out := make([]quote.StoredQuote, len(s.quotes))
	copy(out, s.quotes)
	return out, nil
}

func (s *stubStore) UpdateQuoteTotals(_ context.Context, id uuid.UUID, subtotal, total decimal.Decimal) error {
	if s.failIDs[id] {
		return errors.New("connection reset")
	}
	for i := range s.quotes {
		if s.quotes[i].ID == id {
			s.quotes[i].Subtotal = subtotal
			s.quotes[i].Total = total
			s.updates++
			return nil
		}
	}
	return errors.New("quote not found")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func driftedQuote(price string, qty int64) quote.StoredQuote {
	return quote.StoredQuote{
		ID:       uuid.New(),
		Discount: quote.Discount{Type: quote.DiscountFixed, Value: decimal.Zero},
		// Stored totals drifted from what the items derive.
		Subtotal: dec("0.01"),
		Total:    dec("0.01"),
		Items:    []quote.LineItem{{Price: dec(price), Quantity: qty}},
	}
}

func newJob(store quote.Store) recompute.Job {
	return recompute.Job{Store: store, Logger: zerolog.Nop(), Epsilon: recompute.DefaultEpsilon}
}

func TestRunRepairsDriftedQuotes(t *testing.T) {
	store := &stubStore{quotes: []quote.StoredQuote{driftedQuote("10.50", 2), driftedQuote("33.33", 3)}}

	report, err := newJob(store).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)
	require.Equal(t, 2, report.Updated)
	require.Equal(t, 0, report.Unchanged)
	require.True(t, store.quotes[0].Total.Equal(dec("21.00")), "got %s", store.quotes[0].Total)
	require.True(t, store.quotes[1].Total.Equal(dec("99.99")), "got %s", store.quotes[1].Total)
	require.True(t, report.MaxDelta.GreaterThan(decimal.Zero))
	require.True(t, report.AvgDelta.GreaterThan(decimal.Zero))
}

func TestRunIsIdempotent(t *testing.T) {
	store := &stubStore{quotes: []quote.StoredQuote{driftedQuote("10.50", 2), driftedQuote("25.00", 1)}}
	job := newJob(store)

	first, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.Updated)

	second, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, second.Scanned)
	require.Equal(t, 0, second.Updated)
	require.Equal(t, 2, second.Unchanged)
}

func TestRunSkipsFailedQuoteAndContinues(t *testing.T) {
	bad := driftedQuote("10.00", 1)
	good := driftedQuote("20.00", 1)
	store := &stubStore{
		quotes:  []quote.StoredQuote{bad, good},
		failIDs: map[uuid.UUID]bool{bad.ID: true},
	}

	report, err := newJob(store).Run(context.Background())
	require.ErrorIs(t, err, recompute.ErrPartialFailure)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Updated)
	require.True(t, store.quotes[1].Total.Equal(dec("20.00")))
}

func TestRunIsolatesBadRecords(t *testing.T) {
	bad := driftedQuote("10.00", 1)
	bad.Items[0].Quantity = 0
	good := driftedQuote("20.00", 1)
	store := &stubStore{quotes: []quote.StoredQuote{bad, good}}

	report, err := newJob(store).Run(context.Background())
	require.ErrorIs(t, err, recompute.ErrPartialFailure)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Updated)
}

func TestRunStopsBetweenQuotesOnCancel(t *testing.T) {
	store := &stubStore{quotes: []quote.StoredQuote{driftedQuote("10.00", 1), driftedQuote("20.00", 1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newJob(store).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, report.Scanned)
	require.Equal(t, 0, store.updates)
}

func TestRunDryRunPersistsNothing(t *testing.T) {
	store := &stubStore{quotes: []quote.StoredQuote{driftedQuote("10.50", 2)}}
	job := newJob(store)
	job.DryRun = true

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Updated)
	require.Equal(t, 0, store.updates)
	require.True(t, store.quotes[0].Total.Equal(dec("0.01")))
}
