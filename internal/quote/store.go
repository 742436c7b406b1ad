package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrStoreUnavailable indicates the store dependency is not configured.
var ErrStoreUnavailable = errors.New("quote: store unavailable")

// Store provides database access for quotes and their recomputed totals.
type Store interface {
	// ListQuotes returns every quote with its items and, for package-linked
	// items, the package's current discount terms. A uuid.Nil businessID
	// lists quotes across all businesses.
	ListQuotes(ctx context.Context, businessID uuid.UUID) ([]StoredQuote, error)
	// UpdateQuoteTotals writes freshly computed subtotal and total back to a
	// single quote record.
	UpdateQuoteTotals(ctx context.Context, id uuid.UUID, subtotal, total decimal.Decimal) error
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

// ListQuotes loads quote records and their items, resolving each
// package-linked item's current discount terms through the join. Numeric
// columns travel as text and are parsed into decimals so stored money never
// passes through binary floating point.
func (s *pgStore) ListQuotes(ctx context.Context, businessID uuid.UUID) ([]StoredQuote, error) {
	if s == nil || s.pool == nil {
		return nil, ErrStoreUnavailable
	}

	quotes, order, err := s.listQuoteRecords(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT qi.quote_id, qi.price::text, qi.quantity,
       p.id IS NOT NULL, COALESCE(p.discount_type, ''), COALESCE(p.discount_value, 0)::text
FROM quote_items qi
LEFT JOIN packages p ON p.id = qi.package_id
JOIN quotes q ON q.id = qi.quote_id
WHERE $1::uuid IS NULL OR q.business_id = $1
ORDER BY qi.quote_id, qi.id`, nullableUUID(businessID))
	if err != nil {
		return nil, fmt.Errorf("list quote items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var quoteID uuid.UUID
		var priceText, pkgType, pkgValueText string
		var quantity int64
		var hasPackage bool
		if err := rows.Scan(&quoteID, &priceText, &quantity, &hasPackage, &pkgType, &pkgValueText); err != nil {
			return nil, fmt.Errorf("scan quote item: %w", err)
		}
		q, ok := quotes[quoteID]
		if !ok {
			continue
		}
		it := LineItem{Quantity: quantity}
		if it.Price, err = decimal.NewFromString(priceText); err != nil {
			return nil, fmt.Errorf("quote %s: parse item price: %w", quoteID, err)
		}
		if hasPackage {
			value, err := decimal.NewFromString(pkgValueText)
			if err != nil {
				return nil, fmt.Errorf("quote %s: parse package discount: %w", quoteID, err)
			}
			it.PackageDiscount = &Discount{Type: DiscountType(pkgType), Value: value}
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]StoredQuote, 0, len(order))
	for _, id := range order {
		result = append(result, *quotes[id])
	}
	return result, nil
}

func (s *pgStore) listQuoteRecords(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]*StoredQuote, []uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, business_id, discount_type, discount_value::text, subtotal::text, total::text
FROM quotes
WHERE $1::uuid IS NULL OR business_id = $1
ORDER BY id`, nullableUUID(businessID))
	if err != nil {
		return nil, nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make(map[uuid.UUID]*StoredQuote)
	var order []uuid.UUID
	for rows.Next() {
		var q StoredQuote
		var discountType string
		var valueText, subtotalText, totalText string
		if err := rows.Scan(&q.ID, &q.BusinessID, &discountType, &valueText, &subtotalText, &totalText); err != nil {
			return nil, nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Discount.Type = DiscountType(discountType)
		if q.Discount.Value, err = decimal.NewFromString(valueText); err != nil {
			return nil, nil, fmt.Errorf("quote %s: parse discount value: %w", q.ID, err)
		}
		if q.Subtotal, err = decimal.NewFromString(subtotalText); err != nil {
			return nil, nil, fmt.Errorf("quote %s: parse subtotal: %w", q.ID, err)
		}
		if q.Total, err = decimal.NewFromString(totalText); err != nil {
			return nil, nil, fmt.Errorf("quote %s: parse total: %w", q.ID, err)
		}
		quotes[q.ID] = &q
		order = append(order, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return quotes, order, nil
}

func (s *pgStore) UpdateQuoteTotals(ctx context.Context, id uuid.UUID, subtotal, total decimal.Decimal) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quotes SET subtotal = $2::numeric, total = $3::numeric, updated_at = now() WHERE id = $1`,
		id, subtotal.String(), total.String())
	if err != nil {
		return fmt.Errorf("update quote totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update quote totals: quote %s not found", id)
	}
	return nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
