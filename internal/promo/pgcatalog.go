package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const queryCandidates = `
SELECT id, name, kind, base_value::text,
       COALESCE(tier_thresholds, '{}'), COALESCE(tier_values, '{}')::text[],
       COALESCE(min_scope_total, 0),
       COALESCE(product_codes, '{}'), COALESCE(product_group_codes, '{}'),
       COALESCE(payment_terms, '{}'),
       valid_from, valid_to,
       COALESCE(urgency_tier, 0), COALESCE(secondary_discount, false),
       COALESCE(leadtime_half_days, 0), COALESCE(category, '')
FROM promotions
WHERE (cardinality(product_codes) = 0
       OR $1 = ANY(product_codes)
       OR cardinality(product_group_codes) > 0)
  AND ($2 = '' OR cardinality(payment_terms) = 0 OR $2 = ANY(payment_terms))
ORDER BY catalog_rank, id
`

// PGCatalog reads promotion candidates from Postgres. Rows come back in
// catalog order (catalog_rank, then id), which the resolver relies on for
// tie-breaking.
type PGCatalog struct {
	Pool *pgxpool.Pool
}

// Query implements Catalog. Group-scoped promotions are returned for every
// product; the resolver narrows them by the line's group code.
func (c *PGCatalog) Query(ctx context.Context, productCode, customerCode, paymentTerms string) ([]Promotion, error) {
	rows, err := c.Pool.Query(ctx, queryCandidates,
		strings.TrimSpace(productCode), strings.TrimSpace(paymentTerms))
	if err != nil {
		return nil, fmt.Errorf("promo: query candidates: %w", err)
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var (
			p          Promotion
			kind       string
			baseValue  string
			tierValues []string
			validFrom  *time.Time
			validTo    *time.Time
		)
		if err := rows.Scan(&p.ID, &p.Name, &kind, &baseValue,
			&p.TierThresholds, &tierValues, &p.MinScopeTotal,
			&p.ProductCodes, &p.ProductGroupCodes, &p.PaymentTermsScope,
			&validFrom, &validTo,
			&p.UrgencyTier, &p.Secondary,
			&p.LeadtimeHalfDays, &p.Category); err != nil {
			return nil, fmt.Errorf("promo: scan candidate: %w", err)
		}
		p.ID = NormalizeID(p.ID)
		p.Kind = Kind(strings.ToLower(strings.TrimSpace(kind)))
		p.BaseValue = parseDecimal(baseValue)
		p.TierValues = make([]decimal.Decimal, 0, len(tierValues))
		for _, v := range tierValues {
			p.TierValues = append(p.TierValues, parseDecimal(v))
		}
		p.ValidFrom = validFrom
		p.ValidTo = validTo
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("promo: iterate candidates: %w", err)
	}
	return out, nil
}

// parseDecimal treats malformed stored values as zero. A zero threshold or
// value means "no condition" rather than a hard failure.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
