// Package engine orchestrates promotion resolution, pricing and delivery
// scheduling over a full order line set. A pass reads a consistent snapshot
// of the lines, recomputes everything and returns a replacement list; passes
// are serialized, so concurrent edits resolve as last writer wins at the list
// level.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/minh-tn/salesorder-core/internal/common"
	"github.com/minh-tn/salesorder-core/internal/district"
	"github.com/minh-tn/salesorder-core/internal/inventory"
	"github.com/minh-tn/salesorder-core/internal/obs"
	"github.com/minh-tn/salesorder-core/internal/order"
	"github.com/minh-tn/salesorder-core/internal/pricing"
	"github.com/minh-tn/salesorder-core/internal/promo"
	"github.com/minh-tn/salesorder-core/internal/schedule"
)

// ErrInvalidLine wraps per-line validation failures so callers can map them
// to a bad-request response.
var ErrInvalidLine = errors.New("engine: invalid order line")

// ErrDiscountConfig is returned when a resolved discount produces a negative
// unit price. The order entry must surface this as a configuration problem,
// not swallow it.
var ErrDiscountConfig = errors.New("engine: discount configuration error")

// Engine wires the resolver, the price calculator and the delivery scheduler
// to their collaborators.
type Engine struct {
	Catalog   promo.Catalog
	Inventory inventory.Service
	District  district.Source
	Scheduler *schedule.Scheduler
	Logger    zerolog.Logger
	Now       func() time.Time

	// SurchargeRate is applied informationally to the final unit price when
	// the order matches SurchargeIndustry under SurchargeVATMode. It never
	// feeds subtotal, VAT or promotion thresholds.
	SurchargeRate     decimal.Decimal
	SurchargeIndustry string
	SurchargeVATMode  string

	mu sync.Mutex
}

// snapshotFacts is everything a pass fetches up front from collaborators.
type snapshotFacts struct {
	candidates   map[string][]promo.Promotion
	stock        map[string]inventory.Snapshot
	stockKnown   map[string]bool
	districtDays int
}

// ResolveOrder runs a full pass over the line set: promotion resolution,
// pricing and delivery scheduling. The input is not mutated; the returned
// slice preserves insertion order.
func (e *Engine) ResolveOrder(ctx context.Context, ord order.Order) ([]order.Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pass(ctx, ord.Lines, ord.Context)
}

// OnLineSetChanged is the committed-edit entry point: call it after a line is
// added, edited or deleted, never per keystroke. Scope totals are only valid
// for the full current line set, so partial input would misprice siblings.
func (e *Engine) OnLineSetChanged(ctx context.Context, ord order.Order) ([]order.Line, error) {
	return e.ResolveOrder(ctx, ord)
}

// CommitLine reserves stock for the new line and, on success, appends it and
// re-runs the pass. The line is not committed when reservation fails.
func (e *Engine) CommitLine(ctx context.Context, ord order.Order, line order.Line) ([]order.Line, error) {
	if err := line.Validate(); err != nil {
		return nil, invalidLineError(fmt.Errorf("%w: %w", ErrInvalidLine, err))
	}
	if err := e.Inventory.Reserve(ctx, line.ProductCode, ord.Context.WarehouseCode, baseQuantity(line)); err != nil {
		reservationMetric("reserve", "error")
		if errors.Is(err, inventory.ErrInsufficientStock) {
			return nil, common.NewAppError("INSUFFICIENT_STOCK", "not enough stock to reserve",
				http.StatusConflict, fmt.Errorf("engine: reserve stock: %w", err))
		}
		return nil, fmt.Errorf("engine: reserve stock: %w", err)
	}
	reservationMetric("reserve", "ok")
	ord.Lines = append(append([]order.Line{}, ord.Lines...), line)
	return e.ResolveOrder(ctx, ord)
}

// RemoveLine releases the line's reservation, drops it from the set and
// re-runs the pass.
func (e *Engine) RemoveLine(ctx context.Context, ord order.Order, index int) ([]order.Line, error) {
	if index < 0 || index >= len(ord.Lines) {
		return nil, invalidLineError(fmt.Errorf("%w: line index %d out of range", ErrInvalidLine, index))
	}
	removed := ord.Lines[index]
	if err := e.Inventory.Release(ctx, removed.ProductCode, ord.Context.WarehouseCode, baseQuantity(removed)); err != nil {
		// A failed release leaves stock over-reserved until the snapshot is
		// refreshed; it must not block removing the line.
		reservationMetric("release", "error")
		e.Logger.Warn().Err(err).Str("product", removed.ProductCode).Msg("release reservation")
	} else {
		reservationMetric("release", "ok")
	}
	lines := append([]order.Line{}, ord.Lines[:index]...)
	lines = append(lines, ord.Lines[index+1:]...)
	ord.Lines = lines
	return e.ResolveOrder(ctx, ord)
}

// ScheduleDelivery computes the promised delivery date for a single line
// using the current collaborator snapshots.
func (e *Engine) ScheduleDelivery(ctx context.Context, line order.Line, octx order.Context) (time.Time, error) {
	if err := line.Validate(); err != nil {
		return time.Time{}, invalidLineError(fmt.Errorf("%w: %w", ErrInvalidLine, err))
	}
	facts := e.fetch(ctx, []order.Line{line}, octx)
	promised, branch := e.Scheduler.Promise(e.scheduleInput(line, octx, facts))
	branchMetric(branch)
	return promised, nil
}

func (e *Engine) pass(ctx context.Context, lines []order.Line, octx order.Context) ([]order.Line, error) {
	started := time.Now()
	passID := uuid.NewString()
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			passMetric("invalid_input")
			return nil, invalidLineError(fmt.Errorf("%w: line %d: %w", ErrInvalidLine, i, err))
		}
	}

	facts := e.fetch(ctx, lines, octx)
	resolved := promo.Resolve(lines, facts.candidates, octx.PaymentTerms, e.now())

	for i := range resolved {
		line := &resolved[i]
		breakdown, err := pricing.Price(pricing.Inputs{
			BasePrice:       line.BasePrice,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
			DiscountAmount:  line.DiscountAmount,
			VATRate:         line.VATRate,
			SurchargeRate:   e.surchargeRate(octx),
		})
		if err != nil {
			passMetric("discount_config")
			return nil, common.NewAppError("DISCOUNT_CONFIG", "discount configuration produces a negative price",
				http.StatusUnprocessableEntity, fmt.Errorf("%w: line %d (%s): %w", ErrDiscountConfig, i, line.ProductCode, err))
		}
		line.Subtotal = breakdown.Subtotal
		line.VATAmount = breakdown.VATAmount
		line.TotalAmount = breakdown.Total

		promised, branch := e.Scheduler.Promise(e.scheduleInput(*line, octx, facts))
		branchMetric(branch)
		line.DeliveryDate = &promised

		if line.AppliedPromotion != "" && obs.PromotionAppliedTotal != nil {
			obs.PromotionAppliedTotal.WithLabelValues(string(promo.KindPercent)).Inc()
		}
	}

	passMetric("ok")
	if obs.ResolutionPassDuration != nil {
		obs.ResolutionPassDuration.Observe(obs.DurationMillis(time.Since(started)))
	}
	e.Logger.Debug().
		Str("pass_id", passID).
		Int("lines", len(resolved)).
		Str("warehouse", octx.WarehouseCode).
		Dur("took", time.Since(started)).
		Msg("resolution pass complete")
	return resolved, nil
}

// fetch gathers promotion candidates, stock snapshots and the district
// commitment concurrently. The lookups are read-only and idempotent, so no
// ordering between them is required. Collaborator failures degrade: a failed
// catalog lookup means zero candidates for that product, a failed snapshot
// marks stock unknown, a failed district lookup means no commitment.
func (e *Engine) fetch(ctx context.Context, lines []order.Line, octx order.Context) snapshotFacts {
	products := order.DistinctProductCodes(lines)
	facts := snapshotFacts{
		candidates: make(map[string][]promo.Promotion, len(products)),
		stock:      make(map[string]inventory.Snapshot, len(products)),
		stockKnown: make(map[string]bool, len(products)),
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, code := range products {
		g.Go(func() error {
			promotions, err := e.Catalog.Query(gctx, code, octx.CustomerCode, octx.PaymentTerms)
			if err != nil {
				if obs.CatalogFailureTotal != nil {
					obs.CatalogFailureTotal.Inc()
				}
				e.Logger.Warn().Err(err).Str("product", code).Msg("promotion catalog unreachable, failing open")
				promotions = nil
			}
			mu.Lock()
			facts.candidates[code] = promotions
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			snap, err := e.Inventory.Get(gctx, code, octx.WarehouseCode, octx.VATMode)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, inventory.ErrSnapshotNotFound) {
					if obs.InventoryFailureTotal != nil {
						obs.InventoryFailureTotal.Inc()
					}
					e.Logger.Warn().Err(err).Str("product", code).Msg("inventory snapshot unavailable")
				}
				facts.stockKnown[code] = false
				return nil
			}
			facts.stock[code] = snap
			facts.stockKnown[code] = true
			return nil
		})
	}
	g.Go(func() error {
		days, err := e.District.Leadtime(gctx, districtKey(octx))
		if err != nil {
			e.Logger.Warn().Err(err).Str("district", districtKey(octx)).Msg("district leadtime unavailable")
			days = 0
		}
		mu.Lock()
		facts.districtDays = days
		mu.Unlock()
		return nil
	})
	_ = g.Wait()
	return facts
}

func (e *Engine) scheduleInput(line order.Line, octx order.Context, facts snapshotFacts) schedule.Input {
	in := schedule.Input{
		WarehouseCode:    octx.WarehouseCode,
		OrderedAt:        octx.CreatedAt,
		DistrictLeadDays: facts.districtDays,
		ProductLeadDays:  line.ProductLeadDays,
		RequestedBaseQty: baseQuantity(line),
		Channel:          octx.CustomerChannel,
	}
	if snap, ok := facts.stock[line.ProductCode]; ok {
		in.AvailableStock = snap.AvailableToSell
		in.StockKnown = facts.stockKnown[line.ProductCode]
	}
	if line.AppliedPromotion != "" {
		if p, ok := findPromotion(facts.candidates[line.ProductCode], line.AppliedPromotion); ok {
			in.Promotion = &p
		}
	}
	return in
}

func (e *Engine) surchargeRate(octx order.Context) decimal.Decimal {
	if e.SurchargeIndustry == "" || e.SurchargeVATMode == "" {
		return decimal.Zero
	}
	if strings.EqualFold(octx.CustomerIndustry, e.SurchargeIndustry) &&
		strings.EqualFold(octx.VATMode, e.SurchargeVATMode) {
		return e.SurchargeRate
	}
	return decimal.Zero
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func findPromotion(candidates []promo.Promotion, id string) (promo.Promotion, bool) {
	for _, p := range candidates {
		if promo.SameID(p.ID, id) {
			return p, true
		}
	}
	return promo.Promotion{}, false
}

// invalidLineError classifies a validation failure for the HTTP layer while
// keeping ErrInvalidLine reachable through the chain.
func invalidLineError(err error) error {
	return common.NewAppError("BAD_REQUEST", "invalid order line", http.StatusBadRequest, err)
}

// baseQuantity falls back to the entered quantity when no unit conversion was
// provided.
func baseQuantity(l order.Line) int64 {
	if l.BaseQuantity > 0 {
		return l.BaseQuantity
	}
	return l.Quantity
}

func districtKey(octx order.Context) string {
	if strings.TrimSpace(octx.DistrictKey) != "" {
		return octx.DistrictKey
	}
	return octx.CustomerCode
}

func passMetric(result string) {
	if obs.ResolutionPassTotal != nil {
		obs.ResolutionPassTotal.WithLabelValues(result).Inc()
	}
}

func branchMetric(branch schedule.Branch) {
	if obs.ScheduleBranchTotal != nil {
		obs.ScheduleBranchTotal.WithLabelValues(string(branch)).Inc()
	}
}

func reservationMetric(op, result string) {
	if obs.ReservationTotal != nil {
		obs.ReservationTotal.WithLabelValues(op, result).Inc()
	}
}
