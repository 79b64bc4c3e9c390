package promo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskWarmCandidates is the asynq task type for promotion cache warming.
const TaskWarmCandidates = "promo:warm_candidates"

// WarmPayload lists the products whose candidate sets should be pre-loaded.
type WarmPayload struct {
	ProductCodes []string `json:"product_codes"`
}

// NewWarmTask builds a warm task for the given product codes.
func NewWarmTask(productCodes []string) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmPayload{ProductCodes: productCodes})
	if err != nil {
		return nil, fmt.Errorf("marshal warm payload: %w", err)
	}
	return asynq.NewTask(TaskWarmCandidates, payload), nil
}

// Warmer pre-loads promotion candidate sets into the cache so the first
// resolution of a busy product does not pay the catalog round trip. Warm
// queries use the anonymous customer and blank payment terms, matching the
// broadest candidate key.
type Warmer struct {
	Catalog Catalog
	Logger  zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (w *Warmer) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload WarmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal warm payload: %w", err)
	}
	warmed := 0
	for _, code := range payload.ProductCodes {
		if _, err := w.Catalog.Query(ctx, code, "", ""); err != nil {
			w.Logger.Warn().Err(err).Str("product", code).Msg("warm candidates")
			continue
		}
		warmed++
	}
	w.Logger.Info().Int("warmed", warmed).Int("requested", len(payload.ProductCodes)).Msg("promotion cache warmed")
	return nil
}
