package promo_test

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/minh-tn/salesorder-core/internal/promo"
)

func TestWarmerProcessTask(t *testing.T) {
	inner := &countingCatalog{result: []promo.Promotion{{ID: "KM-A", Kind: promo.KindPercent}}}
	warmer := &promo.Warmer{Catalog: inner, Logger: zerolog.Nop()}

	task, err := promo.NewWarmTask([]string{"SP-001", "SP-002"})
	require.NoError(t, err)
	require.Equal(t, promo.TaskWarmCandidates, task.Type())

	require.NoError(t, warmer.ProcessTask(context.Background(), task))
	require.Equal(t, 2, inner.calls)
}

func TestWarmerSkipsFailedProducts(t *testing.T) {
	inner := &countingCatalog{fail: true, failErr: context.DeadlineExceeded}
	warmer := &promo.Warmer{Catalog: inner, Logger: zerolog.Nop()}

	task, err := promo.NewWarmTask([]string{"SP-001"})
	require.NoError(t, err)
	// A failed warm is logged, not returned; the task itself succeeds.
	require.NoError(t, warmer.ProcessTask(context.Background(), task))
}

func TestWarmerRejectsMalformedPayload(t *testing.T) {
	warmer := &promo.Warmer{Catalog: &countingCatalog{}, Logger: zerolog.Nop()}
	bad := asynq.NewTask(promo.TaskWarmCandidates, []byte("{not json"))
	require.Error(t, warmer.ProcessTask(context.Background(), bad))
}
