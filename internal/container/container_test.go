package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/infrastructure/storage"
)

type constClassifier struct{}

func (constClassifier) Classify(ctx context.Context, image []byte) (entity.RawPrediction, error) {
	return entity.RawPrediction{ClassIndex: 5, Confidence: 0.81}, nil
}

func TestNew_WiresHistoryIntoInspection(t *testing.T) {
	kv := storage.NewMemoryKVStore()
	c := New(storage.NewMemoryUserRepository(), constClassifier{}, kv, nil, nil)

	out, err := c.InspectionService.Inspect(context.Background(), []byte("img"), true)
	require.NoError(t, err)
	require.Equal(t, "Çizikler", out.Outcome.ClassName)
	require.Equal(t, 1, c.History.Len())

	_, ok, err := kv.Get(context.Background(), "predictionHistory")
	require.NoError(t, err)
	require.True(t, ok)
}
