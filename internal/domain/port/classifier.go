package port

import (
	"context"

	"defect-bot/internal/domain/entity"
)

// DefectClassifier удалённый сервис классификации дефектов
type DefectClassifier interface {
	// Classify отправляет изображение и возвращает индекс класса с максимальной уверенностью.
	// Ошибки имеют тип *entity.PredictionError.
	Classify(ctx context.Context, image []byte) (entity.RawPrediction, error)
}
