package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// PredictionService отправляет изображение в модель и превращает ответ в результат для отображения.
// Один вызов Submit делает одну попытку без повторов.
type PredictionService struct {
	classifier port.DefectClassifier
	classes    entity.ClassTable
	tracer     trace.Tracer
	logger     *slog.Logger
}

// NewPredictionService создаёт сервис поверх удалённого классификатора
func NewPredictionService(classifier port.DefectClassifier, classes entity.ClassTable, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictionService{
		classifier: classifier,
		classes:    classes,
		tracer:     otel.Tracer("defect-bot/prediction"),
		logger:     logger,
	}
}

// Classes таблица классов сервиса
func (s *PredictionService) Classes() entity.ClassTable {
	return s.classes
}

// Submit классифицирует изображение. Любая ошибка возвращается как *entity.PredictionError.
func (s *PredictionService) Submit(ctx context.Context, image []byte) (*entity.PredictionOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "prediction.submit",
		trace.WithAttributes(attribute.Int("image.bytes", len(image))))
	defer span.End()

	raw, err := s.classifier.Classify(ctx, image)
	if err != nil {
		pe := entity.AsPredictionError(err)
		span.RecordError(pe)
		span.SetStatus(codes.Error, pe.Kind.Error())
		s.logger.Warn("prediction failed", slog.String("error", pe.Error()))
		return nil, pe
	}

	if raw.Confidence < 0 || raw.Confidence > 1 {
		s.logger.Warn("confidence out of range, clamping",
			slog.Int("class_index", raw.ClassIndex),
			slog.Float64("confidence", raw.Confidence))
		raw.Confidence = min(max(raw.Confidence, 0), 1)
	}

	outcome := entity.NewPredictionOutcome(raw, s.classes)
	span.SetAttributes(
		attribute.Int("prediction.class_index", outcome.ClassIndex),
		attribute.String("prediction.class_name", outcome.ClassName),
		attribute.Float64("prediction.confidence", outcome.Confidence),
		attribute.String("prediction.severity", string(outcome.Severity)),
	)
	s.logger.Info("prediction",
		slog.String("class", outcome.ClassName),
		slog.Float64("confidence", outcome.Confidence),
		slog.String("severity", string(outcome.Severity)))

	return &outcome, nil
}
