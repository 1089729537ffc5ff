package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// InspectionService сценарий проверки детали: подготовка снимка, классификация, запись в историю.
type InspectionService struct {
	users       *UserService
	predictions *PredictionService
	history     *HistoryStore
	preparer    port.ImagePreparer
	now         func() time.Time
	logger      *slog.Logger
}

// InspectionOutput результат проверки.
// PersistErr некритичная ошибка сохранения истории, результат при этом уже получен.
type InspectionOutput struct {
	Outcome    *entity.PredictionOutcome
	Entry      *entity.HistoryEntry
	PersistErr error
}

// NewInspectionService создаёт сервис проверки. preparer может быть nil: тогда снимок уходит как есть.
func NewInspectionService(users *UserService, predictions *PredictionService, history *HistoryStore, preparer port.ImagePreparer, logger *slog.Logger) *InspectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InspectionService{
		users:       users,
		predictions: predictions,
		history:     history,
		preparer:    preparer,
		now:         time.Now,
		logger:      logger,
	}
}

// Inspect классифицирует снимок и, если record=true, добавляет успешный результат в историю.
// Ошибки подготовки и классификации возвращаются как *entity.PredictionError.
func (s *InspectionService) Inspect(ctx context.Context, photo []byte, record bool) (*InspectionOutput, error) {
	if s.predictions == nil {
		return nil, errors.New("prediction service is not configured")
	}

	image := photo
	if s.preparer != nil {
		prepared, err := s.preparer.Prepare(ctx, photo)
		if err != nil {
			return nil, entity.NewPredictionError(entity.ErrInvalidImage, err)
		}
		image = prepared
	}

	outcome, err := s.predictions.Submit(ctx, image)
	if err != nil {
		return nil, err
	}

	out := &InspectionOutput{Outcome: outcome}
	if !record || s.history == nil {
		return out, nil
	}

	entry := entity.NewHistoryEntry(image, *outcome, s.now())
	out.Entry = &entry
	// Полученный результат сохраняется и при отмене ctx, например при остановке бота
	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("history entry kept in memory only",
			slog.String("id", entry.ID.String()),
			slog.String("error", err.Error()))
		out.PersistErr = err
	}
	return out, nil
}

// InspectForUser проверяет снимок от пользователя бота. Пока запрос не завершён,
// повторная отправка отклоняется с ErrInspectionInProgress.
func (s *InspectionService) InspectForUser(ctx context.Context, userID, chatID int64, photo []byte) (*InspectionOutput, error) {
	if err := s.users.BeginProcessing(ctx, userID, chatID); err != nil {
		return nil, err
	}
	defer func() {
		if _, err := s.users.SetState(context.WithoutCancel(ctx), userID, chatID, entity.StateMainMenu); err != nil {
			s.logger.Error("reset user state", slog.Int64("user_id", userID), slog.String("error", err.Error()))
		}
	}()

	return s.Inspect(ctx, photo, true)
}
