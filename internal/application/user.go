package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// ErrInspectionInProgress у пользователя уже есть незавершённый запрос к модели
var ErrInspectionInProgress = errors.New("inspection already in progress")

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// BeginProcessing переводит пользователя в обработку или возвращает ErrInspectionInProgress
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) error {
	ok, err := s.repo.SetStateUnless(ctx, userID, chatID, entity.StateProcessing, entity.StateProcessing)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInspectionInProgress
	}
	return nil
}

// SetShown запоминает вид истории и ID записей, которые пользователь увидел
func (s *UserService) SetShown(ctx context.Context, userID, chatID int64, view entity.HistoryQuery, shown []entity.HistoryEntry) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.View = view
	user.Shown = make([]uuid.UUID, 0, len(shown))
	for _, e := range shown {
		user.Shown = append(user.Shown, e.ID)
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
