package port

import (
	"context"

	"defect-bot/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// SetStateUnless атомарно переводит пользователя в state, если текущее состояние не равно unless.
	// Возвращает false, если пользователь уже находился в unless.
	SetStateUnless(ctx context.Context, userID, chatID int64, state, unless entity.UserState) (bool, error)
}
