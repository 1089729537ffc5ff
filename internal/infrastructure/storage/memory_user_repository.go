package storage

import (
	"context"
	"slices"
	"sync"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей бота
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := *r.getLocked(userID, chatID)
	u.Shown = slices.Clone(u.Shown)
	return &u, nil
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	u := *user
	u.Shown = slices.Clone(user.Shown)

	r.mu.Lock()
	r.users[user.ID] = &u
	r.mu.Unlock()

	return nil
}

// SetStateUnless атомарно меняет состояние, если текущее не равно unless
func (r *MemoryUserRepository) SetStateUnless(ctx context.Context, userID, chatID int64, state, unless entity.UserState) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.getLocked(userID, chatID)
	if user.State == unless {
		return false, nil
	}
	user.SetState(state)
	return true, nil
}

func (r *MemoryUserRepository) getLocked(userID, chatID int64) *entity.User {
	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return user
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
