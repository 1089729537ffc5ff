package entity

import "github.com/google/uuid"

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото детали
	StateProcessing    UserState = "processing"     // Запрос к модели ещё не завершён
)

// User пользователь бота вместе с его текущим видом истории
type User struct {
	ID     int64        // Telegram User ID
	ChatID int64        // Telegram Chat ID
	State  UserState    // Текущее состояние пользователя
	View   HistoryQuery // Последний показанный вид истории
	Shown  []uuid.UUID  // ID записей в том порядке, в котором их показали
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		View:   DefaultHistoryQuery(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// Busy сообщает, что у пользователя есть незавершённый запрос
func (u *User) Busy() bool {
	return u.State == StateProcessing
}

// PickShown переводит позиции 0..N-1 из показанного списка в ID записей.
// Позиции вне списка пропускаются.
func (u *User) PickShown(offsets []int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(u.Shown) {
			continue
		}
		ids = append(ids, u.Shown[off])
	}
	return ids
}
