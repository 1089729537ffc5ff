package port

import "context"

// KeyValueStore хранилище именованных блобов
type KeyValueStore interface {
	// Get возвращает значение по ключу; ok=false если ключа нет
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set атомарно заменяет значение по ключу
	Set(ctx context.Context, key string, value []byte) error
}
