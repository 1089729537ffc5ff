package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// HistoryKey ключ блоба истории в KeyValueStore
const HistoryKey = "predictionHistory"

// HistoryStore упорядоченная история классификаций.
// Записи хранятся в порядке добавления, сортирует только Query.
// Все изменения и запись в хранилище выполняются под одним мьютексом.
type HistoryStore struct {
	mu      sync.Mutex
	kv      port.KeyValueStore
	entries []entity.HistoryEntry
	logger  *slog.Logger
}

// NewHistoryStore создаёт пустую историю поверх хранилища kv. Для чтения сохранённых данных вызовите Load.
func NewHistoryStore(kv port.KeyValueStore, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{kv: kv, logger: logger}
}

// Load читает историю из хранилища и заменяет ею текущее состояние.
// Отсутствующий или повреждённый блоб даёт пустую историю.
func (s *HistoryStore) Load(ctx context.Context) []entity.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil

	data, ok, err := s.kv.Get(ctx, HistoryKey)
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}

	entries, err := entity.UnmarshalHistory(data)
	if err != nil {
		s.logger.Warn("history corrupt, starting empty", slog.String("error", err.Error()))
		return nil
	}

	s.entries = entries
	return slices.Clone(entries)
}

// Entries копия записей в порядке хранения
func (s *HistoryStore) Entries() []entity.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Len количество записей
func (s *HistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Append добавляет запись в конец без сохранения. После Append вызывающий обязан вызвать Persist.
func (s *HistoryStore) Append(entry entity.HistoryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(entry.ID) >= 0 {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateEntry, entry.ID)
	}
	s.entries = append(s.entries, entry)
	return nil
}

// Record добавляет запись и сразу сохраняет историю.
// Ошибка сохранения возвращается, но запись остаётся в памяти.
func (s *HistoryStore) Record(ctx context.Context, entry entity.HistoryEntry) error {
	if err := s.Append(entry); err != nil {
		return err
	}
	return s.Persist(ctx)
}

// Replace заменяет всю историю и сохраняет её
func (s *HistoryStore) Replace(ctx context.Context, entries []entity.HistoryEntry) error {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: %s", entity.ErrDuplicateEntry, e.ID)
		}
		seen[e.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = slices.Clone(entries)
	return s.persistLocked(ctx)
}

// RemoveAt удаляет записи по позициям в показанном виде q (после сортировки и фильтров)
// и сохраняет историю. Позиции вне вида игнорируются. Возвращает число удалённых записей.
func (s *HistoryStore) RemoveAt(ctx context.Context, q entity.HistoryQuery, offsets []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := queryEntries(s.entries, q)
	ids := make([]uuid.UUID, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(view) {
			continue
		}
		ids = append(ids, view[off].ID)
	}
	return s.removeLocked(ctx, ids)
}

// RemoveIDs удаляет записи с указанными ID и сохраняет историю.
// Неизвестные ID игнорируются, поэтому уже удалённые записи не мешают.
func (s *HistoryStore) RemoveIDs(ctx context.Context, ids []uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx, ids)
}

func (s *HistoryStore) removeLocked(ctx context.Context, ids []uuid.UUID) (int, error) {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e entity.HistoryEntry) bool {
		_, ok := set[e.ID]
		return ok
	})
	removed := before - len(s.entries)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked(ctx)
}

// Clear удаляет все записи и сохраняет пустую историю
func (s *HistoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.persistLocked(ctx)
}

// Persist сохраняет всю историю одним блобом.
// Ошибка логируется и возвращается вызывающему.
func (s *HistoryStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// Query возвращает вид истории: сортировка по времени, затем поиск без учёта регистра,
// затем фильтр категории по вхождению подстроки. Состояние не меняется.
func (s *HistoryStore) Query(q entity.HistoryQuery) []entity.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queryEntries(s.entries, q)
}

func (s *HistoryStore) persistLocked(ctx context.Context) error {
	data, err := entity.MarshalHistory(s.entries)
	if err != nil {
		s.logger.Error("history encode failed", slog.String("error", err.Error()))
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, HistoryKey, data); err != nil {
		s.logger.Error("history persist failed",
			slog.Int("entries", len(s.entries)),
			slog.String("error", err.Error()))
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s *HistoryStore) indexOfLocked(id uuid.UUID) int {
	return slices.IndexFunc(s.entries, func(e entity.HistoryEntry) bool { return e.ID == id })
}

func queryEntries(entries []entity.HistoryEntry, q entity.HistoryQuery) []entity.HistoryEntry {
	view := slices.Clone(entries)
	slices.SortStableFunc(view, func(a, b entity.HistoryEntry) int {
		if q.Descending {
			return b.Timestamp.Compare(a.Timestamp)
		}
		return a.Timestamp.Compare(b.Timestamp)
	})

	if q.Search != "" {
		// Caser хранит состояние, поэтому создаётся на каждый запрос
		lower := cases.Lower(language.Turkish)
		needle := foldText(lower, q.Search)
		view = slices.DeleteFunc(view, func(e entity.HistoryEntry) bool {
			return !strings.Contains(foldText(lower, e.Result), needle)
		})
	}

	if q.FiltersCategory() {
		category := norm.NFC.String(q.Category)
		view = slices.DeleteFunc(view, func(e entity.HistoryEntry) bool {
			return !strings.Contains(norm.NFC.String(e.Result), category)
		})
	}

	return view
}

// foldText приводит строку к NFC и нижнему регистру по турецким правилам (İ→i, I→ı)
func foldText(lower cases.Caser, s string) string {
	return lower.String(norm.NFC.String(s))
}
