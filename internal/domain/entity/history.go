package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDuplicateEntry    = errors.New("duplicate history entry id")
	ErrInvalidConfidence = errors.New("confidence out of [0,1]")
)

// HistoryEntry сохранённая запись о прошлой классификации.
// ImageData в JSON кодируется base64.
type HistoryEntry struct {
	ID         uuid.UUID `json:"id"`
	ImageData  []byte    `json:"imageData"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	ColorHex   string    `json:"colorHex"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewHistoryEntry создаёт запись из принятого результата классификации.
func NewHistoryEntry(image []byte, outcome PredictionOutcome, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:         uuid.New(),
		ImageData:  image,
		Result:     outcome.ClassName,
		Confidence: outcome.Confidence,
		ColorHex:   outcome.Color().Hex(),
		Timestamp:  at.UTC(),
	}
}

// Color цвет записи; при битом значении возвращается нейтральный.
func (e HistoryEntry) Color() Color {
	c, err := ParseColorHex(e.ColorHex)
	if err != nil {
		return ColorNeutral
	}
	return c
}

// Validate проверяет инварианты записи
func (e HistoryEntry) Validate() error {
	if e.ID == uuid.Nil {
		return errors.New("history entry id is empty")
	}
	if math.IsNaN(e.Confidence) || e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, e.Confidence)
	}
	return nil
}

// MarshalHistory сериализует историю в один блоб.
func MarshalHistory(entries []HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalHistory разбирает блоб истории и проверяет записи.
func UnmarshalHistory(data []byte) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("history entry %d: %w", i, ErrDuplicateEntry)
		}
		seen[e.ID] = struct{}{}
	}
	return entries, nil
}

// HistoryQuery параметры выборки истории: поиск, категория и направление сортировки.
type HistoryQuery struct {
	Search     string `json:"q"`
	Category   string `json:"category"`
	Descending bool   `json:"descending"`
}

// DefaultHistoryQuery вид истории по умолчанию: все категории, новые сверху.
func DefaultHistoryQuery() HistoryQuery {
	return HistoryQuery{Category: CategoryAll, Descending: true}
}

// FiltersCategory сообщает, ограничивает ли запрос категорию.
func (q HistoryQuery) FiltersCategory() bool {
	return q.Category != "" && q.Category != CategoryAll
}
