package entity

import "fmt"

// RawPrediction позиционный ответ модели: индекс максимального значения и само значение.
type RawPrediction struct {
	ClassIndex int
	Confidence float64
}

// PredictionOutcome результат одной классификации, готовый к отображению.
type PredictionOutcome struct {
	ClassIndex int      `json:"classIndex"`
	ClassName  string   `json:"className"`
	Confidence float64  `json:"confidence"`
	Severity   Severity `json:"severity"`
}

// NewPredictionOutcome собирает результат из сырого ответа и таблицы классов.
func NewPredictionOutcome(raw RawPrediction, classes ClassTable) PredictionOutcome {
	return PredictionOutcome{
		ClassIndex: raw.ClassIndex,
		ClassName:  classes.NameFor(raw.ClassIndex),
		Confidence: raw.Confidence,
		Severity:   ClassifyConfidence(raw.Confidence),
	}
}

// Color цвет отображения результата
func (o PredictionOutcome) Color() Color {
	return o.Severity.Color()
}

// Summary текст для пользователя: класс и уверенность в процентах.
func (o PredictionOutcome) Summary() string {
	return fmt.Sprintf("Sınıf: %s\nGüven: %s", o.ClassName, FormatConfidence(o.Confidence))
}

// FormatConfidence форматирует уверенность из [0,1] как проценты с двумя знаками.
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}
