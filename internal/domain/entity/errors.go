package entity

import (
	"errors"
	"fmt"
)

// Виды ошибок классификации. Сравниваются через errors.Is.
var (
	ErrInvalidEndpoint   = errors.New("invalid endpoint")
	ErrTransport         = errors.New("transport failure")
	ErrEmptyResponseBody = fmt.Errorf("empty response body: %w", ErrTransport)
	ErrInvalidJSON       = errors.New("invalid json")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyPredictions  = errors.New("empty predictions")

	// ErrInvalidImage снимок не удалось подготовить к отправке; запрос в сеть не выполнялся
	ErrInvalidImage = errors.New("invalid image")
)

// PredictionError типизированная ошибка одной отправки изображения
type PredictionError struct {
	Kind  error // один из Err* выше
	Cause error // исходная причина, может быть nil
}

// NewPredictionError создаёт ошибку заданного вида
func NewPredictionError(kind, cause error) *PredictionError {
	return &PredictionError{Kind: kind, Cause: cause}
}

func (e *PredictionError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *PredictionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Message текст ошибки для пользователя.
func (e *PredictionError) Message() string {
	switch {
	case errors.Is(e.Kind, ErrInvalidEndpoint):
		return "Hata: Geçersiz URL"
	case errors.Is(e.Kind, ErrEmptyResponseBody):
		return "Hata: Veri Yok"
	case errors.Is(e.Kind, ErrInvalidJSON):
		return e.withCause("Hata: JSON Okunamadı")
	case errors.Is(e.Kind, ErrMalformedResponse):
		return "Hata: Yanıt Beklenen Format Değil"
	case errors.Is(e.Kind, ErrEmptyPredictions):
		return "Hata: Tahminler Boş"
	case errors.Is(e.Kind, ErrInvalidImage):
		return "Hata: Görüntü Okunamadı"
	default:
		return e.withCause("Hata")
	}
}

// Color цвет отображения ошибки
func (e *PredictionError) Color() Color {
	return ColorNeutral
}

func (e *PredictionError) withCause(prefix string) string {
	if e.Cause == nil {
		return prefix
	}
	return prefix + " - " + e.Cause.Error()
}

// AsPredictionError приводит любую ошибку к PredictionError.
// Неизвестные ошибки считаются ошибками транспорта.
func AsPredictionError(err error) *PredictionError {
	if err == nil {
		return nil
	}
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe
	}
	return NewPredictionError(ErrTransport, err)
}
