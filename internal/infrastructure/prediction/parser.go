package prediction

import (
	"errors"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"defect-bot/internal/domain/entity"
)

// PredictionField поле ответа с матрицей уверенностей
const PredictionField = "prediction"

// ParseResponse разбирает ответ сервиса: {"prediction": [[score, ...], ...]}.
// Берётся первая строка матрицы, элементы приводятся к float64 (число или числовая строка),
// неприводимые элементы отбрасываются. Возвращается максимум и индекс его первого вхождения
// в отфильтрованной последовательности. Никогда не паникует на входных данных.
func ParseResponse(body []byte) (entity.RawPrediction, error) {
	if !gjson.ValidBytes(body) {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrInvalidJSON, errors.New("body is not valid json"))
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrMalformedResponse, errors.New("top-level value is not an object"))
	}

	field := root.Get(PredictionField)
	if !field.Exists() || !field.IsArray() {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrMalformedResponse, errors.New(`"prediction" is not an array`))
	}

	rows := field.Array()
	for _, row := range rows {
		if !row.IsArray() {
			return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrMalformedResponse, errors.New(`"prediction" is not an array of arrays`))
		}
	}
	if len(rows) == 0 {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrEmptyPredictions, nil)
	}

	scores := coerceScores(rows[0].Array())
	if len(scores) == 0 {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrEmptyPredictions, nil)
	}

	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}
	return entity.RawPrediction{ClassIndex: best, Confidence: scores[best]}, nil
}

func coerceScores(values []gjson.Result) []float64 {
	scores := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := coerceScore(v)
		if !ok {
			continue
		}
		scores = append(scores, f)
	}
	return scores
}

func coerceScore(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		parsed, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case gjson.String:
		parsed, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
