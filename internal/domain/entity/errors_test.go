package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredictionError_Is(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPredictionError(ErrTransport, cause)

	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrInvalidJSON)
	require.Equal(t, "transport failure: connection refused", err.Error())
}

func TestPredictionError_EmptyBodyIsTransport(t *testing.T) {
	err := NewPredictionError(ErrEmptyResponseBody, nil)
	require.ErrorIs(t, err, ErrEmptyResponseBody)
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, "Hata: Veri Yok", err.Message())
}

func TestPredictionError_Message(t *testing.T) {
	cases := []struct {
		err  *PredictionError
		want string
	}{
		{NewPredictionError(ErrInvalidEndpoint, nil), "Hata: Geçersiz URL"},
		{NewPredictionError(ErrTransport, errors.New("timeout")), "Hata - timeout"},
		{NewPredictionError(ErrInvalidJSON, errors.New("bad byte")), "Hata: JSON Okunamadı - bad byte"},
		{NewPredictionError(ErrMalformedResponse, nil), "Hata: Yanıt Beklenen Format Değil"},
		{NewPredictionError(ErrEmptyPredictions, nil), "Hata: Tahminler Boş"},
		{NewPredictionError(ErrInvalidImage, errors.New("png: invalid format")), "Hata: Görüntü Okunamadı"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.err.Message())
		require.Equal(t, ColorNeutral, tc.err.Color())
	}
}

func TestAsPredictionError(t *testing.T) {
	require.Nil(t, AsPredictionError(nil))

	typed := NewPredictionError(ErrEmptyPredictions, nil)
	require.Same(t, typed, AsPredictionError(fmt.Errorf("wrapped: %w", typed)))

	plain := AsPredictionError(errors.New("boom"))
	require.ErrorIs(t, plain, ErrTransport)
}
