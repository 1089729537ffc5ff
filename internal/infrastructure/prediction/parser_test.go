package prediction

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"defect-bot/internal/domain/entity"
)

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantIndex  int
		wantConfid float64
	}{
		{"numbers", `{"prediction": [[0.1, 0.05, 0.8, 0.05, 0, 0]]}`, 2, 0.8},
		{"numeric strings", `{"prediction": [["0.1", "0.7", 0.2]]}`, 1, 0.7},
		{"ties pick lowest index", `{"prediction": [[0.2, 0.4, 0.4, 0.1]]}`, 1, 0.4},
		{"only first row counts", `{"prediction": [[0.9, 0.1], [0.0, 1.0]]}`, 0, 0.9},
		{"non coercible dropped", `{"prediction": [[null, "abc", true, 0.3, {"x": 1}, 0.6]]}`, 1, 0.6},
		{"exponent", `{"prediction": [["1e-3", 2.5e-1]]}`, 1, 0.25},
		{"extra fields ignored", `{"model": "v2", "prediction": [[0.5]]}`, 0, 0.5},
		{"integers", `{"prediction": [[0, 1, 0]]}`, 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResponse([]byte(tc.body))
			require.NoError(t, err)
			require.Equal(t, tc.wantIndex, got.ClassIndex)
			require.InDelta(t, tc.wantConfid, got.Confidence, 1e-12)
		})
	}
}

func TestParseResponse_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"empty prediction", `{"prediction": []}`, entity.ErrEmptyPredictions},
		{"empty first row", `{"prediction": [[]]}`, entity.ErrEmptyPredictions},
		{"nothing coercible", `{"prediction": [["abc", null, "NaN", "Inf"]]}`, entity.ErrEmptyPredictions},
		{"not json", `not json`, entity.ErrInvalidJSON},
		{"truncated", `{"prediction": [[0.1, 0.2]`, entity.ErrInvalidJSON},
		{"empty body", ``, entity.ErrInvalidJSON},
		{"missing field", `{"other": 1}`, entity.ErrMalformedResponse},
		{"flat array", `{"prediction": [0.1, 0.9]}`, entity.ErrMalformedResponse},
		{"mixed rows", `{"prediction": [[0.1], 0.9]}`, entity.ErrMalformedResponse},
		{"string field", `{"prediction": "0.9"}`, entity.ErrMalformedResponse},
		{"top-level array", `[[0.1, 0.9]]`, entity.ErrMalformedResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tc.body))
			require.ErrorIs(t, err, tc.want)

			var pe *entity.PredictionError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseResponse_ArgmaxProperty(t *testing.T) {
	rows := [][]float64{
		{0.3},
		{0.1, 0.2, 0.3, 0.2, 0.1},
		{0.9, 0.9, 0.9},
		{0, 0, 0.0001, 0},
		{0.16, 0.17, 0.17, 0.16, 0.17, 0.17},
	}
	for _, row := range rows {
		body := `{"prediction": [[`
		for i, v := range row {
			if i > 0 {
				body += ","
			}
			body += formatFloat(v)
		}
		body += `]]}`

		got, err := ParseResponse([]byte(body))
		require.NoError(t, err)

		want := 0
		for i, v := range row {
			if v > row[want] {
				want = i
			}
		}
		require.Equal(t, want, got.ClassIndex, body)
		require.Equal(t, row[want], got.Confidence)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
