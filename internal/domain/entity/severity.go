package entity

import (
	"fmt"
	"strconv"
)

// Severity уровень серьёзности, выводимый из уверенности модели
type Severity string

const (
	SeverityOK   Severity = "ok"   // уверенность >= 0.8
	SeverityWarn Severity = "warn" // 0.5 <= уверенность < 0.8
	SeverityBad  Severity = "bad"  // уверенность < 0.5
)

const (
	okThreshold   = 0.8
	warnThreshold = 0.5
)

// Color цвет отображения в формате RGB
type Color struct {
	R, G, B uint8
}

var (
	ColorGreen   = Color{R: 0x34, G: 0xC7, B: 0x59}
	ColorYellow  = Color{R: 0xFF, G: 0xCC, B: 0x00}
	ColorRed     = Color{R: 0xFF, G: 0x3B, B: 0x30}
	ColorNeutral = Color{R: 0x8E, G: 0x8E, B: 0x93}
)

// ClassifyConfidence переводит уверенность в уровень серьёзности.
// Значения вне [0,1] не обрезаются.
func ClassifyConfidence(confidence float64) Severity {
	switch {
	case confidence >= okThreshold:
		return SeverityOK
	case confidence >= warnThreshold:
		return SeverityWarn
	default:
		return SeverityBad
	}
}

// Color возвращает цвет отображения уровня
func (s Severity) Color() Color {
	switch s {
	case SeverityOK:
		return ColorGreen
	case SeverityWarn:
		return ColorYellow
	case SeverityBad:
		return ColorRed
	default:
		return ColorNeutral
	}
}

// Hex кодирует цвет как #RRGGBB
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColorHex разбирает строку вида #RRGGBB.
func ParseColorHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
