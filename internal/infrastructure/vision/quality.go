package vision

// DefaultJPEGQuality качество, с которым снимок уходит в модель и в историю
const DefaultJPEGQuality = 80

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return DefaultJPEGQuality
	case q > 100:
		return 100
	default:
		return q
	}
}

// scaledSize уменьшает w×h так, чтобы большая сторона стала maxSide, с сохранением пропорций.
// Ни одна сторона не становится меньше 1 пикселя.
func scaledSize(w, h, maxSide int) (int, int) {
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return w, h
	}
	scale := float64(maxSide) / float64(max(w, h))
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}
