//go:build !gocv
// +build !gocv

package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"defect-bot/internal/domain/port"
)

// JPEGPreparer перекодирует снимок в JPEG средствами стандартной библиотеки (сборка без OpenCV).
// Без тега gocv кадр не уменьшается.
type JPEGPreparer struct {
	Quality int
	MaxSide int
}

// NewJPEGPreparer создаёт подготовщик с заданным качеством.
func NewJPEGPreparer(quality, maxSide int) *JPEGPreparer {
	return &JPEGPreparer{Quality: clampQuality(quality), MaxSide: maxSide}
}

// Prepare декодирует JPEG или PNG и кодирует его заново в JPEG.
func (p *JPEGPreparer) Prepare(ctx context.Context, imageData []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

var _ port.ImagePreparer = (*JPEGPreparer)(nil)
