//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"defect-bot/internal/domain/port"
)

// JPEGPreparer перекодирует снимок в JPEG через OpenCV и уменьшает слишком крупные кадры.
type JPEGPreparer struct {
	Quality int // качество JPEG, 1..100
	MaxSide int // максимальная длина большей стороны, 0 без ограничения
}

// NewJPEGPreparer создаёт подготовщик с заданным качеством и ограничением размера.
func NewJPEGPreparer(quality, maxSide int) *JPEGPreparer {
	return &JPEGPreparer{Quality: clampQuality(quality), MaxSide: maxSide}
}

// Prepare декодирует изображение, при необходимости уменьшает его и кодирует в JPEG.
func (p *JPEGPreparer) Prepare(ctx context.Context, imageData []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// Приводим изображение к ограниченному размеру, сохраняя пропорции.
	if p.MaxSide > 0 && (mat.Cols() > p.MaxSide || mat.Rows() > p.MaxSide) {
		newW, newH := scaledSize(mat.Cols(), mat.Rows(), p.MaxSide)
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationArea)
		mat.Close()
		mat = resized
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, p.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

var _ port.ImagePreparer = (*JPEGPreparer)(nil)
