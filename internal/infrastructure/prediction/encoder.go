package prediction

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/google/uuid"
)

const (
	FieldName   = "file"
	FileName    = "image.jpg"
	ContentType = "image/jpeg"
)

// Payload тело multipart-запроса вместе с заголовком Content-Type
type Payload struct {
	Body        []byte
	ContentType string
}

// NewBoundary генерирует новый разделитель multipart для каждого запроса
func NewBoundary() string {
	return uuid.NewString()
}

// EncodeRequest кодирует изображение в multipart/form-data с одной частью file.
// Тело заканчивается закрывающим разделителем --boundary--.
func EncodeRequest(image []byte, boundary string) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, fmt.Errorf("set boundary: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, FileName))
	header.Set("Content-Type", ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return &Payload{
		Body:        buf.Bytes(),
		ContentType: w.FormDataContentType(),
	}, nil
}
