package port

import "context"

// ImagePreparer приводит снимок к JPEG, который отправляется в модель и хранится в истории
type ImagePreparer interface {
	Prepare(ctx context.Context, image []byte) ([]byte, error)
}
