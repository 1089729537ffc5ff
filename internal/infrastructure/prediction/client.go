package prediction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"defect-bot/internal/domain/entity"
	"defect-bot/internal/domain/port"
)

// maxErrorBody сколько байт тела ответа попадает в текст ошибки
const maxErrorBody = 512

// Client HTTP-клиент удалённой модели классификации.
// Повторов нет: неудачная отправка возвращается один раз.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *slog.Logger
	newBoundary func() string
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (тесты, VCR)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout ограничивает время запроса. По умолчанию таймаута нет.
// Применяется к копии HTTP-клиента независимо от порядка опций.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger задаёт логгер
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBoundary задаёт генератор разделителей multipart
func WithBoundary(gen func() string) Option {
	return func(c *Client) {
		c.newBoundary = gen
	}
}

// NewClient создаёт клиент для endpoint. Исходящие запросы трассируются через otelhttp.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:      slog.Default(),
		newBoundary: NewBoundary,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Endpoint адрес сервиса
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Classify отправляет изображение методом POST и разбирает ответ.
func (c *Client) Classify(ctx context.Context, image []byte) (entity.RawPrediction, error) {
	endpoint, err := parseEndpoint(c.endpoint)
	if err != nil {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrInvalidEndpoint, err)
	}

	payload, err := EncodeRequest(image, c.newBoundary())
	if err != nil {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload.Body))
	if err != nil {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrInvalidEndpoint, err)
	}
	req.Header.Set("Content-Type", payload.ContentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrTransport, fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("prediction response",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrTransport, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       truncate(body, maxErrorBody),
		})
	}
	if len(body) == 0 {
		return entity.RawPrediction{}, entity.NewPredictionError(entity.ErrEmptyResponseBody, nil)
	}

	return ParseResponse(body)
}

// StatusError ответ сервиса с кодом вне 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func parseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		body = body[:n]
	}
	return string(body)
}

var _ port.DefectClassifier = (*Client)(nil)
