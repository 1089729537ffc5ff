package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"defect-bot/internal/container"
	"defect-bot/internal/domain/entity"
)

// maxUploadBytes ограничение размера загружаемого снимка
const maxUploadBytes = 20 << 20

// Server JSON API поверх сервисов приложения
type Server struct {
	Router *chi.Mux
	app    *container.Container
	logger *slog.Logger
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Color   string `json:"color,omitempty"`
}

type predictResponse struct {
	entity.PredictionOutcome
	Color   string     `json:"color"`
	Summary string     `json:"summary"`
	EntryID string     `json:"entryId,omitempty"`
	Warning string     `json:"warning,omitempty"`
	At      *time.Time `json:"timestamp,omitempty"`
}

// deleteRequest удаляет по ID из полученного ранее списка либо по позициям в виде q/category/order
type deleteRequest struct {
	IDs      []uuid.UUID `json:"ids"`
	Query    string      `json:"q"`
	Category string      `json:"category"`
	Order    string      `json:"order"`
	Offsets  []int       `json:"offsets"`
}

// New собирает роутер с middleware и маршрутами
func New(c *container.Container, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Router: chi.NewRouter(), app: c, logger: logger}

	r := s.Router
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "defect-bot")
	})

	r.Get("/classes", s.handleClasses)
	r.Post("/predict", s.handlePredict)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", s.handleHistory)
		r.Post("/delete", s.handleDelete)
		r.Delete("/", s.handleClear)
	})

	return s
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.PredictionService.Classes().Classes())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	image, err := readImage(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	record := true
	if v := r.URL.Query().Get("record"); v != "" {
		record, err = strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid record flag"})
			return
		}
	}

	out, err := s.app.InspectionService.Inspect(r.Context(), image, record)
	if err != nil {
		pe := entity.AsPredictionError(err)
		status := http.StatusBadGateway
		if errors.Is(pe, entity.ErrInvalidImage) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: pe.Error(), Message: pe.Message(), Color: pe.Color().Hex()})
		return
	}

	resp := predictResponse{
		PredictionOutcome: *out.Outcome,
		Color:             out.Outcome.Color().Hex(),
		Summary:           out.Outcome.Summary(),
	}
	if out.Entry != nil {
		resp.EntryID = out.Entry.ID.String()
		resp.At = &out.Entry.Timestamp
	}
	if out.PersistErr != nil {
		resp.Warning = "history not persisted"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := historyQuery(q.Get("q"), q.Get("category"), q.Get("order"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.app.History.Query(query))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	var (
		removed int
		err     error
	)
	if len(req.IDs) > 0 {
		removed, err = s.app.History.RemoveIDs(r.Context(), req.IDs)
	} else {
		query, qerr := historyQuery(req.Query, req.Category, req.Order)
		if qerr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: qerr.Error()})
			return
		}
		removed, err = s.app.History.RemoveAt(r.Context(), query, req.Offsets)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.app.History.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logRequests пишет одну строку лога на запрос
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request completed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}

// readImage принимает multipart с полем file либо сырое тело запроса любого другого типа
func readImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		defer r.MultipartForm.RemoveAll()

		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart field "file" is required`)
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return data, nil
}

func historyQuery(search, category, order string) (entity.HistoryQuery, error) {
	q := entity.HistoryQuery{Search: search, Category: category, Descending: true}
	if q.Category == "" {
		q.Category = entity.CategoryAll
	}
	switch order {
	case "", "desc":
	case "asc":
		q.Descending = false
	default:
		return q, errors.New(`order must be "asc" or "desc"`)
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
