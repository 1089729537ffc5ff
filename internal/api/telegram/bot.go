package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "defect-bot/internal/application"
	"defect-bot/internal/container"
	"defect-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Merhaba! Yüzey kusurlarını sınıflandıran botum.

📸 Parçanın fotoğrafını gönderin, kusur sınıfını ve güven değerini söyleyeyim.

📋 Komutlar:
/check — yeni kontrol
/history — sonuç geçmişi
/help — yardım
/cancel — işlemi iptal et`

	msgHelp = `ℹ️ Nasıl kullanılır:

1️⃣ Parçanın fotoğrafını gönderin
2️⃣ Model görüntüyü sınıflandırır
3️⃣ Sınıf ve güven değeri gelir, sonuç geçmişe kaydedilir

📋 Geçmiş:
/history [metin] — geçmişi göster, metne göre ara
/filter <kategori|Tümü> — kategoriye göre süz
/sort — sıralamayı değiştir
/delete <n> [n...] — listedeki kayıtları sil
/clear — geçmişi temizle
/classes — kusur sınıfları`

	msgAwaitingPhoto   = "📸 Kontrol için parçanın fotoğrafını gönderin."
	msgCancelled       = "❌ İşlem iptal edildi. Yeni kontrol için /check gönderin."
	msgSendPhoto       = "📸 Lütfen kontrol için parçanın fotoğrafını gönderin."
	msgUnknownCommand  = "❓ Bilinmeyen komut. Yardım için /help kullanın."
	msgProcessing      = "⏳ Tahmin ediliyor..."
	msgBusy            = "⏳ Önceki fotoğraf hâlâ işleniyor, lütfen bekleyin."
	msgProcessingError = "⚠️ Fotoğraf işlenemedi. Başka bir fotoğraf deneyin."
	msgPersistWarning  = "⚠️ Sonuç geçmişe kaydedilemedi."
	msgHistoryEmpty    = "📭 Geçmiş boş."
	msgCleared         = "🗑 Geçmiş temizlendi."
	msgDeleteUsage     = "Kullanım: /delete <n> [n...] — numaralar /history listesinden."
	historyPageSize    = 20
)

// Bot представляет Telegram-бота: источник снимков и экран результатов
type Bot struct {
	api      *tgbotapi.BotAPI
	app      *container.Container
	inflight sync.WaitGroup // фото, которые ещё обрабатываются
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api: api,
		app: c,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wait()
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		// Запрос к модели может висеть долго, поэтому не блокируем цикл обновлений
		b.spawn(func() { b.handlePhoto(ctx, msg) })
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// spawn запускает обработчик в горутине, которую дождётся Run перед выходом
func (b *Bot) spawn(f func()) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		f()
	}()
}

// wait ждёт завершения всех начатых обработчиков
func (b *Bot) wait() {
	b.inflight.Wait()
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	users := b.app.UserService

	switch msg.Command() {
	case "start":
		users.SetState(ctx, userID, chatID, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		users.BeginCheck(ctx, userID, chatID)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		user, err := users.Get(ctx, userID, chatID)
		if err == nil && user.Busy() {
			b.sendMessage(chatID, msgBusy)
			return
		}
		users.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	case "history":
		b.updateView(ctx, msg, func(v *entity.HistoryQuery) {
			v.Search = strings.TrimSpace(msg.CommandArguments())
		})

	case "filter":
		b.updateView(ctx, msg, func(v *entity.HistoryQuery) {
			v.Category = strings.TrimSpace(msg.CommandArguments())
			if v.Category == "" {
				v.Category = entity.CategoryAll
			}
		})

	case "sort":
		b.updateView(ctx, msg, func(v *entity.HistoryQuery) {
			v.Descending = !v.Descending
		})

	case "delete":
		b.handleDelete(ctx, msg)

	case "clear":
		if err := b.app.History.Clear(ctx); err != nil {
			log.Printf("Error clearing history: %v", err)
			b.sendMessage(chatID, msgPersistWarning)
			return
		}
		b.sendMessage(chatID, msgCleared)

	case "classes":
		b.sendMessage(chatID, formatClasses(b.app.PredictionService.Classes()))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto скачивает фото, классифицирует его и отвечает результатом
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	b.sendMessage(chatID, msgProcessing)

	out, err := b.app.InspectionService.InspectForUser(ctx, msg.From.ID, chatID, imageData)
	if errors.Is(err, app.ErrInspectionInProgress) {
		b.sendMessage(chatID, msgBusy)
		return
	}
	if err != nil {
		pe := entity.AsPredictionError(err)
		log.Printf("Prediction failed: %v", pe)
		b.sendMessage(chatID, "🔘 "+pe.Message())
		return
	}

	b.sendMessage(chatID, severityMarker(out.Outcome.Severity)+" "+out.Outcome.Summary())
	if out.PersistErr != nil {
		b.sendMessage(chatID, msgPersistWarning)
	}
}

// handleDelete удаляет записи по номерам из последнего показанного списка
func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, err := b.app.UserService.Get(ctx, msg.From.ID, chatID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	offsets, err := parseOffsets(msg.CommandArguments())
	if err != nil {
		b.sendMessage(chatID, msgDeleteUsage)
		return
	}

	// Номера относятся к показанному списку, а не к текущему виду
	removed, err := b.app.History.RemoveIDs(ctx, user.PickShown(offsets))
	if err != nil {
		log.Printf("Error persisting history: %v", err)
		b.sendMessage(chatID, msgPersistWarning)
	}
	b.sendMessage(chatID, fmt.Sprintf("🗑 %d kayıt silindi.", removed))
	b.sendHistory(ctx, msg.From.ID, chatID, user.View)
}

// updateView меняет вид истории пользователя и показывает его
func (b *Bot) updateView(ctx context.Context, msg *tgbotapi.Message, change func(*entity.HistoryQuery)) {
	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	view := user.View
	change(&view)
	b.sendHistory(ctx, msg.From.ID, msg.Chat.ID, view)
}

// sendHistory показывает вид истории и запоминает, какие записи попали в список
func (b *Bot) sendHistory(ctx context.Context, userID, chatID int64, view entity.HistoryQuery) {
	entries := b.app.History.Query(view)
	if _, err := b.app.UserService.SetShown(ctx, userID, chatID, view, entries); err != nil {
		log.Printf("Error saving user view: %v", err)
	}
	b.sendMessage(chatID, formatHistory(entries, view))
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func severityMarker(s entity.Severity) string {
	switch s {
	case entity.SeverityOK:
		return "🟢"
	case entity.SeverityWarn:
		return "🟡"
	default:
		return "🔴"
	}
}

func formatHistory(entries []entity.HistoryEntry, view entity.HistoryQuery) string {
	if len(entries) == 0 {
		return msgHistoryEmpty
	}

	order := "↓"
	if !view.Descending {
		order = "↑"
	}
	category := view.Category
	if category == "" {
		category = entity.CategoryAll
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 Sonuç Geçmişi (%s, %s", category, order)
	if view.Search != "" {
		fmt.Fprintf(&sb, ", %q", view.Search)
	}
	sb.WriteString(")\n")

	for i, e := range entries {
		if i == historyPageSize {
			fmt.Fprintf(&sb, "… ve %d kayıt daha", len(entries)-historyPageSize)
			break
		}
		sev := entity.ClassifyConfidence(e.Confidence)
		fmt.Fprintf(&sb, "%d. %s %s — Güven: %s — %s\n",
			i+1, severityMarker(sev), e.Result, entity.FormatConfidence(e.Confidence), humanize.Time(e.Timestamp))
	}
	return sb.String()
}

func formatClasses(classes entity.ClassTable) string {
	var sb strings.Builder
	sb.WriteString("Kusur sınıfları:\n")
	for _, c := range classes.Classes() {
		fmt.Fprintf(&sb, "%d — %s\n", c.Index, c.Name)
	}
	return sb.String()
}

// parseOffsets разбирает номера 1..N из списка и переводит их в позиции 0..N-1
func parseOffsets(args string) ([]int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil, errors.New("no offsets")
	}
	offsets := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSuffix(f, ","))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid offset %q", f)
		}
		offsets = append(offsets, n-1)
	}
	return offsets, nil
}
