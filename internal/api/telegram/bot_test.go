package telegram

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"defect-bot/internal/domain/entity"
)

func TestParseOffsets(t *testing.T) {
	offsets, err := parseOffsets("1 3, 2")
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 1}, offsets)

	for _, bad := range []string{"", "0", "abc", "2 -1"} {
		_, err := parseOffsets(bad)
		require.Error(t, err, bad)
	}
}

func TestFormatHistory(t *testing.T) {
	require.Equal(t, msgHistoryEmpty, formatHistory(nil, entity.DefaultHistoryQuery()))

	entries := []entity.HistoryEntry{
		{ID: uuid.New(), Result: "Kapsama", Confidence: 0.4, Timestamp: time.Now().Add(-time.Hour)},
		{ID: uuid.New(), Result: "Çatlama", Confidence: 0.91, Timestamp: time.Now().Add(-2 * time.Hour)},
	}
	text := formatHistory(entries, entity.HistoryQuery{Search: "a", Descending: true})

	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, `📜 Sonuç Geçmişi (Tümü, ↓, "a")`, lines[0])
	require.True(t, strings.HasPrefix(lines[1], "1. 🔴 Kapsama — Güven: 40.00% — "))
	require.Contains(t, lines[1], "1 hour ago")
	require.True(t, strings.HasPrefix(lines[2], "2. 🟢 Çatlama — Güven: 91.00%"))
}

func TestFormatClasses(t *testing.T) {
	text := formatClasses(entity.DefaultClassTable)
	require.Contains(t, text, "0 — Çatlama\n")
	require.Contains(t, text, "5 — Çizikler\n")
}

func TestBot_WaitBlocksUntilHandlersFinish(t *testing.T) {
	b := &Bot{}
	release := make(chan struct{})
	var finished atomic.Bool
	b.spawn(func() {
		<-release
		finished.Store(true)
	})

	waited := make(chan struct{})
	go func() {
		b.wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("wait returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the handler finished")
	}
	require.True(t, finished.Load())
}
