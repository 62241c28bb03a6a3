package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/monitoring"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }

func (instantClock) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestNotifier(t *testing.T, baseURL string, store *state.Store) *TelegramNotifier {
	t.Helper()
	return NewTelegramNotifier("123:secret-token", "42",
		WithBaseURL(baseURL),
		WithRateLimit(time.Millisecond, 100),
		WithNotifierLogger(logger.Nop()),
		WithNotifierStore(store),
		WithNotifierClock(instantClock{}),
	)
}

func TestTelegramNotifier_SendsForm(t *testing.T) {
	var method, path string
	var form map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		method, path = r.Method, r.URL.Path
		form = map[string]string{
			"chat_id":    r.PostForm.Get("chat_id"),
			"text":       r.PostForm.Get("text"),
			"parse_mode": r.PostForm.Get("parse_mode"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestNotifier(t, server.URL, state.NewStore(t.TempDir(), logger.Nop()))
	require.NoError(t, n.SendAlert(context.Background(), LevelError, "retries exhausted"))

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/bot123:secret-token/sendMessage", path)
	assert.Equal(t, "42", form["chat_id"])
	assert.Equal(t, "Markdown", form["parse_mode"])
	assert.Contains(t, form["text"], "🚨")
	assert.Contains(t, form["text"], "retries exhausted")
}

func TestTelegramNotifier_RetriesServerErrors(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&requests, 1) {
		case 1:
			w.WriteHeader(http.StatusBadGateway)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	n := newTestNotifier(t, server.URL, state.NewStore(t.TempDir(), logger.Nop()))
	require.NoError(t, n.SendAlert(context.Background(), LevelInfo, "hello"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestTelegramNotifier_RecoveredSendKeepsHealthy(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := state.NewStore(t.TempDir(), logger.Nop())
	n := newTestNotifier(t, server.URL, store)
	require.NoError(t, n.SendAlert(context.Background(), LevelInfo, "hello"))

	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, state.StatusCompleted, store.Status(sendOperation))

	health := monitoring.NewHealthChecker(store).Check()
	assert.Equal(t, "healthy", health.Status)
	assert.Empty(t, health.FailedOperations)
}

func TestTelegramNotifier_GivesUpAfterPreset(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := state.NewStore(t.TempDir(), logger.Nop())
	n := newTestNotifier(t, server.URL, store)
	err := n.SendAlert(context.Background(), LevelWarning, "hello")

	require.Error(t, err)
	assert.True(t, boterrors.HasCategory(err, boterrors.ErrorCategoryNetwork))
	assert.Equal(t, int32(4), atomic.LoadInt32(&requests))
	assert.Equal(t, state.StatusFailed, store.Status(sendOperation))
}

func TestTelegramNotifier_ClientErrorNotRetried(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	n := newTestNotifier(t, server.URL, state.NewStore(t.TempDir(), logger.Nop()))
	err := n.SendAlert(context.Background(), LevelInfo, "hello")

	require.Error(t, err)
	assert.True(t, boterrors.HasCategory(err, boterrors.ErrorCategoryValidation))
	assert.Contains(t, err.Error(), "chat not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestTelegramNotifier_UnauthorizedIsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	n := newTestNotifier(t, server.URL, state.NewStore(t.TempDir(), logger.Nop()))
	err := n.SendAlert(context.Background(), LevelInfo, "hello")

	assert.True(t, boterrors.HasCategory(err, boterrors.ErrorCategoryCredentials))
}

func TestTelegramNotifier_TokenNotPersisted(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	store := state.NewStore(t.TempDir(), logger.Nop())
	n := newTestNotifier(t, baseURL, store)
	err := n.SendAlert(context.Background(), LevelInfo, "hello")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")

	raw, readErr := os.ReadFile(store.Path(sendOperation))
	require.NoError(t, readErr)
	assert.NotContains(t, string(raw), "secret-token")
}

func TestTelegramNotifier_DisabledWithoutToken(t *testing.T) {
	n := NewTelegramNotifier("", "42", WithNotifierLogger(logger.Nop()))

	assert.False(t, n.Enabled())
	assert.NoError(t, n.SendAlert(context.Background(), LevelInfo, "dropped"))
}

func TestFormatAlert(t *testing.T) {
	assert.Contains(t, formatAlert(LevelWarning, "m"), "⚠️")
	assert.Contains(t, formatAlert(LevelSuccess, "m"), "✅")
	assert.Contains(t, formatAlert("other", "m"), "ℹ️")
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.SendAlert(context.Background(), LevelError, "x"))
}
