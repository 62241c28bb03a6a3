package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	boterrors "github.com/ducminhle1904/resilient-trader/internal/errors"
	"github.com/ducminhle1904/resilient-trader/internal/logger"
	"github.com/ducminhle1904/resilient-trader/internal/network"
	"github.com/ducminhle1904/resilient-trader/internal/network/retry"
	"github.com/ducminhle1904/resilient-trader/internal/network/state"
)

const (
	defaultTelegramURL = "https://api.telegram.org"
	telegramComponent  = "telegram"
	sendOperation      = "telegram_send_alert"
)

// TelegramNotifier posts alerts to a Telegram chat. Sends are rate limited and
// retried with the network request preset.
type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  logger.Sink
	store   *state.Store
	clock   retry.Clock
	send    retry.Func
}

// TelegramOption configures a TelegramNotifier
type TelegramOption func(*TelegramNotifier)

// WithBaseURL points the notifier at another Bot API host
func WithBaseURL(baseURL string) TelegramOption {
	return func(t *TelegramNotifier) { t.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *TelegramNotifier) { t.client = client }
}

// WithRateLimit allows n messages per interval
func WithRateLimit(interval time.Duration, n int) TelegramOption {
	return func(t *TelegramNotifier) { t.limiter = rate.NewLimiter(rate.Every(interval), n) }
}

// WithNotifierLogger sets the log sink
func WithNotifierLogger(l logger.Sink) TelegramOption {
	return func(t *TelegramNotifier) { t.logger = l }
}

// WithNotifierStore sets where the send lifecycle is recorded
func WithNotifierStore(s *state.Store) TelegramOption {
	return func(t *TelegramNotifier) { t.store = s }
}

// WithNotifierClock replaces the clock used between send attempts
func WithNotifierClock(c retry.Clock) TelegramOption {
	return func(t *TelegramNotifier) { t.clock = c }
}

func NewTelegramNotifier(token, chatID string, opts ...TelegramOption) *TelegramNotifier {
	t := &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: defaultTelegramURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.send = network.NetworkRequest(t.post, network.ComprehensiveOptions{
		State: network.StateOptions{
			Operation: sendOperation,
			AutoSave:  true,
			Name:      "TelegramNotifier.SendAlert",
			Store:     t.store,
			Logger:    t.logger,
		},
		Retry: network.RetryOptions{Clock: t.clock},
	})
	return t
}

// Enabled reports whether a token and chat are configured
func (t *TelegramNotifier) Enabled() bool {
	return t.token != "" && t.chatID != ""
}

// SendAlert sends message to the configured chat. Without a token or chat it does nothing.
func (t *TelegramNotifier) SendAlert(ctx context.Context, level, message string) error {
	if !t.Enabled() {
		return nil
	}

	args := retry.NewArgs().
		With("chat_id", t.chatID).
		With("text", formatAlert(level, message))

	_, err := t.send(ctx, args)
	return err
}

func formatAlert(level, message string) string {
	emoji := "ℹ️"
	switch level {
	case LevelWarning:
		emoji = "⚠️"
	case LevelError:
		emoji = "🚨"
	case LevelSuccess:
		emoji = "✅"
	}

	return fmt.Sprintf("%s *Network Alert*\n\n%s", emoji, message)
}

func (t *TelegramNotifier) post(ctx context.Context, args retry.Args) (interface{}, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	data := url.Values{}
	data.Set("chat_id", args.String("chat_id"))
	data.Set("text", args.String("text"))
	data.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, boterrors.NewConfigurationError(telegramComponent, "sendMessage", err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// The request URL carries the bot token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = strings.ReplaceAll(urlErr.URL, t.token, "<token>")
		}
		return nil, boterrors.NewNetworkError(telegramComponent, "sendMessage", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return resp.StatusCode, nil
}

// statusError maps a Bot API status onto an error category. Server errors and
// throttling are transport trouble worth retrying; other client errors are not.
func statusError(status int, body string) error {
	message := fmt.Sprintf("telegram API returned status %d", status)
	if body != "" {
		message += ": " + body
	}

	switch {
	case status >= 500, status == http.StatusTooManyRequests:
		return boterrors.NewBotError(boterrors.ErrorCategoryNetwork, telegramComponent, "sendMessage", message).
			WithContext("status", status)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return boterrors.NewCredentialsError(telegramComponent, "sendMessage", message)
	default:
		return boterrors.NewValidationError(telegramComponent, "sendMessage", message)
	}
}
